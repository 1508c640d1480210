package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"github.com/ariefcatur/go-realtime-store/internal/config"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/ariefcatur/go-realtime-store/internal/jobs"
	kafkax "github.com/ariefcatur/go-realtime-store/internal/kafka"
	"github.com/ariefcatur/go-realtime-store/internal/logx"
	"github.com/ariefcatur/go-realtime-store/internal/postgres"
	"github.com/ariefcatur/go-realtime-store/internal/redisx"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.New("text", "info", "store-worker").WithError(err).Fatal("load config")
	}
	log := logx.New(cfg.LogFormat, cfg.LogLevel, cfg.ServiceName+"-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start()
	defer func() {
		prod.Close()
		prod.WaitClosed()
	}()

	audit := activity.NewRecorder(&activity.Repo{DB: db}, log)
	products := catalog.NewService(&catalog.Repo{DB: db}, audit, log)
	engine := invoices.NewService(&invoices.Repo{DB: db}, products, audit,
		kafkax.NewEventPublisher(prod, cfg.ServiceName+"-worker"), log,
		invoices.Config{TTL: cfg.InvoiceTTL, Cache: redisx.NewInvoiceCache(rdb)})

	sweep := &jobs.ExpirySweepJob{
		Invoices: engine,
		Audit:    audit,
		Log:      log,
		Metrics:  jobs.NewMetrics(nil),
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Log:       log,
		Handlers:  []jobs.TaskHandler{{Type: jobs.TaskExpireSweep, Handler: sweep.Handle}},
		Cron:      []jobs.CronRegistration{sweep.Cron(cfg.ExpirySpec)},
	})
	if err != nil {
		log.WithError(err).Fatal("init worker")
	}

	// metrics di port terpisah, API tidak jalan di proses ini
	metrics := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("metrics listener")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	log.WithField("spec", cfg.ExpirySpec).Info("expiry sweep scheduled")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("worker run")
		os.Exit(1)
	}
}
