package main

import (
	"context"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"github.com/ariefcatur/go-realtime-store/internal/config"
	"github.com/ariefcatur/go-realtime-store/internal/httpx"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	kafkax "github.com/ariefcatur/go-realtime-store/internal/kafka"
	"github.com/ariefcatur/go-realtime-store/internal/logx"
	"github.com/ariefcatur/go-realtime-store/internal/postgres"
	"github.com/ariefcatur/go-realtime-store/internal/redisx"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.New("text", "info", "store-api").WithError(err).Fatal("load config")
	}
	log := logx.New(cfg.LogFormat, cfg.LogLevel, cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis ping")
	}

	// Kafka producer, satu writer untuk semua topic invoice
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start()

	cache := redisx.NewInvoiceCache(rdb)
	audit := activity.NewRecorder(&activity.Repo{DB: db}, log)
	products := catalog.NewService(&catalog.Repo{DB: db}, audit, log)
	engine := invoices.NewService(&invoices.Repo{DB: db}, products, audit,
		kafkax.NewEventPublisher(prod, cfg.ServiceName), log,
		invoices.Config{TTL: cfg.InvoiceTTL, Cache: cache})

	router := httpx.NewRouter(httpx.RouterOptions{Log: log, Timeout: cfg.RequestTimeout})
	router.Group(func(r chi.Router) {
		r.Use(httpx.ResolveActor)
		httpx.NewProductsHandler(products, log).Register(r)
		(&httpx.InvoicesHandler{
			Invoices:  engine,
			Cache:     cache,
			Redis:     rdb,
			Activity:  &activity.Repo{DB: db},
			Audit:     audit,
			Log:       log,
			OrderRate: cfg.OrderRateLimit,
		}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
	if err != nil {
		log.WithError(err).Error("api exit")
		os.Exit(1)
	}
}
