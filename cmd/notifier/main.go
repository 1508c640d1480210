package main

import (
	"context"
	"github.com/ariefcatur/go-realtime-store/internal/config"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	kafkax "github.com/ariefcatur/go-realtime-store/internal/kafka"
	"github.com/ariefcatur/go-realtime-store/internal/logx"
	"github.com/ariefcatur/go-realtime-store/internal/notify"
	"github.com/ariefcatur/go-realtime-store/internal/redisx"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.New("text", "info", "store-notifier").WithError(err).Fatal("load config")
	}
	log := logx.New(cfg.LogFormat, cfg.LogLevel, cfg.ServiceName+"-notifier")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	var sender notify.Sender = notify.LogSender{Log: log}
	if cfg.AdminWebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.AdminWebhookURL)
	}
	var customer notify.CustomerSender = notify.LogSender{Log: log}
	if cfg.CustomerWebhookURL != "" {
		customer = notify.NewWebhookSender(cfg.CustomerWebhookURL)
	}
	svc := &notify.Service{
		RDB:      rdb,
		Sender:   sender,
		Customer: customer,
		Log:      log,
		Currency: cfg.CurrencyPrefix,
		Name:     cfg.NotifierGroup,
	}

	topics := invoices.Topics()
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, topics, cfg.NotifierWorkers, log)
	log.WithField("group", cfg.NotifierGroup).WithField("topics", topics).Info("notifier consumer started")
	if err := cons.Start(ctx, svc.HandleMessage); err != nil {
		log.WithError(err).Error("consumer exit")
		os.Exit(1)
	}
	log.Info("notifier stopped")
}
