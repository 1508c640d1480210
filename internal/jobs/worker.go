package jobs

import (
	"context"
	"errors"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"time"
)

const QueueDefault = "default"

// Worker wraps the asynq server and its scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       logrus.FieldLogger
}

type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Log         logrus.FieldLogger
	Concurrency int
	Handlers    []TaskHandler
	Cron        []CronRegistration
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      asynqLogger{cfg.Log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			cfg.Log.WithError(err).WithField("task", t.Type()).Error("task failed")
		}),
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   asynqLogger{cfg.Log},
		})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Log}, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// asynqLogger routes asynq's internal logging through logrus.
type asynqLogger struct{ l logrus.FieldLogger }

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug(args...) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info(args...) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn(args...) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error(args...) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal(args...) }
