package httpx

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/unrolled/secure"
	"net/http"
	"time"
)

type RouterOptions struct {
	Log      logrus.FieldLogger
	Gatherer prometheus.Gatherer
	Timeout  time.Duration
}

// NewRouter returns the base router with health and metrics mounted. API
// handlers register themselves on it.
func NewRouter(opts RouterOptions) *chi.Mux {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "no-referrer",
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: opts.Log, NoColor: true}))
	r.Use(middleware.Recoverer, sec.Handler)
	r.Use(middleware.Timeout(opts.Timeout))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	return r
}
