// Package server exposes the operator endpoints: liveness, readiness and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewired-gh/landoracle/internal/logger"
)

const (
	okStatus      = "OK"
	loadingStatus = "LOADING"

	shutdownTimeout = 5 * time.Second
)

// Handler returns the operator router. ready reports whether the
// prediction service has finished loading.
func Handler(ready func() bool, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Mount("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, okStatus) //nolint: errcheck
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, loadingStatus) //nolint: errcheck
			return
		}
		io.WriteString(w, okStatus) //nolint: errcheck
	})
	return r
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Operator server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrap := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(wrap, r)

		// Probes would drown everything else.
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			return
		}
		entry := logger.WithField("status", wrap.Status()).
			WithField("dur[ms]", time.Since(start).Milliseconds())
		line := "HTTP: " + r.Method + " " + r.URL.RequestURI()
		if wrap.Status() >= http.StatusInternalServerError {
			entry.Error(line)
		} else {
			entry.Debug(line)
		}
	})
}
