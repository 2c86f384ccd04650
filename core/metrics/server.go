package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/furnibot/core/buildinfo"
	"github.com/m3rciful/furnibot/core/logger"
)

// Pinger reports dependency health for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler builds the ops router: /metrics and /healthz.
func Handler(m *Metrics, checks map[string]Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	if reg := m.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		body := map[string]string{"version": buildinfo.Summary()}
		code := http.StatusOK
		for name, p := range checks {
			if err := p.PingContext(req.Context()); err != nil {
				body[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	})
	return r
}

// Serve runs the ops server on listen until ctx is cancelled.
func Serve(ctx context.Context, listen string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.LogEvent(ctx, logger.Ops, slog.LevelInfo, "ops.listen", slog.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
