package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthFunc reports whether the process can serve. nil means always healthy.
type HealthFunc func(ctx context.Context) error

// NewRouter serves /healthz and, when webhook is non-nil, the bot webhook at webhookPath.
func NewRouter(health HealthFunc, webhookPath string, webhook http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ok\n" + err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("math feedback bot"))
	})
	if webhook != nil {
		r.Method(http.MethodPost, webhookPath, webhook)
	}
	return r
}
