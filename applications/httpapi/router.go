// Package httpapi exposes the query and submission surface over the
// engine layer: position/inventory/limit lookups, locate submission, and
// short-sell order validation, plus a streaming delta feed.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
	"github.com/globalprime/inventory-platform/infrastructure/logging"
	appmw "github.com/globalprime/inventory-platform/infrastructure/middleware"
)

// NewRouter builds the chi.Mux exposing h's endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	structured := logging.New("httpapi", "info", "json")

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.NewRecoveryMiddleware(structured).Handler)
	r.Use(appmw.NewCORSMiddleware(nil).Handler)
	r.Use(appmw.NewBodyLimitMiddleware(0).Handler)
	r.Use(loggingMiddleware(h.log))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/stats", h.stats)

	r.Route("/positions", func(r chi.Router) {
		r.Get("/{security}/{book}", h.getPosition)
		r.Get("/{security}", h.listPositionsBySecurity)
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/{market}/{security}", h.getInventory)
	})

	r.Route("/limits", func(r chi.Router) {
		r.Get("/{ownerKind}/{ownerID}/{security}", h.getLimit)
	})

	r.Route("/locates", func(r chi.Router) {
		r.Post("/", h.submitLocate)
		r.Get("/{id}", h.getLocate)
	})

	r.Route("/shortsell", func(r chi.Router) {
		r.Post("/validate", h.validateShortSell)
		r.Post("/cancel", h.cancelShortSell)
	})

	r.Get("/stream/deltas", h.streamDeltas)

	return r
}

// loggingMiddleware emits one structured line per request via the shared
// hot-path logger, tagged with the chi request id for correlation.
func loggingMiddleware(log hotlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration_ms", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
