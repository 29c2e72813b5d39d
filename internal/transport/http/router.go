package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cedrus/internal/platform/metrics"
	"cedrus/internal/platform/middleware"
	"cedrus/pkg/platform/httputil"
)

// NewRouter assembles the full HTTP surface: health and metrics endpoints
// plus the authenticated workflow API.
func NewRouter(h *Handler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Register(r)
	return r
}
