package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/syncx-go/internal/infra/buildinfo"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics is exposed on /metrics.
	Metrics *metric.Registry

	// AuthToken, when set, is required as a bearer token on /metrics.
	AuthToken string

	Logger logger.Logger
}

// NewRouter wires the observability routes and the middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metric.Global()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", MetricsAuth(cfg.AuthToken)(reg.Handler()))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(buildinfo.Get())
	})

	return Chain(mux, RequestID(), Recover(log), AccessLog(log))
}
