package server

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusMissing      = "missing"
)

// HealthChecker serves liveness and readiness endpoints next to /metrics.
type HealthChecker struct {
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker. sc may be nil, in which case
// only the process itself is checked.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	return &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Uptime string            `json:"uptime,omitempty"`
}

// Checks reports the state of each backend credential. Missing credentials
// do not make the process unready: the affected tools answer with their
// failure message instead.
func (h *HealthChecker) Checks() map[string]string {
	checks := map[string]string{"shutdown": healthStatusOK}
	sc := h.serverContext
	if sc == nil {
		return checks
	}
	if sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
	}

	checks["google_token"] = healthStatusMissing
	if sc.cfg.Tokens != nil && sc.cfg.Tokens.HasTokenForAccount(sc.cfg.Account) {
		checks["google_token"] = healthStatusOK
	}
	checks["search_api_key"] = healthStatusMissing
	if sc.cfg.TavilyAPIKey != "" {
		checks["search_api_key"] = healthStatusOK
	}
	return checks
}

func (h *HealthChecker) isShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// LivenessHandler answers /healthz while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers /readyz with 503 once the server context is shut
// down.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if h.isShuttingDown() {
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady})
			return
		}
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// DetailedHealthHandler adds uptime and per-backend checks.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: healthStatusOK,
			Checks: h.Checks(),
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		code := http.StatusOK
		if h.isShuttingDown() {
			resp.Status = healthStatusShuttingDown
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, resp)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
