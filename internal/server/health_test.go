package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calagent/internal/google"
)

func getHealth(t *testing.T, h http.Handler) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealthChecker_NilContext(t *testing.T) {
	h := NewHealthChecker(nil)

	code, resp := getHealth(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, resp.Status)

	code, _ = getHealth(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, code)

	assert.Equal(t, map[string]string{"shutdown": healthStatusOK}, h.Checks())
}

func TestHealthChecker_Checks(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Config{
		Tokens:       google.NewStaticTokenProvider("ya29.token", ""),
		TavilyAPIKey: "",
	})
	require.NoError(t, err)
	h := NewHealthChecker(sc)

	code, resp := getHealth(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, resp.Checks["google_token"])
	assert.Equal(t, healthStatusMissing, resp.Checks["search_api_key"])
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealthChecker_Shutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Config{})
	require.NoError(t, err)
	h := NewHealthChecker(sc)
	require.NoError(t, sc.Shutdown())

	code, resp := getHealth(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusNotReady, resp.Status)

	code, resp = getHealth(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusShuttingDown, resp.Status)
	assert.Equal(t, healthStatusShuttingDown, resp.Checks["shutdown"])

	code, _ = getHealth(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
}
