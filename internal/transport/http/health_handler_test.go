package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acaipulse/internal/services"
	"acaipulse/internal/shared/testutil"
	"acaipulse/pkg/contracts/domain"
)

type staticDataset struct {
	info   domain.DatasetInfo
	loaded bool
}

func (p staticDataset) Loaded() (domain.DatasetInfo, bool) { return p.info, p.loaded }
func (p staticDataset) Path() string                       { return "/data/vendas.csv" }

func newHealthRouter(t *testing.T, status services.DatasetStatus) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hs := services.NewHealthService("v1.0.0-test", "2024-01-01T00:00:00Z", "", status, nil, logger)
	r := chi.NewRouter()
	r.Mount("/api", NewHealthHandler(hs, logger).Routes())
	return r
}

func TestHealthHandler_Endpoints(t *testing.T) {
	router := newHealthRouter(t, staticDataset{info: domain.DatasetInfo{Rows: 4}, loaded: true})

	tests := []struct {
		name           string
		endpoint       string
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{"health", "/api/health", http.StatusOK, func(t *testing.T, body map[string]interface{}) {
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, "v1.0.0-test", body["version"])
		}},
		{"liveness", "/api/health/live", http.StatusOK, func(t *testing.T, body map[string]interface{}) {
			assert.Equal(t, "alive", body["status"])
		}},
		{"readiness", "/api/health/ready", http.StatusOK, func(t *testing.T, body map[string]interface{}) {
			assert.Equal(t, "ready", body["status"])
		}},
		{"detailed", "/api/health/detailed", http.StatusOK, func(t *testing.T, body map[string]interface{}) {
			assert.Contains(t, body, "stats")
		}},
		{"version", "/api/version", http.StatusOK, func(t *testing.T, body map[string]interface{}) {
			assert.Equal(t, "2024-01-01T00:00:00Z", body["build_time"])
			assert.NotContains(t, body, "build_id")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, http.MethodGet, tt.endpoint)
			require.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			tt.check(t, decode(t, w))
		})
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	router := newHealthRouter(t, staticDataset{})

	w := serve(router, http.MethodGet, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", decode(t, w)["status"])
}
