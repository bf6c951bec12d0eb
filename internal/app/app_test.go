package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acaipulse/internal/config"
	"acaipulse/internal/shared/testutil"
	ws "acaipulse/internal/websocket"
)

func testConfig(t *testing.T, datasetPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Dataset.Path = datasetPath
	cfg.Export.Dir = filepath.Join(t.TempDir(), "exports")
	cfg.Logging.Output = "console"
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func writeDataset(t *testing.T) string {
	t.Helper()
	return testutil.WriteSalesCSV(t, t.TempDir(),
		testutil.CSVRow(map[string]string{"Loja": "A", "Total_Venda": "10,00", "Data": "2024-01-01"}),
		testutil.CSVRow(map[string]string{"Loja": "B", "Total_Venda": "20,00", "Data": "2024-01-02"}),
		testutil.CSVRow(map[string]string{"Loja": "B", "Total_Venda": "30,00", "Data": "2024-01-03"}),
	)
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestNew_Wiring(t *testing.T) {
	app := newTestApp(t, testConfig(t, writeDataset(t)))

	require.NotNil(t, app.Router)
	require.NotNil(t, app.Server)
	assert.Equal(t, ":0", app.Server.Addr)
	assert.DirExists(t, app.Paths.ExportDir)
	assert.NotNil(t, app.DashboardService)
	assert.NotNil(t, app.HealthService)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t, writeDataset(t)))
	router := app.Router

	t.Run("health", func(t *testing.T) {
		w := get(t, router, "/api/health")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("dashboard with selection", func(t *testing.T) {
		w := get(t, router, "/api/dashboard?store=B")
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.EqualValues(t, 2, body["row_count"])
		assert.Len(t, body["stages"], 12)
	})

	t.Run("invalid selection", func(t *testing.T) {
		w := get(t, router, "/api/dashboard?weekday=Someday")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
	})

	t.Run("csv export", func(t *testing.T) {
		w := get(t, router, "/api/export/sales.csv?store=A")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Equal(t, "1", w.Header().Get("X-Row-Count"))
	})

	t.Run("unknown route is a problem response", func(t *testing.T) {
		w := get(t, router, "/api/nope")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "/errors/not-found")
	})

	t.Run("prometheus metrics", func(t *testing.T) {
		w := get(t, router, "/metrics")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "dataset_loads")
		assert.Contains(t, w.Body.String(), "http_requests")
	})
}

func TestApplication_Preload(t *testing.T) {
	ctx := context.Background()

	t.Run("loads the dataset", func(t *testing.T) {
		app := newTestApp(t, testConfig(t, writeDataset(t)))
		require.NoError(t, app.Preload(ctx))

		info, ok := app.DashboardService.Loaded()
		require.True(t, ok)
		assert.Equal(t, 3, info.Rows)
		assert.Equal(t, "ready", app.HealthService.ReadinessCheck(ctx).Status)
	})

	t.Run("missing file is tolerated", func(t *testing.T) {
		app := newTestApp(t, testConfig(t, filepath.Join(t.TempDir(), "absent.csv")))
		require.NoError(t, app.Preload(ctx))
		assert.Equal(t, "not_ready", app.HealthService.ReadinessCheck(ctx).Status)
	})

	t.Run("unparseable file is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.csv")
		require.NoError(t, os.WriteFile(path, []byte("Loja,Data,Hora_Pedido\nA,31/31/2024,10:00\n"), 0o644))

		app := newTestApp(t, testConfig(t, path))
		err := app.Preload(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "preload")
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig(t, filepath.Join(t.TempDir(), "absent.csv"))
		cfg.Dataset.Preload = false
		app := newTestApp(t, cfg)
		require.NoError(t, app.Preload(ctx))
	})
}

func TestApplication_ReloadNotifiesWebSocket(t *testing.T) {
	app := newTestApp(t, testConfig(t, writeDataset(t)))
	app.WebSocketHub.Start()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+config.WebSocketEndpoint, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() ws.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}
	assert.Equal(t, ws.TypeConnection, read().Type)

	resp, err := http.Post(srv.URL+"/api/dataset/reload?force=true", "application/json", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	msg := read()
	assert.Equal(t, ws.TypeDatasetReloaded, msg.Type)
	assert.EqualValues(t, 3, msg.Data.(map[string]interface{})["rows"])
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, testConfig(t, writeDataset(t)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	_, ok := app.DashboardService.Loaded()
	assert.True(t, ok)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	assert.NoError(t, app.Stop(stopCtx))
}

func TestApplication_StartFailsOnBrokenDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("Loja\nA\n"), 0o644))
	app := newTestApp(t, testConfig(t, path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.Error(t, app.Start(ctx, cancel))
}
