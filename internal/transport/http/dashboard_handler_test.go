package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "acaipulse/internal/errors"
	"acaipulse/internal/exporter"
	"acaipulse/internal/filters"
	"acaipulse/internal/services"
	"acaipulse/internal/shared/testutil"
	"acaipulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Dashboard(ctx context.Context, sel filters.Selection) (*services.DashboardResponse, error) {
	args := m.Called(sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardResponse), args.Error(1)
}

func (m *MockDashboardService) Filters(ctx context.Context, sel filters.Selection) (*services.FiltersResponse, error) {
	args := m.Called(sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FiltersResponse), args.Error(1)
}

func (m *MockDashboardService) View(ctx context.Context, name string, sel filters.Selection) (interface{}, error) {
	args := m.Called(name, sel)
	return args.Get(0), args.Error(1)
}

func (m *MockDashboardService) Sales(ctx context.Context, sel filters.Selection, page, pageSize int) (*services.SalesPage, error) {
	args := m.Called(sel, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SalesPage), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, w io.Writer, format string, sel filters.Selection) (int, error) {
	args := m.Called(format, sel)
	if body := args.String(2); body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardService) Info(ctx context.Context) (domain.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *MockDashboardService) Reload(ctx context.Context, force bool) (*services.ReloadResult, error) {
	args := m.Called(force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReloadResult), args.Error(1)
}

func newTestRouter(t *testing.T, svc DashboardService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewDashboardHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return r
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func selectsStore(store string) interface{} {
	return mock.MatchedBy(func(sel filters.Selection) bool {
		v, ok := sel.ValuesFor(filters.StageStore)
		return ok && len(v) == 1 && v[0] == store
	})
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		setupMock      func(m *MockDashboardService)
		expectedStatus int
		checkBody      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:  "selection forwarded",
			query: "?store=Centro&promotion_only=true",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard", mock.MatchedBy(func(sel filters.Selection) bool {
					v, _ := sel.ValuesFor(filters.StageStore)
					return len(v) == 1 && v[0] == "Centro" && sel.PromotionOnly
				})).Return(&services.DashboardResponse{
					Dashboard: &domain.Dashboard{RowCount: 3, Headline: domain.Headline{TotalSales: 42}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.EqualValues(t, 3, body["row_count"])
				headline := body["headline"].(map[string]interface{})
				assert.EqualValues(t, 42, headline["total_sales"])
			},
		},
		{
			name:           "invalid date",
			query:          "?date_from=2024-13-40",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
			},
		},
		{
			name:           "reversed hour range",
			query:          "?hour_from=20&hour_to=08",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "dataset missing",
			query: "",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard", mock.Anything).Return(nil, apierrors.NewStorageError("dataset not readable", io.ErrUnexpectedEOF))
			},
			expectedStatus: http.StatusServiceUnavailable,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.TypeDatasetUnavailable, body["type"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			tt.setupMock(svc)

			w := serve(newTestRouter(t, svc), http.MethodGet, "/api/dashboard"+tt.query)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkBody != nil {
				tt.checkBody(t, decode(t, w))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetFilters(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Filters", selectsStore("Norte")).Return(&services.FiltersResponse{
		Stages:   []filters.StageResult{{ID: filters.StageStore}},
		RowCount: 2,
	}, nil)

	w := serve(newTestRouter(t, svc), http.MethodGet, "/api/filters?store=Norte")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["row_count"])
	assert.Len(t, body["stages"], 1)
}

func TestDashboardHandler_GetView(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("View", domain.ViewWeekday, mock.Anything).Return([]domain.WeekdayValue{{Index: 0, Weekday: "Segunda-feira", Value: 10}}, nil)
	svc.On("View", "nope", mock.Anything).Return(nil,
		apierrors.NewWithDetails(http.StatusNotFound, "VIEW_NOT_FOUND", `view "nope" not found`, nil))
	router := newTestRouter(t, svc)

	w := serve(router, http.MethodGet, "/api/views/weekday")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "weekday", body["view"])
	assert.Len(t, body["data"], 1)

	w = serve(router, http.MethodGet, "/api/views/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.TypeViewNotFound, decode(t, w)["type"])
}

func TestDashboardHandler_GetSales(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantPage       int
		wantSize       int
		expectedStatus int
	}{
		{"defaults", "", 1, services.DefaultPageSize, http.StatusOK},
		{"explicit", "?page=3&page_size=20", 3, 20, http.StatusOK},
		{"page size too large", "?page_size=100000", 0, 0, http.StatusBadRequest},
		{"page not a number", "?page=abc", 0, 0, http.StatusBadRequest},
		{"page zero", "?page=0", 0, 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			if tt.expectedStatus == http.StatusOK {
				svc.On("Sales", mock.Anything, tt.wantPage, tt.wantSize).Return(&services.SalesPage{
					Items: []domain.Sale{}, Page: tt.wantPage, PageSize: tt.wantSize,
				}, nil)
			}

			w := serve(newTestRouter(t, svc), http.MethodGet, "/api/sales"+tt.query)
			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ExportSales(t *testing.T) {
	t.Run("csv download", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("Export", exporter.FormatCSV, selectsStore("Centro")).Return(1, nil, "Loja\nCentro\n")

		w := serve(newTestRouter(t, svc), http.MethodGet, "/api/export/sales.csv?store=Centro")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, exporter.ContentType(exporter.FormatCSV), w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
		assert.Equal(t, "1", w.Header().Get("X-Row-Count"))
		assert.Equal(t, "Loja\nCentro\n", w.Body.String())
	})

	t.Run("xlsx download", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("Export", exporter.FormatXLSX, mock.Anything).Return(5, nil, "PK")

		w := serve(newTestRouter(t, svc), http.MethodGet, "/api/export/sales.xlsx")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, exporter.ContentType(exporter.FormatXLSX), w.Header().Get("Content-Type"))
	})

	t.Run("unknown format", func(t *testing.T) {
		svc := &MockDashboardService{}
		w := serve(newTestRouter(t, svc), http.MethodGet, "/api/export/sales.pdf")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
	})

	t.Run("export failure renders a problem", func(t *testing.T) {
		svc := &MockDashboardService{}
		svc.On("Export", exporter.FormatCSV, mock.Anything).
			Return(0, apierrors.NewAppError(apierrors.ErrTypeExport, "too many rows", nil), "")

		w := serve(newTestRouter(t, svc), http.MethodGet, "/api/export/sales.csv")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apierrors.TypeExportFailed, decode(t, w)["type"])
	})
}

func TestDashboardHandler_Dataset(t *testing.T) {
	loadedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	info := domain.DatasetInfo{Path: "/data/vendas.csv", Rows: 12, LoadedAt: loadedAt}

	svc := &MockDashboardService{}
	svc.On("Info").Return(info, nil)
	svc.On("Reload", true).Return(&services.ReloadResult{Reloaded: true, Dataset: info}, nil)
	svc.On("Reload", false).Return(&services.ReloadResult{Reloaded: false, Dataset: info}, nil)
	router := newTestRouter(t, svc)

	w := serve(router, http.MethodGet, "/api/dataset")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 12, decode(t, w)["rows"])

	w = serve(router, http.MethodPost, "/api/dataset/reload?force=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["reloaded"])

	w = serve(router, http.MethodPost, "/api/dataset/reload")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["reloaded"])

	w = serve(router, http.MethodPost, "/api/dataset/reload?force=maybe")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/dataset/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	svc.AssertExpectations(t)
}
