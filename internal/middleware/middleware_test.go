package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/filters"
	"acaipulse/internal/infrastructure"
	"acaipulse/internal/shared/testutil"
	"acaipulse/pkg/contracts/domain"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestID(t *testing.T) {
	var seen, trace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
		trace = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, trace)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("reuses the caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", GetRequestID(context.WithValue(context.Background(), middleware.RequestIDKey, seen)))
	})
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 1, logger, nil)
	h := rl.Handler(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.True(t, handler.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	ok = false
	Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}})(http.HandlerFunc(okHandler))

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	})

	t.Run("rejected preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
		req.Header.Set("Origin", "http://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSecureHeaders(t *testing.T) {
	h := DefaultSecureHeaders().Handler(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("X-Frame-Options"))
}

func TestValidationMiddleware_Selection(t *testing.T) {
	v := NewValidationMiddleware(nil, apperrors.NewErrorHandler(nil, false))

	t.Run("valid query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/dashboard?store=A&store=B&weekday=segunda-feira&date_from=2024-01-01&date_to=2024-01-31&hour_from=9&hour_to=18&promotion_only=true", nil)
		sel, ok := v.Selection(httptest.NewRecorder(), req)
		require.True(t, ok)

		stores, _ := sel.ValuesFor(filters.StageStore)
		assert.Equal(t, []string{"A", "B"}, stores)
		days, _ := sel.ValuesFor(filters.StageWeekday)
		assert.Equal(t, []string{domain.WeekdayNames[0]}, days)
		require.NotNil(t, sel.TimeTo)
		assert.Equal(t, domain.NewClockTime(18, 59, 59), *sel.TimeTo)
		assert.True(t, sel.PromotionOnly)
	})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"bad weekday", "weekday=funday", "weekday[0]"},
		{"bad date", "date_from=01/02/2024", "date_from"},
		{"bad hour", "hour_to=25", "hour_to"},
		{"bad promotion flag", "promotion_only=sim", "promotion_only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			_, ok := v.Selection(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?"+tt.query, nil))
			require.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.field)
		})
	}

	t.Run("inverted date range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := v.Selection(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?date_from=2024-02-01&date_to=2024-01-01", nil))
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestValidationMiddleware_ViewTag(t *testing.T) {
	v := NewValidationMiddleware(nil, nil)
	type viewRequest struct {
		View string `json:"view" validate:"required,view"`
	}

	assert.NoError(t, v.ValidateStruct(viewRequest{View: domain.ViewHourly}))

	err := v.ValidateStruct(viewRequest{View: "pie"})
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	details, ok := apiErr.Details.(apperrors.ValidationErrors)
	require.True(t, ok)
	require.Len(t, details.Errors, 1)
	assert.Equal(t, "view", details.Errors[0].Field)
}

func TestQueryParamValidator(t *testing.T) {
	v := NewQueryParamValidator(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/?page=3&format=csv&force=yes&size=x", nil)

	page, ok := v.ValidateInt(httptest.NewRecorder(), req, "page", 1, 100, 1)
	assert.True(t, ok)
	assert.Equal(t, 3, page)

	def, ok := v.ValidateInt(httptest.NewRecorder(), req, "missing", 1, 100, 7)
	assert.True(t, ok)
	assert.Equal(t, 7, def)

	rec := httptest.NewRecorder()
	_, ok = v.ValidateInt(rec, req, "size", 1, 100, 1)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	_, ok = v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?page=500", nil), "page", 1, 100, 1)
	assert.False(t, ok)

	format, ok := v.ValidateEnum(httptest.NewRecorder(), req, "format", []string{"csv", "xlsx"}, "xlsx")
	assert.True(t, ok)
	assert.Equal(t, "csv", format)

	rec = httptest.NewRecorder()
	_, ok = v.ValidateBool(rec, req, "force", false)
	assert.False(t, ok)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
}
