package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "acaipulse/internal/errors"
	"acaipulse/internal/exporter"
	appmiddleware "acaipulse/internal/middleware"
	"acaipulse/internal/services"
)

// DashboardHandler serves the dashboard, its views, the filtered rows and
// their exports.
type DashboardHandler struct {
	service      DashboardService
	validation   *appmiddleware.ValidationMiddleware
	query        *appmiddleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &DashboardHandler{
		service:      service,
		validation:   appmiddleware.NewValidationMiddleware(logger, errorHandler),
		query:        appmiddleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes on their own router.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the dashboard routes to r, normally the /api
// subrouter.
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/filters", h.GetFilters)
		r.Get("/views/{view}", h.GetView)
		r.Get("/sales", h.GetSales)
		r.Get("/dataset", h.GetDataset)
		r.Post("/dataset/reload", h.ReloadDataset)
	})

	r.Get("/export/sales.{format}", h.ExportSales)
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.validation.Selection(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Dashboard(r.Context(), sel)
	if err != nil {
		h.fail(w, r, "failed to build dashboard", err)
		return
	}
	render.JSON(w, r, resp)
}

// GetFilters handles GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.validation.Selection(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Filters(r.Context(), sel)
	if err != nil {
		h.fail(w, r, "failed to compute filters", err)
		return
	}
	render.JSON(w, r, resp)
}

// GetView handles GET /api/views/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	sel, ok := h.validation.Selection(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), name, sel)
	if err != nil {
		h.fail(w, r, "failed to compute view", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"view": name,
		"data": view,
	})
}

// GetSales handles GET /api/sales
func (h *DashboardHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.validation.Selection(w, r)
	if !ok {
		return
	}
	page, ok := h.query.ValidateInt(w, r, "page", 1, 1_000_000, 1)
	if !ok {
		return
	}
	size, ok := h.query.ValidateInt(w, r, "page_size", 1, services.MaxPageSize, services.DefaultPageSize)
	if !ok {
		return
	}

	resp, err := h.service.Sales(r.Context(), sel, page, size)
	if err != nil {
		h.fail(w, r, "failed to list sales", err)
		return
	}
	render.JSON(w, r, resp)
}

// ExportSales handles GET /api/export/sales.{format}. The file is built in
// memory first so a failure can still be reported as a problem response.
func (h *DashboardHandler) ExportSales(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: csv, xlsx"))
		return
	}
	sel, ok := h.validation.Selection(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	rows, err := h.service.Export(r.Context(), &buf, format, sel)
	if err != nil {
		h.fail(w, r, "export failed", err)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+exporter.FileName(format, time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Row-Count", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export response interrupted",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.fail(w, r, "failed to load dataset", err)
		return
	}
	render.JSON(w, r, info)
}

// ReloadDataset handles POST /api/dataset/reload
func (h *DashboardHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	force, ok := h.query.ValidateBool(w, r, "force", false)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "dataset reload requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("force", force),
	)

	res, err := h.service.Reload(r.Context(), force)
	if err != nil {
		h.fail(w, r, "dataset reload failed", err)
		return
	}
	render.JSON(w, r, res)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)
	h.errorHandler.HandleError(w, r, err)
}
