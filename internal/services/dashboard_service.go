package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"acaipulse/internal/analytics"
	"acaipulse/internal/dataset"
	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/exporter"
	"acaipulse/internal/filters"
	"acaipulse/pkg/contracts/domain"
)

// Event types pushed to websocket clients.
const (
	EventDatasetReloaded = "dataset:reloaded"
)

// Pagination bounds for the sales listing.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Notifier pushes events to connected clients.
type Notifier interface {
	Broadcast(messageType string, data interface{})
}

// DashboardResponse is the full dashboard for one selection.
type DashboardResponse struct {
	Stages []filters.StageResult `json:"stages"`
	*domain.Dashboard
}

// FiltersResponse carries only the stage options and effective
// selections.
type FiltersResponse struct {
	Stages   []filters.StageResult `json:"stages"`
	RowCount int                   `json:"row_count"`
}

// SalesPage is one page of filtered rows.
type SalesPage struct {
	Items      []domain.Sale `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
}

// ReloadResult reports the outcome of a reload request.
type ReloadResult struct {
	Reloaded bool               `json:"reloaded"`
	Dataset  domain.DatasetInfo `json:"dataset"`
}

// DashboardDeps are the collaborators of a DashboardService.
type DashboardDeps struct {
	Loader     *dataset.Loader
	Pipeline   *filters.Pipeline
	Aggregator *analytics.Aggregator
	Exporter   *exporter.Exporter
	// Notifier may be nil.
	Notifier Notifier
	Logger   *slog.Logger
}

// DashboardService computes dashboards over the configured dataset.
type DashboardService struct {
	path       string
	loader     *dataset.Loader
	pipeline   *filters.Pipeline
	aggregator *analytics.Aggregator
	exporter   *exporter.Exporter
	notifier   Notifier
	logger     *slog.Logger
	tracer     *dashboardTracer
}

// NewDashboardService creates the service for the dataset at path. Missing
// collaborators get defaults.
func NewDashboardService(path string, deps DashboardDeps) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Loader == nil {
		deps.Loader = dataset.NewLoader(dataset.DefaultOptions(), logger, nil)
	}
	if deps.Pipeline == nil {
		deps.Pipeline = filters.NewPipeline(nil, logger, nil)
	}
	if deps.Aggregator == nil {
		deps.Aggregator = analytics.NewAggregator(logger, analytics.Config{})
	}
	if deps.Exporter == nil {
		deps.Exporter = exporter.New(exporter.Options{}, logger, nil)
	}

	logger.Info("DashboardService initialized", slog.String("dataset_path", path))

	return &DashboardService{
		path:       path,
		loader:     deps.Loader,
		pipeline:   deps.Pipeline,
		aggregator: deps.Aggregator,
		exporter:   deps.Exporter,
		notifier:   deps.Notifier,
		logger:     logger.With(slog.String("service", "dashboard")),
		tracer:     newDashboardTracer(),
	}
}

// Path returns the dataset path the service reads.
func (s *DashboardService) Path() string {
	return s.path
}

// Preload reads the dataset so the first request does not pay for it.
func (s *DashboardService) Preload(ctx context.Context) (domain.DatasetInfo, error) {
	ds, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// Dashboard runs the filter pipeline and builds every view.
func (s *DashboardService) Dashboard(ctx context.Context, sel filters.Selection) (resp *DashboardResponse, err error) {
	ctx, span := s.tracer.start(ctx, "compute", selectionAttributes(sel)...)
	defer func() { s.tracer.end(span, err) }()

	result, err := s.filter(ctx, sel)
	if err != nil {
		return nil, err
	}

	dash := s.aggregator.Build(ctx, result.Rows)
	span.SetAttributes(attribute.Int("dashboard.rows", dash.RowCount))

	return &DashboardResponse{Stages: result.Stages, Dashboard: dash}, nil
}

// Filters returns the stage options for a selection.
func (s *DashboardService) Filters(ctx context.Context, sel filters.Selection) (*FiltersResponse, error) {
	result, err := s.filter(ctx, sel)
	if err != nil {
		return nil, err
	}
	return &FiltersResponse{Stages: result.Stages, RowCount: len(result.Rows)}, nil
}

// View computes a single named view.
func (s *DashboardService) View(ctx context.Context, name string, sel filters.Selection) (v interface{}, err error) {
	ctx, span := s.tracer.start(ctx, "view", attribute.String("view.name", name))
	defer func() { s.tracer.end(span, err) }()

	result, err := s.filter(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.aggregator.View(ctx, name, result.Rows)
}

// Sales returns one page of filtered rows. Page numbers start at 1; pages
// past the end are empty.
func (s *DashboardService) Sales(ctx context.Context, sel filters.Selection, page, pageSize int) (*SalesPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	result, err := s.filter(ctx, sel)
	if err != nil {
		return nil, err
	}

	total := len(result.Rows)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &SalesPage{
		Items:      result.Rows[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Export writes the filtered rows in the given format and returns the
// number of rows written.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, format string, sel filters.Selection) (n int, err error) {
	ctx, span := s.tracer.start(ctx, "export", attribute.String("export.format", format))
	defer func() { s.tracer.end(span, err) }()

	result, err := s.filter(ctx, sel)
	if err != nil {
		return 0, err
	}

	var dash *domain.Dashboard
	if format == exporter.FormatXLSX {
		dash = s.aggregator.Build(ctx, result.Rows)
	}
	if err := s.exporter.Write(ctx, w, format, result.Rows, dash); err != nil {
		return 0, err
	}
	return len(result.Rows), nil
}

// Info describes the loaded dataset, loading it if needed.
func (s *DashboardService) Info(ctx context.Context) (domain.DatasetInfo, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// CacheStats reports loader hit/miss counters and the identity of the
// cached file.
func (s *DashboardService) CacheStats() map[string]interface{} {
	stats := s.loader.GetStats()
	if id, ok := s.loader.Identity(s.path); ok {
		stats["file"] = map[string]interface{}{
			"path":        id.Path,
			"size_bytes":  id.Size,
			"modified_at": id.ModTime.Format(time.RFC3339),
		}
	}
	return stats
}

// Loaded reports the cached dataset without touching the file.
func (s *DashboardService) Loaded() (domain.DatasetInfo, bool) {
	ds, ok := s.loader.Peek(s.path)
	if !ok {
		return domain.DatasetInfo{}, false
	}
	return ds.Info(), true
}

// Reload re-reads the dataset when the file changed, or always when force
// is set. Clients are notified only when a new dataset was read. On
// failure the previous dataset keeps being served.
func (s *DashboardService) Reload(ctx context.Context, force bool) (res *ReloadResult, err error) {
	ctx, span := s.tracer.start(ctx, "reload", attribute.Bool("reload.force", force))
	defer func() { s.tracer.end(span, err) }()

	start := time.Now()
	ds, reloaded, err := s.loader.Reload(ctx, s.path, force)
	if err != nil {
		s.logger.ErrorContext(ctx, "dataset reload failed",
			slog.String("path", s.path),
			slog.Bool("force", force),
			slog.Bool("previous_kept", ds != nil),
			slog.String("error", err.Error()),
		)
		if ds == nil {
			return nil, unavailable(err)
		}
		return nil, err
	}

	info := ds.Info()
	s.logger.InfoContext(ctx, "dataset reload finished",
		slog.Bool("reloaded", reloaded),
		slog.Int("rows", info.Rows),
		slog.Duration("duration", time.Since(start)),
	)

	if reloaded && s.notifier != nil {
		s.notifier.Broadcast(EventDatasetReloaded, map[string]interface{}{
			"path":      info.Path,
			"rows":      info.Rows,
			"loaded_at": info.LoadedAt,
			"coerced":   info.Coerced,
		})
	}

	return &ReloadResult{Reloaded: reloaded, Dataset: info}, nil
}

func (s *DashboardService) filter(ctx context.Context, sel filters.Selection) (*filters.Result, error) {
	if err := s.pipeline.Validate(sel); err != nil {
		return nil, err
	}
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.pipeline.Run(ctx, ds.Sales(), sel), nil
}

// load returns the cached dataset or reads it. A failed read with nothing
// cached is reported as DATASET_UNAVAILABLE.
func (s *DashboardService) load(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return nil, unavailable(err)
	}
	return ds, nil
}

func unavailable(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.DatasetLoadError(err)
	}
	return err
}
