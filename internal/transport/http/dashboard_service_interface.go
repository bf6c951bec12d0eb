package http

import (
	"context"
	"io"

	"acaipulse/internal/filters"
	"acaipulse/internal/services"
	"acaipulse/pkg/contracts/domain"
)

// DashboardService is what the dashboard handler needs from the service
// layer.
type DashboardService interface {
	Dashboard(ctx context.Context, sel filters.Selection) (*services.DashboardResponse, error)
	Filters(ctx context.Context, sel filters.Selection) (*services.FiltersResponse, error)
	View(ctx context.Context, name string, sel filters.Selection) (interface{}, error)
	Sales(ctx context.Context, sel filters.Selection, page, pageSize int) (*services.SalesPage, error)
	Export(ctx context.Context, w io.Writer, format string, sel filters.Selection) (int, error)
	Info(ctx context.Context) (domain.DatasetInfo, error)
	Reload(ctx context.Context, force bool) (*services.ReloadResult, error)
}
