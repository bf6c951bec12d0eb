package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// Config tunes the aggregator.
type Config struct {
	// TopN bounds the product ranking. Defaults to 10.
	TopN int
	// Locale renders the formatted headline. A zero locale disables it.
	Locale format.Locale
}

// Aggregator builds dashboards from filtered rows.
type Aggregator struct {
	logger *slog.Logger
	config Config
}

// NewAggregator creates an aggregator. logger may be nil.
func NewAggregator(logger *slog.Logger, config Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopN <= 0 {
		config.TopN = DefaultTopN
	}
	return &Aggregator{
		logger: logger.With(slog.String("component", "aggregator")),
		config: config,
	}
}

// Build computes the headline and every view.
func (a *Aggregator) Build(ctx context.Context, rows []domain.Sale) *domain.Dashboard {
	start := time.Now()

	headline := ComputeHeadline(rows)
	dash := &domain.Dashboard{
		RowCount: len(rows),
		Headline: headline,
		Views: domain.Views{
			TimeSeries:           TimeSeries(rows),
			Weekday:              WeekdayTotals(rows),
			TopProducts:          TopProducts(rows, a.config.TopN),
			ChannelDelivery:      ChannelAndDelivery(rows),
			Hourly:               Hourly(rows),
			RatingByNeighborhood: RatingByNeighborhood(rows),
			Promotion:            PromotionSplit(rows),
			ProfitByCategory:     ProfitByCategory(rows),
			SalesVsTemperature:   SalesVsTemperature(rows),
		},
	}
	if a.config.Locale.DecimalSep != "" {
		dash.Formatted = FormatHeadline(headline, a.config.Locale)
	}

	a.logger.DebugContext(ctx, "dashboard built",
		slog.Int("rows", len(rows)),
		slog.Duration("duration", time.Since(start)),
	)
	return dash
}

// View computes a single named view.
func (a *Aggregator) View(ctx context.Context, name string, rows []domain.Sale) (interface{}, error) {
	switch name {
	case domain.ViewHeadline:
		h := ComputeHeadline(rows)
		if a.config.Locale.DecimalSep == "" {
			return h, nil
		}
		return struct {
			domain.Headline
			Formatted *domain.FormattedHeadline `json:"formatted"`
		}{h, FormatHeadline(h, a.config.Locale)}, nil
	case domain.ViewTimeSeries:
		return TimeSeries(rows), nil
	case domain.ViewWeekday:
		return WeekdayTotals(rows), nil
	case domain.ViewTopProducts:
		return TopProducts(rows, a.config.TopN), nil
	case domain.ViewChannelDelivery:
		return ChannelAndDelivery(rows), nil
	case domain.ViewHourly:
		return Hourly(rows), nil
	case domain.ViewRatingByNeighborhood:
		return RatingByNeighborhood(rows), nil
	case domain.ViewPromotion:
		return PromotionSplit(rows), nil
	case domain.ViewProfitByCategory:
		return ProfitByCategory(rows), nil
	case domain.ViewSalesVsTemperature:
		return SalesVsTemperature(rows), nil
	}

	a.logger.WarnContext(ctx, "unknown view requested", slog.String("view", name))
	return nil, apperrors.NewWithDetails(apperrors.ErrViewNotFound.StatusCode, apperrors.ErrViewNotFound.ErrorCode,
		fmt.Sprintf("view %q not found", name), map[string]interface{}{"available": domain.ViewNames})
}
