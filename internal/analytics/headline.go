package analytics

import (
	"github.com/shopspring/decimal"

	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// ComputeHeadline returns the summary cards. Money totals are summed
// exactly; the average ticket is total sales divided by the row count.
func ComputeHeadline(rows []domain.Sale) domain.Headline {
	if len(rows) == 0 {
		return domain.Headline{}
	}

	sales := sumOf(rows, func(s domain.Sale) float64 { return s.SaleTotal })
	profit := sumOf(rows, func(s domain.Sale) float64 { return s.FinalProfit })
	ticket := sales.Div(decimal.NewFromInt(int64(len(rows))))

	return domain.Headline{
		Count:                 len(rows),
		TotalSales:            toFloat(sales),
		TotalProfit:           toFloat(profit),
		AverageTicket:         toFloat(ticket),
		AverageMargin:         meanOf(rows, func(s domain.Sale) float64 { return s.MarginPct }),
		AverageServiceMinutes: meanOf(rows, func(s domain.Sale) float64 { return s.ServiceMinutes }),
		AverageRating:         meanOf(rows, func(s domain.Sale) float64 { return s.Rating }),
	}
}

// FormatHeadline renders the headline for display in loc.
func FormatHeadline(h domain.Headline, loc format.Locale) *domain.FormattedHeadline {
	return &domain.FormattedHeadline{
		TotalSales:     format.Currency(h.TotalSales, loc),
		TotalProfit:    format.Currency(h.TotalProfit, loc),
		AverageTicket:  format.Currency(h.AverageTicket, loc),
		AverageMargin:  format.Percent(h.AverageMargin, loc),
		AverageService: format.Minutes(h.AverageServiceMinutes, loc),
		AverageRating:  format.Rating(h.AverageRating, loc),
	}
}
