package exporter

import (
	"strconv"

	"acaipulse/internal/dataset"
	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// Derived columns appended after the source columns.
const (
	ColYearMonth = "Ano_Mes"
	ColWeekday   = "Dia_Semana"
	ColMonthName = "Mes"
	ColHour      = "Hora"
)

// SaleHeaders returns the export header: the source columns in file order
// followed by the derived calendar columns.
func SaleHeaders() []string {
	return []string{
		dataset.ColStore,
		dataset.ColNeighborhood,
		dataset.ColDate,
		dataset.ColOrderTime,
		dataset.ColProduct,
		dataset.ColCategory,
		dataset.ColChannel,
		dataset.ColDelivery,
		dataset.ColPayment,
		dataset.ColCustomerType,
		dataset.ColPromotion,
		dataset.ColWeather,
		dataset.ColTemperature,
		dataset.ColQuantity,
		dataset.ColSaleTotal,
		dataset.ColGrossProfit,
		dataset.ColFinalProfit,
		dataset.ColMargin,
		dataset.ColServiceMinutes,
		dataset.ColRating,
		ColYearMonth,
		ColWeekday,
		ColMonthName,
		ColHour,
	}
}

// SaleRecord renders one sale as text cells matching SaleHeaders. Numbers
// use the locale decimal separator without grouping so the file can be
// loaded again.
func SaleRecord(s domain.Sale, loc format.Locale) []string {
	plain := format.Locale{DecimalSep: loc.DecimalSep}
	temperature := ""
	if s.HasTemperature {
		temperature = format.Number(s.Temperature, 1, plain)
	}
	return []string{
		s.Store,
		s.Neighborhood,
		s.Date.Format("2006-01-02"),
		s.OrderTime.String(),
		s.Product,
		s.Category,
		s.Channel,
		s.Delivery,
		s.Payment,
		s.CustomerType,
		formatBool(s.Promotion),
		s.Weather,
		temperature,
		formatFloat(s.Quantity, plain),
		format.Number(s.SaleTotal, 2, plain),
		format.Number(s.GrossProfit, 2, plain),
		format.Number(s.FinalProfit, 2, plain),
		format.Number(s.MarginPct, 2, plain),
		format.Number(s.ServiceMinutes, 2, plain),
		formatFloat(s.Rating, plain),
		s.YearMonth,
		s.Weekday,
		s.MonthName,
		strconv.Itoa(s.Hour),
	}
}

// formatFloat writes whole numbers without decimals and anything else with
// two places.
func formatFloat(f float64, loc format.Locale) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return format.Number(f, 2, loc)
}

// formatBool matches the spelling of the source files.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
