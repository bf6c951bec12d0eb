package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "acaipulse/internal/errors"
	"acaipulse/internal/format"
	"acaipulse/pkg/contracts/domain"
)

// Options control how a source file is read.
type Options struct {
	// Delimiter separates CSV fields. Defaults to ','.
	Delimiter rune
	// Locale is used to read decimal numbers.
	Locale format.Locale
	// Sheet selects the XLSX worksheet; empty means the first one.
	Sheet string
}

// DefaultOptions reads comma separated files with pt-BR decimals.
func DefaultOptions() Options {
	return Options{Delimiter: ',', Locale: format.PtBR}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
}

// ParseDate parses a sale date and truncates it to the calendar day.
// Serial day numbers are only accepted when spreadsheet is set, since a bare
// number in a text file is not a date.
func ParseDate(s string, spreadsheet bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	if !spreadsheet {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseOrderTime parses a time of day. Day fractions are accepted only
// when spreadsheet is set.
func ParseOrderTime(s string, spreadsheet bool) (domain.ClockTime, error) {
	if c, err := domain.ParseClock(s); err == nil {
		return c, nil
	}
	if !spreadsheet {
		return 0, fmt.Errorf("invalid order time %q", s)
	}
	if frac, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && frac >= 0 && frac < 1 {
		return domain.ClockTime(int(math.Round(frac*86400)) % 86400), nil
	}
	return 0, fmt.Errorf("invalid order time %q", s)
}

// ParseBool reads the promotion flag. The second result is false when the
// value was not recognised.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "sim", "s", "yes", "y", "verdadeiro":
		return true, true
	case "false", "0", "não", "nao", "n", "no", "falso":
		return false, true
	}
	return false, false
}

// normalize converts raw records into sales. Date and time failures abort;
// numeric failures become NaN here and are zero-filled by fillMetricGaps.
func normalize(ctx context.Context, table *rawTable, opts Options) ([]domain.Sale, map[string]int, error) {
	cols := newColumnIndex(table.header)
	for _, required := range RequiredColumns {
		if !cols.has(required) {
			return nil, nil, apperrors.NewParsingError(fmt.Sprintf("missing required column %q", required), nil).
				WithContext("column", required)
		}
	}

	coerced := make(map[string]int)
	number := func(record []string, col string) float64 {
		v, err := format.ParseNumber(cols.cell(record, col), opts.Locale)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	spreadsheet := table.format == FormatXLSX
	sales := make([]domain.Sale, 0, len(table.records))
	for i, record := range table.records {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		line := table.lines[i]

		rawDate := cols.cell(record, ColDate)
		date, err := ParseDate(rawDate, spreadsheet)
		if err != nil {
			return nil, nil, apperrors.NewParsingError(fmt.Sprintf("invalid date on line %d", line), err).
				WithContext("line", line).
				WithContext("column", ColDate).
				WithContext("value", rawDate)
		}

		rawTime := cols.cell(record, ColOrderTime)
		clock, err := ParseOrderTime(rawTime, spreadsheet)
		if err != nil {
			return nil, nil, apperrors.NewParsingError(fmt.Sprintf("invalid order time on line %d", line), err).
				WithContext("line", line).
				WithContext("column", ColOrderTime).
				WithContext("value", rawTime)
		}

		promotion, ok := ParseBool(cols.cell(record, ColPromotion))
		if !ok && cols.has(ColPromotion) {
			coerced[ColPromotion]++
		}

		temperature := number(record, ColTemperature)
		hasTemperature := !math.IsNaN(temperature)
		if !hasTemperature {
			temperature = 0
		}

		sales = append(sales, domain.Sale{
			Store:          cols.cell(record, ColStore),
			Neighborhood:   cols.cell(record, ColNeighborhood),
			Date:           date,
			OrderTime:      clock,
			Product:        cols.cell(record, ColProduct),
			Category:       cols.cell(record, ColCategory),
			Channel:        cols.cell(record, ColChannel),
			Delivery:       cols.cell(record, ColDelivery),
			Payment:        cols.cell(record, ColPayment),
			CustomerType:   cols.cell(record, ColCustomerType),
			Promotion:      promotion,
			Weather:        cols.cell(record, ColWeather),
			Temperature:    temperature,
			HasTemperature: hasTemperature,
			Quantity:       number(record, ColQuantity),
			SaleTotal:      number(record, ColSaleTotal),
			GrossProfit:    number(record, ColGrossProfit),
			FinalProfit:    number(record, ColFinalProfit),
			MarginPct:      number(record, ColMargin),
			ServiceMinutes: number(record, ColServiceMinutes),
			Rating:         number(record, ColRating),
			YearMonth:      date.Format("2006-01"),
			Weekday:        domain.WeekdayName(date.Weekday()),
			MonthName:      domain.MonthName(date.Month()),
			Hour:           clock.Hour(),
		})
	}

	for col, n := range fillMetricGaps(sales) {
		if cols.has(col) {
			coerced[col] += n
		}
	}
	return sales, coerced, nil
}

// fillMetricGaps replaces NaN metric values with 0 and reports how many
// cells were replaced per column.
func fillMetricGaps(sales []domain.Sale) map[string]int {
	counts := make(map[string]int)
	for i := range sales {
		s := &sales[i]
		for _, m := range []struct {
			col string
			v   *float64
		}{
			{ColQuantity, &s.Quantity},
			{ColSaleTotal, &s.SaleTotal},
			{ColGrossProfit, &s.GrossProfit},
			{ColFinalProfit, &s.FinalProfit},
			{ColMargin, &s.MarginPct},
			{ColServiceMinutes, &s.ServiceMinutes},
			{ColRating, &s.Rating},
		} {
			if math.IsNaN(*m.v) || math.IsInf(*m.v, 0) {
				*m.v = 0
				counts[m.col]++
			}
		}
	}
	return counts
}
