package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber parses a number written in loc. When the decimal separator
// occurs, thousands separators are stripped first ("1.234,50" in pt-BR).
// Without a decimal separator the value is read as plain digits, so files
// that already use a dot decimal ("12.5") still parse.
func ParseNumber(s string, loc Locale) (float64, error) {
	raw := s
	s = strings.TrimSpace(s)
	if loc.CurrencySymbol != "" {
		s = strings.TrimSpace(strings.TrimPrefix(s, loc.CurrencySymbol))
	}
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	if loc.DecimalSep != "" && strings.Contains(s, loc.DecimalSep) {
		if loc.ThousandsSep != "" {
			s = strings.ReplaceAll(s, loc.ThousandsSep, "")
		}
		s = strings.Replace(s, loc.DecimalSep, ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("number %q out of range", raw)
	}
	return f, nil
}
