// Package format renders and parses numbers for a given locale.
//
// All functions are pure: the locale is always passed in, nothing is read
// from the process environment.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Locale describes how numbers and money are written.
type Locale struct {
	CurrencySymbol string
	DecimalSep     string
	ThousandsSep   string
}

// PtBR is the Brazilian Portuguese locale ("R$ 1.234,56").
var PtBR = Locale{CurrencySymbol: "R$", DecimalSep: ",", ThousandsSep: "."}

// EnUS is the United States locale ("$ 1,234.56").
var EnUS = Locale{CurrencySymbol: "$", DecimalSep: ".", ThousandsSep: ","}

// Validate checks that separators are set and distinct.
func (l Locale) Validate() error {
	if l.DecimalSep == "" {
		return fmt.Errorf("decimal separator must not be empty")
	}
	if l.DecimalSep == l.ThousandsSep {
		return fmt.Errorf("decimal and thousands separators must differ, both are %q", l.DecimalSep)
	}
	return nil
}

// Decimal converts a float to a decimal, mapping NaN and infinities to zero.
func Decimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Number formats v with the given number of decimal places, rounding half
// away from zero, and groups thousands.
func Number(v float64, places int32, loc Locale) string {
	fixed := Decimal(v).StringFixed(places)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative && strings.Trim(fixed, "0.") != "" {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(intPart, loc.ThousandsSep))
	if places > 0 {
		b.WriteString(loc.DecimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

// Currency formats v as money with two decimal places.
func Currency(v float64, loc Locale) string {
	n := Number(v, 2, loc)
	if strings.HasPrefix(n, "-") {
		return "-" + loc.CurrencySymbol + " " + n[1:]
	}
	return loc.CurrencySymbol + " " + n
}

// Percent formats a value already expressed in percent points.
func Percent(v float64, loc Locale) string {
	return Number(v, 2, loc) + "%"
}

// Minutes formats a duration in minutes.
func Minutes(v float64, loc Locale) string {
	return Number(v, 2, loc) + " min"
}

// Rating formats an average rating with a star suffix.
func Rating(v float64, loc Locale) string {
	return Number(v, 2, loc) + " ⭐"
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
