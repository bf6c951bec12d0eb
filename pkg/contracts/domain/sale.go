package domain

import (
	"time"
)

// Sale is one normalised row of the sales dataset.
type Sale struct {
	Store        string    `json:"store"`
	Neighborhood string    `json:"neighborhood"`
	Date         time.Time `json:"date"`
	OrderTime    ClockTime `json:"order_time"`
	Product      string    `json:"product"`
	Category     string    `json:"category"`
	Channel      string    `json:"channel"`
	Delivery     string    `json:"delivery"`
	Payment      string    `json:"payment"`
	CustomerType string    `json:"customer_type"`
	Promotion    bool      `json:"promotion"`
	Weather      string    `json:"weather"`

	Temperature    float64 `json:"temperature"`
	HasTemperature bool    `json:"has_temperature"`

	Quantity       float64 `json:"quantity"`
	SaleTotal      float64 `json:"sale_total"`
	GrossProfit    float64 `json:"gross_profit"`
	FinalProfit    float64 `json:"final_profit"`
	MarginPct      float64 `json:"margin_pct"`
	ServiceMinutes float64 `json:"service_minutes"`
	Rating         float64 `json:"rating"`

	// Derived at load time
	YearMonth string `json:"year_month"`
	Weekday   string `json:"weekday"`
	MonthName string `json:"month_name"`
	Hour      int    `json:"hour"`
}

// Rated reports whether the sale carries a customer rating.
func (s Sale) Rated() bool {
	return s.Rating > 0
}

// DatasetInfo describes the currently loaded dataset.
type DatasetInfo struct {
	Path      string         `json:"path"`
	Format    string         `json:"format"`
	Rows      int            `json:"rows"`
	SizeBytes int64          `json:"size_bytes"`
	ModTime   time.Time      `json:"mod_time"`
	LoadedAt  time.Time      `json:"loaded_at"`
	Coerced   map[string]int `json:"coerced"`
	DateFrom  time.Time      `json:"date_from"`
	DateTo    time.Time      `json:"date_to"`
}
