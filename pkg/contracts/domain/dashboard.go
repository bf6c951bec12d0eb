package domain

import "time"

// View names accepted by the views endpoint.
const (
	ViewTimeSeries           = "time_series"
	ViewWeekday              = "weekday"
	ViewTopProducts          = "top_products"
	ViewChannelDelivery      = "channel_delivery"
	ViewHourly               = "hourly"
	ViewRatingByNeighborhood = "rating_by_neighborhood"
	ViewPromotion            = "promotion"
	ViewProfitByCategory     = "profit_by_category"
	ViewSalesVsTemperature   = "sales_vs_temperature"
	ViewHeadline             = "headline"
)

// ViewNames lists every aggregation view in display order.
var ViewNames = []string{
	ViewHeadline,
	ViewTimeSeries,
	ViewWeekday,
	ViewTopProducts,
	ViewChannelDelivery,
	ViewHourly,
	ViewRatingByNeighborhood,
	ViewPromotion,
	ViewProfitByCategory,
	ViewSalesVsTemperature,
}

// NoRatingMessage is shown when the filtered set has no rated sales.
const NoRatingMessage = "Nenhum dado de avaliação para o bairro selecionado."

// Headline holds the summary cards.
type Headline struct {
	Count                 int     `json:"count"`
	TotalSales            float64 `json:"total_sales"`
	TotalProfit           float64 `json:"total_profit"`
	AverageTicket         float64 `json:"average_ticket"`
	AverageMargin         float64 `json:"average_margin"`
	AverageServiceMinutes float64 `json:"average_service_minutes"`
	AverageRating         float64 `json:"average_rating"`
}

// FormattedHeadline is the locale-rendered form of Headline.
type FormattedHeadline struct {
	TotalSales     string `json:"total_sales"`
	TotalProfit    string `json:"total_profit"`
	AverageTicket  string `json:"average_ticket"`
	AverageMargin  string `json:"average_margin"`
	AverageService string `json:"average_service"`
	AverageRating  string `json:"average_rating"`
}

// DatePoint is one day of the sales/profit time series.
type DatePoint struct {
	Date   time.Time `json:"date"`
	Sales  float64   `json:"sales"`
	Profit float64   `json:"profit"`
}

// KeyValue is a single grouped total.
type KeyValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// WeekdayValue is a weekday total; Index is Monday-first.
type WeekdayValue struct {
	Index   int     `json:"index"`
	Weekday string  `json:"weekday"`
	Value   float64 `json:"value"`
}

// HourValue is an hour-of-day total.
type HourValue struct {
	Hour  int     `json:"hour"`
	Value float64 `json:"value"`
}

// ChannelDelivery groups sales by sales channel and by delivery mode.
type ChannelDelivery struct {
	Channel  []KeyValue `json:"channel"`
	Delivery []KeyValue `json:"delivery"`
}

// RatingView holds the mean rating per neighborhood.
type RatingView struct {
	NoData  bool       `json:"no_data"`
	Message string     `json:"message,omitempty"`
	Items   []KeyValue `json:"items"`
}

// PromotionBucket is the sales total for promoted or regular sales.
type PromotionBucket struct {
	Promoted bool    `json:"promoted"`
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
}

// TemperaturePoint is total sales at one observed temperature.
type TemperaturePoint struct {
	Temperature float64 `json:"temperature"`
	Sales       float64 `json:"sales"`
	Fitted      float64 `json:"fitted"`
}

// TrendLine is an ordinary least squares fit.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// TemperatureView relates daily temperature to sales.
type TemperatureView struct {
	Points []TemperaturePoint `json:"points"`
	Trend  *TrendLine         `json:"trend,omitempty"`
}

// Views bundles every aggregation view.
type Views struct {
	TimeSeries           []DatePoint       `json:"time_series"`
	Weekday              []WeekdayValue    `json:"weekday"`
	TopProducts          []KeyValue        `json:"top_products"`
	ChannelDelivery      ChannelDelivery   `json:"channel_delivery"`
	Hourly               []HourValue       `json:"hourly"`
	RatingByNeighborhood RatingView        `json:"rating_by_neighborhood"`
	Promotion            []PromotionBucket `json:"promotion"`
	ProfitByCategory     []KeyValue        `json:"profit_by_category"`
	SalesVsTemperature   TemperatureView   `json:"sales_vs_temperature"`
}

// Dashboard is the full computed payload for one filter selection.
type Dashboard struct {
	RowCount  int                `json:"row_count"`
	Headline  Headline           `json:"headline"`
	Formatted *FormattedHeadline `json:"formatted,omitempty"`
	Views     Views              `json:"views"`
}
