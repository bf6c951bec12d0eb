package filters

import (
	"time"

	"acaipulse/pkg/contracts/domain"
)

// Kind tells a client which control a stage needs.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindDateRange   Kind = "date_range"
	KindClockRange  Kind = "clock_range"
	KindToggle      Kind = "toggle"
)

// Stage identifiers in pipeline order.
const (
	StageStore        = "store"
	StageNeighborhood = "neighborhood"
	StageDate         = "date"
	StageWeekday      = "weekday"
	StageHour         = "hour"
	StageProduct      = "product"
	StageCategory     = "category"
	StageChannel      = "channel"
	StagePayment      = "payment"
	StageCustomerType = "customer_type"
	StagePromotion    = "promotion"
	StageWeather      = "weather"
)

// Options are the choices a stage offers for the current working rows.
type Options struct {
	Values []string `json:"values,omitempty"`
	Min    string   `json:"min,omitempty"`
	Max    string   `json:"max,omitempty"`

	visible  bool
	dateMin  time.Time
	dateMax  time.Time
	clockMin domain.ClockTime
	clockMax domain.ClockTime
}

// Visible reports whether the stage has anything to choose from.
func (o Options) Visible() bool {
	return o.visible
}

// Applied is the effective selection a stage used.
type Applied struct {
	Values  []string `json:"values,omitempty"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Enabled bool     `json:"enabled,omitempty"`
}

// Stage is one step of the filter pipeline.
type Stage interface {
	ID() string
	Label() string
	Kind() Kind
	Options(rows []domain.Sale) Options
	Apply(rows []domain.Sale, sel Selection, opts Options) ([]domain.Sale, Applied)
}

// Selection holds what the caller picked for every stage. Zero values
// mean "everything".
type Selection struct {
	// Values maps categorical stage ids to the chosen values. A missing
	// key selects all options.
	Values map[string][]string

	DateFrom *time.Time
	DateTo   *time.Time
	TimeFrom *domain.ClockTime
	TimeTo   *domain.ClockTime

	PromotionOnly bool
}

// ValuesFor returns the chosen values for a categorical stage.
func (s Selection) ValuesFor(stageID string) ([]string, bool) {
	v, ok := s.Values[stageID]
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v, true
}

// With returns a copy of s with values set for a categorical stage.
func (s Selection) With(stageID string, values ...string) Selection {
	next := s
	next.Values = make(map[string][]string, len(s.Values)+1)
	for k, v := range s.Values {
		next.Values[k] = v
	}
	next.Values[stageID] = values
	return next
}
