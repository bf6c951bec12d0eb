package filters

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "acaipulse/internal/errors"
	"acaipulse/pkg/contracts/domain"
)

// SelectionRequest is the wire form of a Selection, read from query
// parameters or CLI flags.
type SelectionRequest struct {
	Stores        []string `json:"store" validate:"omitempty,dive,required,max=200"`
	Neighborhoods []string `json:"neighborhood" validate:"omitempty,dive,required,max=200"`
	Weekdays      []string `json:"weekday" validate:"omitempty,dive,weekday"`
	Products      []string `json:"product" validate:"omitempty,dive,required,max=200"`
	Categories    []string `json:"category" validate:"omitempty,dive,required,max=200"`
	Channels      []string `json:"channel" validate:"omitempty,dive,required,max=200"`
	Payments      []string `json:"payment" validate:"omitempty,dive,required,max=200"`
	CustomerTypes []string `json:"customer_type" validate:"omitempty,dive,required,max=200"`
	Weather       []string `json:"weather" validate:"omitempty,dive,required,max=200"`

	DateFrom string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
	HourFrom string `json:"hour_from" validate:"omitempty,clock"`
	HourTo   string `json:"hour_to" validate:"omitempty,clock"`

	PromotionOnly string `json:"promotion_only" validate:"omitempty,boolean"`
}

// ParseQuery builds a request from URL query values. Each value of a
// repeated key is one selection; values are never split, since product
// and store names may contain commas. Empty values are dropped.
func ParseQuery(q url.Values) SelectionRequest {
	list := func(key string) []string {
		var out []string
		for _, v := range q[key] {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}

	return SelectionRequest{
		Stores:        list(StageStore),
		Neighborhoods: list(StageNeighborhood),
		Weekdays:      list(StageWeekday),
		Products:      list(StageProduct),
		Categories:    list(StageCategory),
		Channels:      list(StageChannel),
		Payments:      list(StagePayment),
		CustomerTypes: list(StageCustomerType),
		Weather:       list(StageWeather),
		DateFrom:      strings.TrimSpace(q.Get("date_from")),
		DateTo:        strings.TrimSpace(q.Get("date_to")),
		HourFrom:      strings.TrimSpace(q.Get("hour_from")),
		HourTo:        strings.TrimSpace(q.Get("hour_to")),
		PromotionOnly: strings.TrimSpace(q.Get("promotion_only")),
	}
}

// ParseClockBound reads a time-of-day bound. A bare hour ("14") means the
// start of that hour for a lower bound and its last second for an upper
// bound.
func ParseClockBound(s string, upper bool) (domain.ClockTime, error) {
	if h, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if h < 0 || h > 23 {
			return 0, apperrors.NewAppValidationError("hour must be between 0 and 23")
		}
		if upper {
			return domain.NewClockTime(h, 59, 59), nil
		}
		return domain.NewClockTime(h, 0, 0), nil
	}
	return domain.ParseClock(s)
}

// IsClock reports whether s is a valid clock bound.
func IsClock(s string) bool {
	_, err := ParseClockBound(s, false)
	return err == nil
}

// Selection converts the request, checking that ranges are ordered.
func (r SelectionRequest) Selection() (Selection, error) {
	sel := Selection{Values: make(map[string][]string)}

	if r.PromotionOnly != "" {
		promo, err := strconv.ParseBool(r.PromotionOnly)
		if err != nil {
			return Selection{}, apperrors.ErrValidation("promotion_only", "promotion_only must be true or false")
		}
		sel.PromotionOnly = promo
	}

	for id, values := range map[string][]string{
		StageStore:        r.Stores,
		StageNeighborhood: r.Neighborhoods,
		StageWeekday:      canonicalWeekdays(r.Weekdays),
		StageProduct:      r.Products,
		StageCategory:     r.Categories,
		StageChannel:      r.Channels,
		StagePayment:      r.Payments,
		StageCustomerType: r.CustomerTypes,
		StageWeather:      r.Weather,
	} {
		if len(values) > 0 {
			sel.Values[id] = values
		}
	}

	if r.DateFrom != "" {
		d, err := time.Parse(dateLayout, r.DateFrom)
		if err != nil {
			return Selection{}, apperrors.ErrValidation("date_from", "date_from must be YYYY-MM-DD")
		}
		sel.DateFrom = &d
	}
	if r.DateTo != "" {
		d, err := time.Parse(dateLayout, r.DateTo)
		if err != nil {
			return Selection{}, apperrors.ErrValidation("date_to", "date_to must be YYYY-MM-DD")
		}
		sel.DateTo = &d
	}
	if sel.DateFrom != nil && sel.DateTo != nil && sel.DateFrom.After(*sel.DateTo) {
		return Selection{}, apperrors.ErrValidation("date_from", "date_from must not be after date_to")
	}

	if r.HourFrom != "" {
		c, err := ParseClockBound(r.HourFrom, false)
		if err != nil {
			return Selection{}, apperrors.ErrValidation("hour_from", "hour_from must be HH:MM or an hour 0-23")
		}
		sel.TimeFrom = &c
	}
	if r.HourTo != "" {
		c, err := ParseClockBound(r.HourTo, true)
		if err != nil {
			return Selection{}, apperrors.ErrValidation("hour_to", "hour_to must be HH:MM or an hour 0-23")
		}
		sel.TimeTo = &c
	}
	if sel.TimeFrom != nil && sel.TimeTo != nil && *sel.TimeFrom > *sel.TimeTo {
		return Selection{}, apperrors.ErrValidation("hour_from", "hour_from must not be after hour_to")
	}

	return sel, nil
}

// canonicalWeekdays maps case-insensitive weekday names onto the
// vocabulary spelling.
func canonicalWeekdays(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if i := domain.WeekdayPosition(v); i >= 0 {
			out = append(out, domain.WeekdayNames[i])
		} else {
			out = append(out, v)
		}
	}
	return out
}

// IsWeekday reports whether s names a weekday.
func IsWeekday(s string) bool {
	return domain.WeekdayPosition(s) >= 0
}
