package filters

import (
	"time"

	"acaipulse/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// DateRangeStage keeps rows whose date falls inside an inclusive range.
type DateRangeStage struct {
	id    string
	label string
}

// NewDateRangeStage creates the date range stage.
func NewDateRangeStage(id, label string) *DateRangeStage {
	return &DateRangeStage{id: id, label: label}
}

func (s *DateRangeStage) ID() string    { return s.id }
func (s *DateRangeStage) Label() string { return s.label }
func (s *DateRangeStage) Kind() Kind    { return KindDateRange }

// Options returns the observed minimum and maximum date.
func (s *DateRangeStage) Options(rows []domain.Sale) Options {
	if len(rows) == 0 {
		return Options{}
	}
	lo, hi := rows[0].Date, rows[0].Date
	for _, row := range rows[1:] {
		if row.Date.Before(lo) {
			lo = row.Date
		}
		if row.Date.After(hi) {
			hi = row.Date
		}
	}
	return Options{
		Min:     lo.Format(dateLayout),
		Max:     hi.Format(dateLayout),
		visible: hi.After(lo),
		dateMin: lo,
		dateMax: hi,
	}
}

// Apply filters to [from, to]; unset bounds default to the observed range.
func (s *DateRangeStage) Apply(rows []domain.Sale, sel Selection, opts Options) ([]domain.Sale, Applied) {
	if !opts.visible {
		return rows, Applied{From: opts.Min, To: opts.Max}
	}

	from, to := opts.dateMin, opts.dateMax
	if sel.DateFrom != nil {
		from = truncateDay(*sel.DateFrom)
	}
	if sel.DateTo != nil {
		to = truncateDay(*sel.DateTo)
	}
	applied := Applied{From: from.Format(dateLayout), To: to.Format(dateLayout)}
	if !from.After(opts.dateMin) && !to.Before(opts.dateMax) {
		return rows, applied
	}

	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		if !row.Date.Before(from) && !row.Date.After(to) {
			out = append(out, row)
		}
	}
	return out, applied
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClockRangeStage keeps rows whose order time falls inside an inclusive
// time-of-day range.
type ClockRangeStage struct {
	id    string
	label string
}

// NewClockRangeStage creates the order time stage.
func NewClockRangeStage(id, label string) *ClockRangeStage {
	return &ClockRangeStage{id: id, label: label}
}

func (s *ClockRangeStage) ID() string    { return s.id }
func (s *ClockRangeStage) Label() string { return s.label }
func (s *ClockRangeStage) Kind() Kind    { return KindClockRange }

// Options returns the earliest and latest observed order time.
func (s *ClockRangeStage) Options(rows []domain.Sale) Options {
	if len(rows) == 0 {
		return Options{}
	}
	lo, hi := rows[0].OrderTime, rows[0].OrderTime
	for _, row := range rows[1:] {
		if row.OrderTime < lo {
			lo = row.OrderTime
		}
		if row.OrderTime > hi {
			hi = row.OrderTime
		}
	}
	return Options{
		Min:      lo.String(),
		Max:      hi.String(),
		visible:  hi > lo,
		clockMin: lo,
		clockMax: hi,
	}
}

// Apply filters to [from, to]; unset bounds default to the observed range.
func (s *ClockRangeStage) Apply(rows []domain.Sale, sel Selection, opts Options) ([]domain.Sale, Applied) {
	if !opts.visible {
		return rows, Applied{From: opts.Min, To: opts.Max}
	}

	from, to := opts.clockMin, opts.clockMax
	if sel.TimeFrom != nil {
		from = *sel.TimeFrom
	}
	if sel.TimeTo != nil {
		to = *sel.TimeTo
	}
	applied := Applied{From: from.String(), To: to.String()}
	if from <= opts.clockMin && to >= opts.clockMax {
		return rows, applied
	}

	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		if row.OrderTime >= from && row.OrderTime <= to {
			out = append(out, row)
		}
	}
	return out, applied
}
