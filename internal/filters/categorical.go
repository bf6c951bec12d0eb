package filters

import (
	"sort"

	"acaipulse/pkg/contracts/domain"
)

// CategoricalStage filters on membership in a set of string values.
type CategoricalStage struct {
	id    string
	label string
	value func(domain.Sale) string
	less  func(a, b string) bool
}

// NewCategoricalStage creates a stage whose options sort ascending.
func NewCategoricalStage(id, label string, value func(domain.Sale) string) *CategoricalStage {
	return &CategoricalStage{
		id:    id,
		label: label,
		value: value,
		less:  func(a, b string) bool { return a < b },
	}
}

// NewWeekdayStage creates the weekday stage; options run Monday to Sunday.
func NewWeekdayStage(id, label string) *CategoricalStage {
	return &CategoricalStage{
		id:    id,
		label: label,
		value: func(s domain.Sale) string { return s.Weekday },
		less: func(a, b string) bool {
			return domain.WeekdayPosition(a) < domain.WeekdayPosition(b)
		},
	}
}

func (s *CategoricalStage) ID() string    { return s.id }
func (s *CategoricalStage) Label() string { return s.label }
func (s *CategoricalStage) Kind() Kind    { return KindCategorical }

// Options returns the distinct values present in rows.
func (s *CategoricalStage) Options(rows []domain.Sale) Options {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, row := range rows {
		v := s.value(row)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.SliceStable(values, func(i, j int) bool { return s.less(values[i], values[j]) })

	return Options{Values: values, visible: len(values) > 1}
}

// Apply keeps rows whose value was selected. Requested values that are not
// among the options are ignored; if none remain the result is empty.
func (s *CategoricalStage) Apply(rows []domain.Sale, sel Selection, opts Options) ([]domain.Sale, Applied) {
	requested, ok := sel.ValuesFor(s.id)
	if !opts.visible || !ok {
		return rows, Applied{Values: opts.Values}
	}

	wanted := make(map[string]struct{}, len(requested))
	for _, v := range requested {
		wanted[v] = struct{}{}
	}
	effective := make([]string, 0, len(requested))
	for _, v := range opts.Values {
		if _, ok := wanted[v]; ok {
			effective = append(effective, v)
		}
	}
	if len(effective) == len(opts.Values) {
		return rows, Applied{Values: effective}
	}

	keep := make(map[string]struct{}, len(effective))
	for _, v := range effective {
		keep[v] = struct{}{}
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		if _, ok := keep[s.value(row)]; ok {
			out = append(out, row)
		}
	}
	return out, Applied{Values: effective}
}
