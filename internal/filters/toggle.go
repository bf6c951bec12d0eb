package filters

import (
	"strconv"

	"acaipulse/pkg/contracts/domain"
)

// PromotionStage optionally restricts rows to promoted sales. It is only
// offered when both promoted and regular sales are present.
type PromotionStage struct {
	id    string
	label string
}

// NewPromotionStage creates the promotion toggle stage.
func NewPromotionStage(id, label string) *PromotionStage {
	return &PromotionStage{id: id, label: label}
}

func (s *PromotionStage) ID() string    { return s.id }
func (s *PromotionStage) Label() string { return s.label }
func (s *PromotionStage) Kind() Kind    { return KindToggle }

// Options lists the flag values present, "false" before "true".
func (s *PromotionStage) Options(rows []domain.Sale) Options {
	var hasFalse, hasTrue bool
	for _, row := range rows {
		if row.Promotion {
			hasTrue = true
		} else {
			hasFalse = true
		}
		if hasTrue && hasFalse {
			break
		}
	}

	values := make([]string, 0, 2)
	if hasFalse {
		values = append(values, strconv.FormatBool(false))
	}
	if hasTrue {
		values = append(values, strconv.FormatBool(true))
	}
	return Options{Values: values, visible: hasTrue && hasFalse}
}

// Apply keeps only promoted rows when the toggle is on.
func (s *PromotionStage) Apply(rows []domain.Sale, sel Selection, opts Options) ([]domain.Sale, Applied) {
	if !opts.visible || !sel.PromotionOnly {
		return rows, Applied{}
	}

	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		if row.Promotion {
			out = append(out, row)
		}
	}
	return out, Applied{Enabled: true}
}
