package filters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "acaipulse/internal/errors"
	"acaipulse/pkg/contracts/domain"
)

// StageResult reports what one stage offered and did.
type StageResult struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Kind    Kind    `json:"kind"`
	Visible bool    `json:"visible"`
	Options Options `json:"options"`
	Applied Applied `json:"applied"`
	RowsIn  int     `json:"rows_in"`
	RowsOut int     `json:"rows_out"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Rows   []domain.Sale `json:"-"`
	Stages []StageResult `json:"stages"`
}

// Recorder receives pipeline timings.
type Recorder interface {
	RecordPipelineRun(ctx context.Context, rowsIn, rowsOut int, duration time.Duration)
}

// Pipeline runs the registered stages in order.
type Pipeline struct {
	registry *Registry
	logger   *slog.Logger
	recorder Recorder
}

// NewPipeline creates a pipeline over registry. A nil registry uses the
// default dashboard stages; logger and recorder may be nil.
func NewPipeline(registry *Registry, logger *slog.Logger, recorder Recorder) *Pipeline {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry: registry,
		logger:   logger.With(slog.String("component", "filter_pipeline")),
		recorder: recorder,
	}
}

// Registry exposes the stage registry.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Validate rejects selection values keyed by a stage id the registry does
// not know, or by a stage that is not categorical.
func (p *Pipeline) Validate(sel Selection) error {
	for id := range sel.Values {
		if !p.registry.Has(id) {
			return apperrors.ErrValidation(id, fmt.Sprintf("unknown filter stage %q, expected one of: %s",
				id, strings.Join(p.registry.ListIDs(), ", ")))
		}
		if stage, _ := p.registry.Get(id); stage.Kind() != KindCategorical {
			return apperrors.ErrValidation(id, fmt.Sprintf("filter stage %q does not take a list of values", id))
		}
	}
	return nil
}

// Run narrows rows through every stage. Each stage sees only the rows left
// by its predecessors, so options cascade.
func (p *Pipeline) Run(ctx context.Context, rows []domain.Sale, sel Selection) *Result {
	start := time.Now()
	stages := p.registry.List()

	result := &Result{Stages: make([]StageResult, 0, len(stages))}
	working := rows
	for _, stage := range stages {
		opts := stage.Options(working)
		narrowed, applied := stage.Apply(working, sel, opts)

		result.Stages = append(result.Stages, StageResult{
			ID:      stage.ID(),
			Label:   stage.Label(),
			Kind:    stage.Kind(),
			Visible: opts.Visible(),
			Options: opts,
			Applied: applied,
			RowsIn:  len(working),
			RowsOut: len(narrowed),
		})
		working = narrowed
	}
	result.Rows = working

	duration := time.Since(start)
	if p.recorder != nil {
		p.recorder.RecordPipelineRun(ctx, len(rows), len(working), duration)
	}
	p.logger.DebugContext(ctx, "filter pipeline completed",
		slog.Int("stages", p.registry.Count()),
		slog.Int("rows_in", len(rows)),
		slog.Int("rows_out", len(working)),
		slog.Duration("duration", duration),
	)
	return result
}

// Stage returns the result for one stage id.
func (r *Result) Stage(id string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return StageResult{}, false
}
