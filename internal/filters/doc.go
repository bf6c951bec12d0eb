// Package filters implements the cascading filter pipeline.
//
// Stages run in a fixed order. Each stage computes its options from the
// rows left by the previous stage, applies the caller's selection and
// hands the narrowed rows on. A stage with at most one option is hidden
// and passes its input through unchanged. Stages never mutate rows.
package filters
