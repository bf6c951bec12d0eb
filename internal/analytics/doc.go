// Package analytics computes the headline metrics and aggregation views
// over a filtered set of sales. Every function accepts an empty slice and
// returns zero values or empty views for it.
package analytics
