// Package shared holds helpers used across the dashboard packages.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on structured logs
//   - sale fixtures built with functional options
//   - writers for CSV dataset fixtures in the source file layout
package shared
