// Package app wires the dashboard service together and manages its
// lifecycle.
//
// New builds every component from a config.Config: the dataset loader,
// the filter pipeline, the aggregator, the exporter, the websocket hub and
// the HTTP router. Start optionally preloads the dataset, then serves.
// Run blocks until SIGINT or SIGTERM and shuts down in reverse order:
// HTTP server, websocket hub, then telemetry providers.
//
// Initialization errors are returned, never turned into os.Exit, so the
// command decides how to exit.
package app
