package config

import "time"

// Application constants
const (
	AppName = "Açaí Pulse"

	// Dataset
	DefaultDatasetFile   = "data/vendas.csv"
	DefaultExportDir     = "data/exports"
	DefaultExportMaxRows = 100000

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Timeouts
	DefaultRequestTimeout = 60 * time.Second
	DatasetLoadTimeout    = 2 * time.Minute
	WebSocketPingPeriod   = 30 * time.Second
	WebSocketPongWait     = 60 * time.Second

	// File Paths (relative to the base directory)
	DefaultLogsDir = "logs"

	// API Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
