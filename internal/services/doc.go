// Package services implements the business logic layer between the HTTP
// handlers and the dataset, filter and analytics packages.
//
// # Available Services
//
//	- DashboardService: loads the sales dataset, runs the filter pipeline
//	  and builds dashboards, single views, sales pages and exports. It
//	  also handles explicit reloads and notifies websocket clients.
//	- HealthService: liveness, readiness (dataset in memory) and runtime
//	  statistics.
//
// Services accept collaborators through their constructors and fall back
// to slog.Default when no logger is given. Errors are returned as
// internal/errors AppError or APIError values so handlers can render them
// as problem details unchanged.
package services
