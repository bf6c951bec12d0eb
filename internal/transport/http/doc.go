// Package http implements the HTTP handlers of the dashboard API.
//
// Handlers stay thin: they read and validate the filter selection from the
// query string, call the service layer and render JSON with go-chi/render.
// Failures are rendered as RFC 7807 problem details by errors.ErrorHandler.
//
// # Routes
//
//	GET  /api/dashboard            full dashboard for a selection
//	GET  /api/filters              stage options and effective selections
//	GET  /api/views/{view}         a single aggregation view
//	GET  /api/sales                paginated filtered rows
//	GET  /api/export/sales.{fmt}   csv or xlsx download
//	GET  /api/dataset              dataset info
//	POST /api/dataset/reload       re-read the dataset (?force=true)
//	GET  /api/health[/live|/ready|/detailed], /api/version
//
// Selections use one query key per stage, repeated for several values.
// Values are taken verbatim, commas included:
//
//	/api/dashboard?store=Centro&store=Norte&weekday=Sábado&date_from=2024-01-01&promotion_only=true
package http
