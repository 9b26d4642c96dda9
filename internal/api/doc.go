// Package api implements the read-only HTTP API for the device catalogue.
//
// Routes (all under /api/v1, GET only):
//
//	/health                 status, version, catalogue availability
//	/metrics                runtime, catalogue and connection metrics
//	/devices                valid devices; ?brand= wins over ?model=
//	/devices/stats          counts by form factor and brand
//	/devices/{fullName}     one valid device by "<brand> <model>"
//	/catalog/report         invalid records with their violations
//	/audit                  load history (when the database is enabled)
//
// Any other method answers 405. When the one-time catalogue load failed,
// catalogue routes answer 503 with code "catalog_unavailable" while
// /health and /metrics keep working.
//
// Usage:
//
//	server, err := api.New(api.Deps{Config: cfg.API, Logger: log, Catalog: store})
//	server.Start(ctx)
//	defer server.Close()
package api
