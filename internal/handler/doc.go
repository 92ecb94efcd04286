// Package handler contains the HTTP handlers of the tofscope API.
//
// Routes are grouped by resource under /api/v1: runs, their events, and
// the detector geometry. Health probes and the Prometheus scrape endpoint
// live at the root.
//
// Handlers return application errors instead of writing error bodies
// themselves; the shared middleware.ErrorHandler renders them.
package handler
