// Package api exposes the storefront over HTTP.
//
// Routes are served by a chi router with CORS open to every origin, panic
// recovery, request logging and Prometheus metrics. Errors are reported as
// {"detail": "..."} with a matching status code, except order cancellation
// which always answers 200 with {"success": bool, "message": "..."}.
package api
