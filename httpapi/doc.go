// Package httpapi serves a cloudadapter.Manager over HTTP.
//
// Every configured service is mounted at /api/{service}. The verb is the
// request method (MERGE is accepted as PATCH, and X-HTTP-Method overrides
// the method). Query options shared by database requests are fields, limit,
// offset, filter, params (a JSON object), ids, id_field, continue and
// rollback. Results are a single JSON object or {"resource": [...]}; errors
// are {"error": {"code", "message", "context"}} with the status taken from
// errors.StatusCode.
//
// /metrics exposes the Prometheus collectors and /health answers liveness.
package httpapi
