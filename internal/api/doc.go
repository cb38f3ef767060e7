// Package api serves the LED endpoint over HTTP.
//
// Each request is one endpoint session, exactly as if a caller had opened
// the node, done one read or write and closed it:
//
//	GET  /api/v1/health        daemon and endpoint health
//	GET  /api/v1/metrics       uptime, runtime, bus, pool and LED stats
//	GET  /api/v1/led?size=N    read up to N bytes of status (text/plain)
//	PUT  /api/v1/led           write the request body; {"written": n}
//	GET  /api/v1/events        level and lifecycle history
//
// Endpoint errors map to status codes: not ready is 503, a hardware fault
// is 502, anything else is 500. Error bodies are JSON.
//
// The server binds to api.host (127.0.0.1 by default). It has no
// authentication; do not expose it beyond the host.
package api
