// Package observability turns wizard lifecycle hooks into Prometheus metrics
// and redacted audit logs.
package observability
