// Package httpserver serves the observability endpoints of a long-running
// benchmark: Prometheus metrics, a health probe and build information.
//
// It uses net/http with a small middleware chain (request ids, panic
// recovery, access logging and optional bearer-token auth on /metrics).
package httpserver
