// Package audit records durable audit events for confrontation transitions.
//
// For distributed tracing, this service uses package `internal/platform/otel`.
package audit
