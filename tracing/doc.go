// Package tracing adds OpenTelemetry client spans around event pings.
// Instrumentation is kept out of the root package so that applications
// which do not trace can exclude it from their build.
package tracing
