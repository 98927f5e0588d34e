// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GracefulStop limits how long a gRPC server waits for in-flight calls
// before it is forcibly stopped.
const GracefulStop = 5 * time.Second

// TelemetryShutdown limits how long pending spans may take to flush at exit.
const TelemetryShutdown = 5 * time.Second
