// Package timeouts defines shared timeout constants used across commands.
// Centralizing these values prevents drift between call sites and makes
// the durations discoverable.
package timeouts

import "time"

// ProvisioningDispatch caps the time allowed for a single provisioning
// call dispatched from an appended event batch.
const ProvisioningDispatch = 30 * time.Second

// TelemetryShutdown limits how long a command waits for telemetry to
// flush during graceful shutdown.
const TelemetryShutdown = 5 * time.Second
