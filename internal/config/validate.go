// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	e := &cfg.Exerciser

	// ------------------------------------------------------------
	// DRIVE TRANSPORT
	// ------------------------------------------------------------

	if e.Drive.Endpoint == "" {
		return fmt.Errorf("drive: endpoint is required")
	}
	if e.Drive.TimeoutMs < 0 {
		return fmt.Errorf("drive: timeout_ms must be >= 0, got %d", e.Drive.TimeoutMs)
	}
	switch e.Drive.WordOrder {
	case "", "low-high", "high-low":
	default:
		return fmt.Errorf(
			"drive: word_order must be %q or %q, got %q",
			"low-high", "high-low", e.Drive.WordOrder,
		)
	}

	// ------------------------------------------------------------
	// MOTION
	// ------------------------------------------------------------

	if e.Motion.Velocity < 0 {
		return fmt.Errorf("motion: velocity must be >= 0, got %d", e.Motion.Velocity)
	}
	if e.Motion.Tolerance < 0 {
		return fmt.Errorf("motion: tolerance must be >= 0, got %d", e.Motion.Tolerance)
	}
	if e.Motion.SettleTimeoutMs < 0 {
		return fmt.Errorf("motion: settle_timeout_ms must be >= 0, got %d", e.Motion.SettleTimeoutMs)
	}

	// ------------------------------------------------------------
	// POLL / RETRY
	// ------------------------------------------------------------

	if e.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must be >= 0, got %d", e.Poll.IntervalMs)
	}
	if e.Poll.TickMs < 0 {
		return fmt.Errorf("poll: tick_ms must be >= 0, got %d", e.Poll.TickMs)
	}
	if e.Retry.ReadAttempts < 0 {
		return fmt.Errorf("retry: read_attempts must be >= 0, got %d", e.Retry.ReadAttempts)
	}
	if e.Retry.ShutdownAttempts < 0 {
		return fmt.Errorf("retry: shutdown_attempts must be >= 0, got %d", e.Retry.ShutdownAttempts)
	}

	// ------------------------------------------------------------
	// FAULT BIT TABLE
	// ------------------------------------------------------------

	for bit, name := range e.FaultBits.Names {
		if bit < 0 || bit > 31 {
			return fmt.Errorf("fault_bits: bit index %d out of range 0-31", bit)
		}
		if name == "" {
			return fmt.Errorf("fault_bits: bit %d has an empty name", bit)
		}
	}
	if len(e.FaultBits.Names) > 0 && e.FaultBits.Version == "" {
		return fmt.Errorf("fault_bits: names are set but version is empty")
	}

	return nil
}
