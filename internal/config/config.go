// internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Exerciser ExerciserConfig `yaml:"exerciser"`
}

type ExerciserConfig struct {
	Drive     DriveConfig     `yaml:"drive"`
	Registers RegisterConfig  `yaml:"registers"`
	Motion    MotionConfig    `yaml:"motion"`
	Poll      PollConfig      `yaml:"poll"`
	Retry     RetryConfig     `yaml:"retry"`
	Log       LogConfig       `yaml:"log"`
	FaultBits FaultBitsConfig `yaml:"fault_bits"`
}

// ---- DRIVE ----

type DriveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// WordOrder selects how the two 16-bit words of a 32-bit drive
	// register are combined: "low-high" (low word at the lower address)
	// or "high-low".
	WordOrder string `yaml:"word_order"`
}

// ---- REGISTER MAP ----

// RegisterConfig holds drive register numbers (not fieldbus addresses;
// each register occupies two consecutive fieldbus words starting at 2n).
// Zero values fall back to the MAC400 defaults during Normalize.
type RegisterConfig struct {
	ProgVersion    uint16 `yaml:"prog_version"`
	Mode           uint16 `yaml:"mode"`
	PositionTarget uint16 `yaml:"position_target"`
	VelocityTarget uint16 `yaml:"velocity_target"`
	PositionActual uint16 `yaml:"position_actual"`
	ErrorStatus    uint16 `yaml:"error_status"`
}

// ---- MOTION ----

type MotionConfig struct {
	Velocity        int32 `yaml:"velocity"`  // counts/s, magnitude
	Tolerance       int32 `yaml:"tolerance"` // counts, settle band
	SettleTimeoutMs int   `yaml:"settle_timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"` // fault monitor period
	TickMs     int `yaml:"tick_ms"`     // sequence wait granularity
}

// ---- RETRY ----

type RetryConfig struct {
	ReadAttempts      int `yaml:"read_attempts"`       // non-critical reads
	ShutdownAttempts  int `yaml:"shutdown_attempts"`   // PASSIVE write
	ShutdownTimeoutMs int `yaml:"shutdown_timeout_ms"` // hard process bound
}

// ---- LOG ----

type LogConfig struct {
	Dir string `yaml:"dir"` // fault log directory
}

// ---- FAULT BIT TABLE ----

// FaultBitsConfig is the externally supplied status-bit name table.
// Bit semantics are device-specific; names are never inferred at runtime.
type FaultBitsConfig struct {
	Version string         `yaml:"version"`
	Names   map[int]string `yaml:"names"`
}

// Load reads and parses a yaml config file.
// It performs no validation and applies no defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
