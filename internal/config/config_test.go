// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
exerciser:
  drive:
    endpoint: 192.168.13.3:502
    unit_id: 1
    timeout_ms: 500
    word_order: low-high
  motion:
    velocity: 1000
    tolerance: 5
  poll:
    interval_ms: 100
  fault_bits:
    version: mac400-manual-r5
    names:
      0: I2T_ERR
      2: FNC_ERR
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}

	e := cfg.Exerciser
	if e.Drive.Endpoint != "192.168.13.3:502" {
		t.Fatalf("endpoint: got %q", e.Drive.Endpoint)
	}
	if e.Drive.UnitID != 1 {
		t.Fatalf("unit_id: got %d", e.Drive.UnitID)
	}
	if e.Poll.IntervalMs != 100 {
		t.Fatalf("interval_ms: got %d", e.Poll.IntervalMs)
	}
	if e.FaultBits.Names[2] != "FNC_ERR" {
		t.Fatalf("fault bit 2 name: got %q", e.FaultBits.Names[2])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
