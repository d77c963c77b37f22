// internal/config/normalize.go
package config

// MAC400 register numbers, listing 5.12.3 of the user manual.
const (
	defaultRegProgVersion    = 1  // PROG_VERSION
	defaultRegMode           = 2  // MODE_REG
	defaultRegPositionTarget = 3  // P_SOLL
	defaultRegVelocityTarget = 5  // V_SOLL
	defaultRegPositionActual = 10 // P_IST
	defaultRegErrorStatus    = 35 // ERR_STAT
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	e := &cfg.Exerciser

	if e.Drive.TimeoutMs == 0 {
		e.Drive.TimeoutMs = 1000
	}
	if e.Drive.WordOrder == "" {
		e.Drive.WordOrder = "low-high"
	}

	if e.Registers.ProgVersion == 0 {
		e.Registers.ProgVersion = defaultRegProgVersion
	}
	if e.Registers.Mode == 0 {
		e.Registers.Mode = defaultRegMode
	}
	if e.Registers.PositionTarget == 0 {
		e.Registers.PositionTarget = defaultRegPositionTarget
	}
	if e.Registers.VelocityTarget == 0 {
		e.Registers.VelocityTarget = defaultRegVelocityTarget
	}
	if e.Registers.PositionActual == 0 {
		e.Registers.PositionActual = defaultRegPositionActual
	}
	if e.Registers.ErrorStatus == 0 {
		e.Registers.ErrorStatus = defaultRegErrorStatus
	}

	if e.Motion.Velocity == 0 {
		e.Motion.Velocity = 1000
	}
	if e.Motion.Tolerance == 0 {
		e.Motion.Tolerance = 5
	}
	if e.Motion.SettleTimeoutMs == 0 {
		e.Motion.SettleTimeoutMs = 30000
	}

	if e.Poll.IntervalMs == 0 {
		e.Poll.IntervalMs = 250
	}
	if e.Poll.TickMs == 0 {
		e.Poll.TickMs = 50
	}

	if e.Retry.ReadAttempts == 0 {
		e.Retry.ReadAttempts = 3
	}
	if e.Retry.ShutdownAttempts == 0 {
		e.Retry.ShutdownAttempts = 5
	}
	if e.Retry.ShutdownTimeoutMs == 0 {
		e.Retry.ShutdownTimeoutMs = 10000
	}

	if e.Log.Dir == "" {
		e.Log.Dir = "."
	}
}
