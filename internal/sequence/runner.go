// internal/sequence/runner.go
package sequence

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/motor-exerciser/internal/drive"
	"github.com/tamzrod/motor-exerciser/internal/fault"
)

// Motor is the slice of the motor controller the runner drives.
type Motor interface {
	Initialize() error
	SetMode(m drive.Mode) error
	ReadPosition() (int32, error)
	SetVelocityTarget(v int32) error
	SetPositionTarget(p int32) error
}

// Config is the runner's immutable runtime config.
type Config struct {
	Counts   int32         // relative move distance, sign sets direction
	Velocity int32         // magnitude, counts/s
	IdleTime time.Duration // IDLE phase hold

	// Tick bounds how long any wait may block before re-checking the
	// fault signal; a fault during a long hold is observed within one
	// poll period plus one tick, never at the next phase boundary.
	Tick time.Duration

	// PollPeriod is the settle-poll cadence, matching the fault monitor.
	PollPeriod time.Duration

	Tolerance     int32         // settle band around the start position
	SettleTimeout time.Duration // bounded RETURN settling, abort if exceeded

	ReadRetries     int // local retry budget for non-critical reads
	ShutdownRetries int // passive-write attempts before fatal escalation

	Cycles int // test cycles to run; 0 means until cancelled
}

// FaultError reports a device fault that aborted the sequence.
type FaultError struct {
	Event fault.Event
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault bit %d (%s) tripped", e.Event.Bit, e.Event.Name)
}

// Runner is the top-level state machine. It owns the last-commanded
// mode explicitly and guarantees a passive attempt on every exit path:
// Run never returns without passing through SHUTTING_DOWN.
type Runner struct {
	motor    Motor
	cfg      Config
	faults   <-chan fault.Event
	commErrs <-chan error
	logger   *log.Logger

	phase atomic.Int32

	// touched only by Run's goroutine
	mode     drive.Mode
	startPos int32
}

func New(motor Motor, cfg Config, faults <-chan fault.Event, commErrs <-chan error, logger *log.Logger) *Runner {
	return &Runner{
		motor:    motor,
		cfg:      cfg,
		faults:   faults,
		commErrs: commErrs,
		logger:   logger,
	}
}

// Phase returns the current sequence phase.
func (r *Runner) Phase() Phase {
	return Phase(r.phase.Load())
}

// Mode returns the last commanded drive mode. Valid once Run returned.
func (r *Runner) Mode() drive.Mode {
	return r.mode
}

func (r *Runner) transition(next Phase) {
	prev := r.Phase()
	r.phase.Store(int32(next))
	r.logger.Printf("sequence: %s -> %s", prev, next)
}

// Run executes test cycles until the cycle limit is reached, the
// context is cancelled, a fault trips, or communication is lost.
// Whatever happens, the drive gets a bounded-retry passive write
// before Run returns; the process must not terminate before that.
func (r *Runner) Run(ctx context.Context) error {
	var abort error
	cycle := 0

loop:
	for {
		// Faults interrupt at phase boundaries too, not only inside
		// the long waits.
		if err := r.interrupted(ctx); err != nil {
			abort = err
			break
		}

		switch r.Phase() {
		case PhaseInit:
			if err := r.motor.Initialize(); err != nil {
				abort = errors.Wrap(err, "initialize")
				break loop
			}
			r.mode = drive.ModePassive
			r.transition(PhaseReadStartPosition)

		case PhaseReadStartPosition:
			pos, err := r.readPosition(ctx)
			if err != nil {
				abort = err
				break loop
			}
			r.startPos = pos
			r.logger.Printf("sequence: start position %d", pos)
			r.transition(PhaseMove)

		case PhaseMove:
			v := r.cfg.Velocity
			if r.cfg.Counts < 0 {
				v = -v
			}
			r.logger.Printf("sequence: moving %d counts at %d counts/s", r.cfg.Counts, v)
			if err := r.motor.SetVelocityTarget(v); err != nil {
				abort = err
				break loop
			}
			r.mode = drive.ModeVelocity
			if err := r.hold(ctx, r.moveDuration()); err != nil {
				abort = err
				break loop
			}
			r.transition(PhaseIdle)

		case PhaseIdle:
			if err := r.motor.SetMode(drive.ModePassive); err != nil {
				abort = err
				break loop
			}
			r.mode = drive.ModePassive
			if err := r.hold(ctx, r.cfg.IdleTime); err != nil {
				abort = err
				break loop
			}
			r.transition(PhaseReturn)

		case PhaseReturn:
			r.logger.Printf("sequence: returning to %d", r.startPos)
			if err := r.motor.SetPositionTarget(r.startPos); err != nil {
				abort = err
				break loop
			}
			r.mode = drive.ModePosition
			if err := r.settle(ctx); err != nil {
				abort = err
				break loop
			}
			r.transition(PhaseDone)

		case PhaseDone:
			if err := r.motor.SetMode(drive.ModePassive); err != nil {
				abort = err
				break loop
			}
			r.mode = drive.ModePassive
			cycle++
			r.logger.Printf("sequence: cycle %d complete", cycle)
			if r.cfg.Cycles > 0 && cycle >= r.cfg.Cycles {
				break loop
			}
			r.transition(PhaseInit)
		}
	}

	return r.shutdown(abort)
}

// interrupted is the non-blocking abort check run at phase boundaries.
func (r *Runner) interrupted(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-r.faults:
		return &FaultError{Event: ev}
	case err := <-r.commErrs:
		return errors.Wrap(err, "status polling lost the drive")
	default:
		return nil
	}
}

// hold waits for d while staying receptive to faults, comm loss, and
// cancellation. It blocks at most one tick at a time.
func (r *Runner) hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return r.interrupted(ctx)
	}

	deadline := time.Now().Add(d)
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.faults:
			return &FaultError{Event: ev}
		case err := <-r.commErrs:
			return errors.Wrap(err, "status polling lost the drive")
		case <-ticker.C:
			if !time.Now().Before(deadline) {
				return nil
			}
		}
	}
}

// settle polls the position at the monitor cadence until it lands
// within tolerance of the start position. Exceeding the settle timeout
// is a safety abort, not a fault.
func (r *Runner) settle(ctx context.Context) error {
	deadline := time.Now().Add(r.cfg.SettleTimeout)
	ticker := time.NewTicker(r.cfg.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.faults:
			return &FaultError{Event: ev}
		case err := <-r.commErrs:
			return errors.Wrap(err, "status polling lost the drive")
		case <-ticker.C:
			pos, err := r.readPosition(ctx)
			if err != nil {
				return err
			}
			if abs32(pos-r.startPos) <= r.cfg.Tolerance {
				r.logger.Printf("sequence: settled at %d (start %d)", pos, r.startPos)
				return nil
			}
			if !time.Now().Before(deadline) {
				return errors.Errorf(
					"settle timeout: position %d not within %d counts of %d after %s",
					pos, r.cfg.Tolerance, r.startPos, r.cfg.SettleTimeout)
			}
		}
	}
}

// readPosition retries a bounded number of times locally. Position
// reads are not safety-critical; a transient timeout is not worth an
// abort, a persistent one is.
func (r *Runner) readPosition(ctx context.Context) (int32, error) {
	attempts := r.cfg.ReadRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := r.hold(ctx, r.cfg.Tick); err != nil {
				return 0, err
			}
		}
		pos, err := r.motor.ReadPosition()
		if err == nil {
			return pos, nil
		}
		lastErr = err
		r.logger.Printf("sequence: position read failed (attempt %d/%d): %v",
			i+1, attempts, err)
	}
	return 0, errors.Wrapf(lastErr, "position read exhausted %d attempts", attempts)
}

// shutdown drives the terminal transitions. The passive write is
// retried a bounded number of times; persistent failure is fatal and
// loudly reported, but the runner still terminates.
func (r *Runner) shutdown(reason error) error {
	from := r.Phase()
	r.transition(PhaseShuttingDown)

	switch {
	case reason == nil:
		r.logger.Printf("sequence: cycle limit reached, shutting down")
	case stderrors.Is(reason, context.Canceled):
		r.logger.Printf("sequence: cancellation requested during %s, shutting down", from)
	default:
		r.logger.Printf("sequence: aborting from %s: %v", from, reason)
	}

	attempts := r.cfg.ShutdownRetries
	if attempts < 1 {
		attempts = 1
	}

	var writeErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(r.cfg.Tick)
		}
		if err := r.motor.SetMode(drive.ModePassive); err != nil {
			writeErr = err
			r.logger.Printf("sequence: passive write failed (attempt %d/%d): %v",
				i+1, attempts, err)
			continue
		}
		writeErr = nil
		r.mode = drive.ModePassive
		r.logger.Printf("sequence: drive passive")
		break
	}

	r.transition(PhaseTerminated)

	if writeErr != nil {
		return errors.Wrapf(writeErr,
			"FATAL: drive left in %s, passive write exhausted %d attempts",
			r.mode, attempts)
	}
	if reason == nil || stderrors.Is(reason, context.Canceled) {
		return nil
	}
	return reason
}

func (r *Runner) moveDuration() time.Duration {
	counts := r.cfg.Counts
	if counts < 0 {
		counts = -counts
	}
	if r.cfg.Velocity <= 0 {
		return 0
	}
	return time.Duration(float64(counts) / float64(r.cfg.Velocity) * float64(time.Second))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
