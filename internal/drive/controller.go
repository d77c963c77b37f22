// internal/drive/controller.go
package drive

import (
	"github.com/pkg/errors"
)

// Bus is the register transport the controller drives. Implementations
// must serialize calls internally: the bus is shared with the fault
// monitor and only one request may be in flight at a time.
type Bus interface {
	ReadRegister(num uint16) (uint32, error)
	WriteRegister(num uint16, value uint32) error
}

// Controller translates semantic motor operations into register
// traffic. It keeps no state of its own: the current mode belongs to
// the physical drive and to whoever commands it.
type Controller struct {
	bus  Bus
	regs RegisterMap
}

func NewController(bus Bus, regs RegisterMap) *Controller {
	return &Controller{bus: bus, regs: regs}
}

// Initialize probes the drive and forces it into a known command state.
func (c *Controller) Initialize() error {
	if _, err := c.bus.ReadRegister(c.regs.ProgVersion); err != nil {
		return errors.Wrap(err, "probe drive")
	}
	return c.SetMode(ModePassive)
}

// SetMode commands a mode and verifies the drive took it. A readback
// mismatch is a protocol violation, not a fault.
func (c *Controller) SetMode(m Mode) error {
	if err := c.bus.WriteRegister(c.regs.Mode, uint32(m)); err != nil {
		return errors.Wrapf(err, "write mode %s", m)
	}

	got, err := c.bus.ReadRegister(c.regs.Mode)
	if err != nil {
		return errors.Wrapf(err, "read back mode %s", m)
	}
	if Mode(got) != m {
		return errors.Wrapf(ErrProtocol,
			"mode mismatch: commanded %s, drive reports %s", m, Mode(got))
	}

	return nil
}

// ReadPosition returns the actual position in encoder counts.
func (c *Controller) ReadPosition() (int32, error) {
	v, err := c.bus.ReadRegister(c.regs.PositionActual)
	if err != nil {
		return 0, errors.Wrap(err, "read position")
	}
	return int32(v), nil
}

// SetVelocityTarget switches the drive to velocity mode and sets the
// target in counts/s. Motion starts as soon as the target is written.
func (c *Controller) SetVelocityTarget(v int32) error {
	if err := c.SetMode(ModeVelocity); err != nil {
		return err
	}
	return errors.Wrap(
		c.bus.WriteRegister(c.regs.VelocityTarget, uint32(v)),
		"write velocity target")
}

// SetPositionTarget switches the drive to position mode and sets the
// absolute target in encoder counts.
func (c *Controller) SetPositionTarget(p int32) error {
	if err := c.SetMode(ModePosition); err != nil {
		return err
	}
	return errors.Wrap(
		c.bus.WriteRegister(c.regs.PositionTarget, uint32(p)),
		"write position target")
}

// ReadStatusWord returns the raw 32-bit error-status word.
func (c *Controller) ReadStatusWord() (uint32, error) {
	v, err := c.bus.ReadRegister(c.regs.ErrorStatus)
	if err != nil {
		return 0, errors.Wrap(err, "read status word")
	}
	return v, nil
}
