// internal/drive/registers.go
package drive

// Drive registers are 32 bits wide, exposed on the fieldbus as two
// consecutive 16-bit words starting at twice the register number.
// Which word carries the low half depends on the bus module.

// WordsPerRegister is the fieldbus footprint of one drive register.
const WordsPerRegister = 2

// FieldbusAddr returns the fieldbus address of a drive register's
// first word.
func FieldbusAddr(num uint16) uint16 {
	return num * 2
}

// RegisterMap names the drive registers the exerciser touches.
// Values are register numbers, not fieldbus addresses.
type RegisterMap struct {
	ProgVersion    uint16
	Mode           uint16
	PositionTarget uint16
	VelocityTarget uint16
	PositionActual uint16
	ErrorStatus    uint16
}

// Mode is the drive's command state. Exactly one value holds at any
// instant; the physical drive owns it, the sequence mirrors its last
// commanded value.
type Mode uint32

const (
	ModePassive  Mode = 0
	ModeVelocity Mode = 1
	ModePosition Mode = 2

	// ModeStop may be read back briefly if a position limit is hit,
	// before the drive drops to passive on its own.
	ModeStop Mode = 11
)

func (m Mode) String() string {
	switch m {
	case ModePassive:
		return "PASSIVE"
	case ModeVelocity:
		return "VELOCITY"
	case ModePosition:
		return "POSITION"
	case ModeStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}
