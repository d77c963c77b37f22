// internal/sequence/phase.go
package sequence

// Phase is the runner's position in the test cycle.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseReadStartPosition
	PhaseMove
	PhaseIdle
	PhaseReturn
	PhaseDone
	PhaseShuttingDown
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseReadStartPosition:
		return "READ_START_POSITION"
	case PhaseMove:
		return "MOVE"
	case PhaseIdle:
		return "IDLE"
	case PhaseReturn:
		return "RETURN"
	case PhaseDone:
		return "DONE"
	case PhaseShuttingDown:
		return "SHUTTING_DOWN"
	case PhaseTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}
