// internal/drive/errors.go
package drive

import "errors"

// Transport failure taxonomy. The bus adapter classifies every raw
// transport error into exactly one of these before it leaves the
// package, so callers can decide retry policy with errors.Is.
var (
	// ErrConnection: the link is unreachable or died mid-session.
	ErrConnection = errors.New("drive: connection failed")

	// ErrTimeout: no response within the configured I/O bound.
	ErrTimeout = errors.New("drive: request timed out")

	// ErrProtocol: malformed, short, or contradictory response,
	// including a device exception and a failed mode readback.
	ErrProtocol = errors.New("drive: protocol violation")
)

// IsCommunication reports whether err is any transport-level failure.
func IsCommunication(err error) bool {
	return errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrProtocol)
}
