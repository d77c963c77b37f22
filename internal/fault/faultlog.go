// internal/fault/faultlog.go
package fault

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event is one observed fault-bit transition. Events exist only for
// edges: a steady reading never produces one.
type Event struct {
	Bit     int
	Name    string
	Tripped bool // false means the bit cleared
	Raw     uint32
	At      time.Time
}

// Direction renders the edge for logs.
func (e Event) Direction() string {
	if e.Tripped {
		return "tripped"
	}
	return "cleared"
}

// Sink is the append-only destination for fault records. Delivery is
// best-effort: a failing sink must never block or fail the shutdown
// path.
type Sink interface {
	Record(ev Event) error
}

// NopSink discards events. It stands in when the log file cannot be
// opened, so logging never becomes a safety dependency.
type NopSink struct{}

func (NopSink) Record(Event) error { return nil }

// Log is the durable per-run fault record file.
type Log struct {
	f    *os.File
	path string
}

// OpenLog creates one append-only log file for this run, named with
// the run timestamp.
func OpenLog(dir string, now time.Time) (*Log, error) {
	name := fmt.Sprintf("fault_log_%s.log", now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{f: f, path: path}, nil
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Record appends one line per event:
//
//	<timestamp> bit <index> <name> <tripped|cleared>
func (l *Log) Record(ev Event) error {
	_, err := fmt.Fprintf(l.f, "%s bit %d %s %s\n",
		ev.At.Format(time.RFC3339Nano), ev.Bit, ev.Name, ev.Direction())
	return err
}

// Close flushes and closes the file.
func (l *Log) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
