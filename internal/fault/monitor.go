// internal/fault/monitor.go
package fault

import (
	"context"
	"log"
	"time"
)

// StatusReader is the slice of the motor controller the monitor needs.
type StatusReader interface {
	ReadStatusWord() (uint32, error)
}

// Config is the minimal runtime config the monitor needs.
type Config struct {
	// Period is the fixed poll interval.
	Period time.Duration

	// ReadRetries is the number of consecutive failed status reads
	// tolerated before the monitor escalates on CommErrors.
	ReadRetries int
}

// Monitor polls the status word on a fixed period, detects bit edges
// against the previous reading, records every edge to the sink, and
// signals tripped edges to the sequence immediately. It is a dumb,
// clock-driven reader; policy lives with the sequence.
type Monitor struct {
	reader StatusReader
	table  *Table
	sink   Sink
	cfg    Config
	logger *log.Logger

	events   chan Event
	commErrs chan error

	// poll state, touched only by Run's goroutine
	primed    bool
	prev      uint32
	failures  int
	escalated bool
}

func NewMonitor(reader StatusReader, table *Table, sink Sink, cfg Config, logger *log.Logger) *Monitor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Monitor{
		reader: reader,
		table:  table,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		// Buffered so a trip burst never blocks the poll loop, even
		// when the sequence has already terminated.
		events:   make(chan Event, 32),
		commErrs: make(chan error, 1),
	}
}

// Events delivers tripped edges only. Cleared edges are recorded but
// never resume or affect the sequence.
func (m *Monitor) Events() <-chan Event { return m.events }

// CommErrors delivers at most one escalation for a run of consecutive
// status-read failures exceeding the retry budget.
func (m *Monitor) CommErrors() <-chan error { return m.commErrs }

// Run starts the ticker loop. It returns only when ctx is cancelled;
// the monitor is expected to outlive the sequence so the final passive
// transition is itself fault-checked.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(time.Now())
		}
	}
}

// pollOnce performs exactly one poll cycle.
func (m *Monitor) pollOnce(now time.Time) {
	word, err := m.reader.ReadStatusWord()
	if err != nil {
		m.failures++
		m.logger.Printf("monitor: status read failed (%d consecutive): %v",
			m.failures, err)
		if m.failures > m.cfg.ReadRetries && !m.escalated {
			m.escalated = true
			select {
			case m.commErrs <- err:
			default:
			}
		}
		return
	}
	m.failures = 0
	m.escalated = false

	if !m.primed {
		// First observation is the baseline: bits already tripped
		// before monitoring began are not edges.
		m.primed = true
		m.prev = word
		if word != 0 {
			m.logger.Printf("monitor: baseline status %#08x, tripped bits %v",
				word, Decode(word))
		}
		return
	}

	changed := m.prev ^ word
	if changed == 0 {
		return
	}

	for bit := 0; bit < 32; bit++ {
		mask := uint32(1) << uint(bit)
		if changed&mask == 0 {
			continue
		}

		ev := Event{
			Bit:     bit,
			Name:    m.table.Name(bit),
			Tripped: word&mask != 0,
			Raw:     word,
			At:      now,
		}

		if err := m.sink.Record(ev); err != nil {
			m.logger.Printf("monitor: fault log write failed: %v", err)
		}
		m.logger.Printf("monitor: bit %d (%s) %s, status %#08x",
			ev.Bit, ev.Name, ev.Direction(), word)

		if ev.Tripped {
			select {
			case m.events <- ev:
			default:
				m.logger.Printf("monitor: fault channel full, dropping signal for bit %d", ev.Bit)
			}
		}
	}

	m.prev = word
}
