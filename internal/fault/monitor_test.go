// internal/fault/monitor_test.go
package fault

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scriptedReader plays back a fixed series of readings; the last entry
// repeats forever.
type scriptedReader struct {
	script []interface{} // uint32 or error
	pos    int
}

func (r *scriptedReader) ReadStatusWord() (uint32, error) {
	step := r.script[r.pos]
	if r.pos < len(r.script)-1 {
		r.pos++
	}
	if err, ok := step.(error); ok {
		return 0, err
	}
	return step.(uint32), nil
}

// recordingSink collects every event.
type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Record(ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func newTestMonitor(r StatusReader, sink Sink, retries int) *Monitor {
	return NewMonitor(
		r,
		NewTable("test", map[int]string{2: "FNC_ERR"}),
		sink,
		Config{Period: 10 * time.Millisecond, ReadRetries: retries},
		log.New(io.Discard, "", 0),
	)
}

func TestMonitor_BaselineProducesNoEvents(t *testing.T) {
	sink := &recordingSink{}
	// Bit 2 already tripped before monitoring began.
	m := newTestMonitor(&scriptedReader{script: []interface{}{uint32(0x4), uint32(0x4)}}, sink, 3)

	m.pollOnce(time.Now())
	m.pollOnce(time.Now())

	require.Empty(t, sink.events)
	require.Empty(t, m.Events())
}

func TestMonitor_TripEdgeSignalsOnce(t *testing.T) {
	sink := &recordingSink{}
	// Clean baseline, then bit 2 trips and stays tripped.
	m := newTestMonitor(&scriptedReader{script: []interface{}{uint32(0), uint32(0x4), uint32(0x4)}}, sink, 3)

	for i := 0; i < 5; i++ {
		m.pollOnce(time.Now())
	}

	require.Len(t, sink.events, 1, "steady reading must not repeat the event")
	ev := sink.events[0]
	require.Equal(t, 2, ev.Bit)
	require.Equal(t, "FNC_ERR", ev.Name)
	require.True(t, ev.Tripped)

	select {
	case got := <-m.Events():
		require.Equal(t, 2, got.Bit)
	default:
		t.Fatal("expected a fault signal")
	}
	require.Empty(t, m.Events(), "exactly one signal per edge")
}

func TestMonitor_ClearedEdgeIsLoggedNotSignalled(t *testing.T) {
	sink := &recordingSink{}
	m := newTestMonitor(&scriptedReader{script: []interface{}{uint32(0), uint32(0x4), uint32(0)}}, sink, 3)

	m.pollOnce(time.Now()) // baseline
	m.pollOnce(time.Now()) // trip
	m.pollOnce(time.Now()) // clear

	require.Len(t, sink.events, 2)
	require.True(t, sink.events[0].Tripped)
	require.False(t, sink.events[1].Tripped)
	require.Equal(t, "cleared", sink.events[1].Direction())

	// Only the trip reaches the sequence.
	require.Len(t, m.Events(), 1)
}

func TestMonitor_ReadFailuresEscalateOnce(t *testing.T) {
	readErr := errors.New("i/o timeout")
	m := newTestMonitor(&scriptedReader{script: []interface{}{readErr}}, &recordingSink{}, 2)

	for i := 0; i < 6; i++ {
		m.pollOnce(time.Now())
	}

	require.Len(t, m.CommErrors(), 1, "escalate exactly once per failure run")
}

func TestMonitor_RecoveryResetsFailureBudget(t *testing.T) {
	readErr := errors.New("i/o timeout")
	sink := &recordingSink{}
	m := newTestMonitor(&scriptedReader{
		script: []interface{}{uint32(0), readErr, readErr, uint32(0), uint32(0)},
	}, sink, 2)

	for i := 0; i < 5; i++ {
		m.pollOnce(time.Now())
	}

	require.Empty(t, m.CommErrors(), "two failures are within the budget of 2")
	require.Empty(t, sink.events)
}

func TestMonitor_SinkFailureDoesNotDropSignal(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	m := newTestMonitor(&scriptedReader{script: []interface{}{uint32(0), uint32(0x1)}}, sink, 3)

	m.pollOnce(time.Now())
	m.pollOnce(time.Now())

	require.Len(t, m.Events(), 1, "logging is best-effort, signalling is not")
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	m := newTestMonitor(&scriptedReader{script: []interface{}{uint32(0)}}, &recordingSink{}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}
