package observe

import (
	"testing"
	"time"
)

func TestEmitterDeliversToAllCollectors(t *testing.T) {
	var a, b []Event
	e := NewEmitter(
		CollectorFunc(func(ev Event) { a = append(a, ev) }),
		CollectorFunc(func(ev Event) { b = append(b, ev) }),
	)

	for i := 0; i < 3; i++ {
		e.Emit(Event{RunID: "run_1", State: "PARSE"})
	}
	e.Close()

	if len(a) != 3 || len(b) != 3 {
		t.Errorf("delivered %d/%d events, want 3/3", len(a), len(b))
	}
}

func TestEmitterStampsTime(t *testing.T) {
	var got []Event
	e := NewEmitter(CollectorFunc(func(ev Event) { got = append(got, ev) }))
	e.Emit(Event{RunID: "run_1", State: "SELECT"})
	e.Close()

	if len(got) != 1 {
		t.Fatalf("events = %d", len(got))
	}
	if got[0].Time.IsZero() {
		t.Error("event time not stamped")
	}
	explicit := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e2 := NewEmitter(CollectorFunc(func(ev Event) { got = append(got, ev) }))
	e2.Emit(Event{RunID: "run_2", State: "SELECT", Time: explicit})
	e2.Close()
	if !got[1].Time.Equal(explicit) {
		t.Errorf("explicit time overwritten: %v", got[1].Time)
	}
}

func TestEmitterCloseIsIdempotent(t *testing.T) {
	e := NewEmitter()
	e.Close()
	e.Close()
}

func TestNopSinkIsSafe(t *testing.T) {
	var s Sink = Nop{}
	s.Emit(Event{RunID: "run_1"})
	s.Close()
}
