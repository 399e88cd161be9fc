// Package observe carries run telemetry out of the compiler: structured
// state-transition events to pluggable collectors, and Prometheus
// metrics. Nothing here may block or fail a run.
package observe

import (
	"sync"
	"time"
)

// Event is one state transition of one run.
type Event struct {
	RunID  string    `json:"run_id"`
	State  string    `json:"state"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Collector receives events. Implementations own their error handling;
// the emitter ignores collector failures by contract.
type Collector interface {
	Collect(ev Event)
}

// CollectorFunc adapts a function to Collector.
type CollectorFunc func(ev Event)

func (f CollectorFunc) Collect(ev Event) { f(ev) }

// Emitter fans events out to collectors through a buffered channel.
// Emit never blocks: when the buffer is full the event is dropped and
// counted, keeping slow collectors from stalling a run.
type Emitter struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

const emitterBuffer = 256

// NewEmitter starts the delivery goroutine. Call Close to drain and stop.
func NewEmitter(collectors ...Collector) *Emitter {
	e := &Emitter{
		ch:   make(chan Event, emitterBuffer),
		done: make(chan struct{}),
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for ev := range e.ch {
			for _, c := range collectors {
				c.Collect(ev)
			}
		}
	}()
	return e
}

// Emit enqueues the event, dropping it if the buffer is full.
func (e *Emitter) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case e.ch <- ev:
	default:
		EventsDropped.Inc()
	}
}

// Close stops delivery after draining buffered events.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		close(e.ch)
		e.wg.Wait()
	})
}

// Nop is an emitter-shaped no-op for callers that do not collect.
type Nop struct{}

func (Nop) Emit(Event) {}
func (Nop) Close()     {}

// Sink is what the compiler holds: either an *Emitter or Nop.
type Sink interface {
	Emit(ev Event)
	Close()
}
