package engine

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/log"
)

// Observer is notified once per recorded outcome.
type Observer interface {
	Observe(o Outcome)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(o Outcome)

// Observe calls f(o).
func (f ObserverFunc) Observe(o Outcome) { f(o) }

// Summary is the final partition of the queried servers by outcome kind.
type Summary struct {
	Servers   int
	Responses int
	Timeouts  int
	Refused   int
	Other     int
}

// Handled is the number of outcomes across all buckets.
func (s Summary) Handled() int {
	return s.Responses + s.Timeouts + s.Refused + s.Other
}

// Count returns the bucket for k.
func (s Summary) Count(k dnsresolver.Kind) int {
	switch k {
	case dnsresolver.Success:
		return s.Responses
	case dnsresolver.Timeout:
		return s.Timeouts
	case dnsresolver.Refused:
		return s.Refused
	default:
		return s.Other
	}
}

// Tracker counts outcomes as they complete. Record is safe for concurrent
// use; observers are called one at a time.
type Tracker struct {
	servers int

	responses atomic.Int64
	timeouts  atomic.Int64
	refused   atomic.Int64
	other     atomic.Int64
	handled   atomic.Int64
	finalized atomic.Bool

	mu        sync.Mutex // serializes observer calls
	observers []Observer
}

// NewTracker returns a Tracker expecting servers outcomes.
func NewTracker(servers int, observers ...Observer) *Tracker {
	return &Tracker{
		servers:   servers,
		observers: observers,
	}
}

// Record counts o in the bucket for its kind and notifies observers.
// Calling Record after Finalize panics.
func (t *Tracker) Record(o Outcome) {
	if t.finalized.Load() {
		panic("engine: Tracker.Record called after Finalize")
	}

	switch o.Kind {
	case dnsresolver.Success:
		t.responses.Inc()
	case dnsresolver.Timeout:
		t.timeouts.Inc()
	case dnsresolver.Refused:
		t.refused.Inc()
	default:
		t.other.Inc()
	}
	t.handled.Inc()

	if len(t.observers) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ob := range t.observers {
		ob.Observe(o)
	}
}

// Handled reports how many outcomes have been recorded so far.
func (t *Tracker) Handled() int {
	return int(t.handled.Load())
}

// Finalize freezes the tracker and returns the counts. It must be called
// exactly once, after the last Record.
func (t *Tracker) Finalize() Summary {
	if !t.finalized.CompareAndSwap(false, true) {
		panic("engine: Tracker.Finalize called twice")
	}

	// wait out any observer call still in flight
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		Servers:   t.servers,
		Responses: int(t.responses.Load()),
		Timeouts:  int(t.timeouts.Load()),
		Refused:   int(t.refused.Load()),
		Other:     int(t.other.Load()),
	}
	if h := int(t.handled.Load()); h != t.servers {
		log.Warn("engine: finalized with missing outcomes", "expected", t.servers, "recorded", h)
	}
	return s
}
