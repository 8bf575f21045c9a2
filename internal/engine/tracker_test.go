package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lc/dnsfan/internal/dnsresolver"
)

func outcomesOf(kinds ...dnsresolver.Kind) []Outcome {
	out := make([]Outcome, len(kinds))
	for i, k := range kinds {
		out[i] = Outcome{Kind: k}
	}
	return out
}

func TestTrackerBuckets(t *testing.T) {
	tr := NewTracker(6)
	for _, o := range outcomesOf(
		dnsresolver.Success, dnsresolver.Success, dnsresolver.Success,
		dnsresolver.Timeout, dnsresolver.Refused, dnsresolver.Other,
	) {
		tr.Record(o)
	}

	require.Equal(t, 6, tr.Handled())
	s := tr.Finalize()
	assert.Equal(t, Summary{Servers: 6, Responses: 3, Timeouts: 1, Refused: 1, Other: 1}, s)
	assert.Equal(t, s.Servers, s.Handled())
	assert.Equal(t, 3, s.Count(dnsresolver.Success))
	assert.Equal(t, 1, s.Count(dnsresolver.Refused))
}

func TestTrackerConcurrentRecord(t *testing.T) {
	const perKind = 250
	kinds := dnsresolver.Kinds
	total := perKind * len(kinds)

	var calls int
	tr := NewTracker(total, ObserverFunc(func(Outcome) {
		// observers run one at a time, so no lock is needed here
		calls++
	}))

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, k := range kinds {
		for range perKind {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				tr.Record(Outcome{Kind: k})
			}()
		}
	}
	close(start)
	wg.Wait()

	s := tr.Finalize()
	assert.Equal(t, Summary{Servers: total, Responses: perKind, Timeouts: perKind, Refused: perKind, Other: perKind}, s)
	assert.Equal(t, total, calls)
}

func TestTrackerRecordAfterFinalizePanics(t *testing.T) {
	tr := NewTracker(1)
	tr.Record(Outcome{Kind: dnsresolver.Success})
	tr.Finalize()

	assert.Panics(t, func() { tr.Record(Outcome{Kind: dnsresolver.Success}) })
	assert.Panics(t, func() { tr.Finalize() })
}

func TestTrackerFinalizeShort(t *testing.T) {
	tr := NewTracker(3)
	tr.Record(Outcome{Kind: dnsresolver.Timeout})

	s := tr.Finalize()
	assert.Equal(t, 3, s.Servers)
	assert.Equal(t, 1, s.Handled())
}
