package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/engine"
)

func TestBarTalliesOutcomes(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, 4, "example.com")

	for _, k := range []dnsresolver.Kind{dnsresolver.Success, dnsresolver.Success, dnsresolver.Timeout, dnsresolver.Refused} {
		b.Observe(engine.Outcome{Kind: k})
	}
	require.NoError(t, b.Finish())

	assert.Equal(t, [4]int{2, 1, 1, 0}, b.counts)
	assert.Contains(t, buf.String(), "example.com  ok 2  timeout 1  refused 1  other 0")
}

func TestBarAsTrackerObserver(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, 2, "example.org")
	tr := engine.NewTracker(2, b)

	tr.Record(engine.Outcome{Kind: dnsresolver.Other})
	tr.Record(engine.Outcome{Kind: dnsresolver.Success})
	tr.Finalize()

	assert.Equal(t, 1, b.counts[dnsresolver.Other])
	assert.Equal(t, 1, b.counts[dnsresolver.Success])
}
