// Package progress renders a progress bar that advances as query outcomes
// are recorded.
package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/engine"
)

var _ engine.Observer = (*Bar)(nil)

// Bar is an engine.Observer backed by a terminal progress bar.
// engine.Tracker calls Observe serially, so Bar keeps its tallies unlocked.
type Bar struct {
	bar    *progressbar.ProgressBar
	domain string
	counts [len(dnsresolver.Kinds)]int
}

// New returns a Bar for total queries of domain, drawn on w.
func New(w io.Writer, total int, domain string) *Bar {
	b := &Bar{domain: domain}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(b.describe()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	return b
}

// Observe advances the bar by one and refreshes the tallies.
func (b *Bar) Observe(o engine.Outcome) {
	if int(o.Kind) >= 0 && int(o.Kind) < len(b.counts) {
		b.counts[o.Kind]++
	}
	b.bar.Describe(b.describe())
	_ = b.bar.Add(1)
}

// Finish completes and clears the bar.
func (b *Bar) Finish() error {
	return b.bar.Finish()
}

func (b *Bar) describe() string {
	return fmt.Sprintf("%s  ok %d  timeout %d  refused %d  other %d",
		b.domain,
		b.counts[dnsresolver.Success],
		b.counts[dnsresolver.Timeout],
		b.counts[dnsresolver.Refused],
		b.counts[dnsresolver.Other],
	)
}
