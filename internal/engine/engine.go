// Package engine fans one DNS query out to many servers and reduces the
// answers to a summary and a frequency ranking of returned addresses.
// Queries run concurrently; their outcomes are drained and recorded by the
// single goroutine that called Run, so aggregation only starts once every
// dispatched query has finished.
package engine

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/log"
)

// ErrNoServers is returned by Run when there is nothing to query.
var ErrNoServers = errors.New("no servers to query")

// Target is one upstream DNS server.
type Target struct {
	Name string // optional label from the config, may be empty
	Addr string // host:port
}

func (t Target) String() string {
	if t.Name == "" {
		return t.Addr
	}
	return t.Name + " (" + t.Addr + ")"
}

// Outcome is the result of querying one Target.
type Outcome struct {
	Target Target
	Addrs  []netip.Addr
	Kind   dnsresolver.Kind
	Err    error
	RTT    time.Duration
}

// Result is everything a single run produced.
type Result struct {
	RunID    string
	Domain   string
	Started  time.Time
	Elapsed  time.Duration
	Summary  Summary
	Ranking  []AddrCount
	Outcomes []Outcome // completion order
}

// Engine dispatches queries through a dnsresolver.Resolver.
type Engine struct {
	resolver  dnsresolver.Resolver
	observers []Observer
}

// Opt is a function option for configuring the Engine.
type Opt func(e *Engine)

// WithObserver registers an observer notified on every recorded outcome.
func WithObserver(o Observer) Opt {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an Engine that resolves through resolver.
func New(resolver dnsresolver.Resolver, opts ...Opt) *Engine {
	e := &Engine{
		resolver:  resolver,
		observers: []Observer{ObserverFunc(logOutcome)},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run queries every target for domain's A records and returns the
// aggregated result. Per-server failures are part of the result; the only
// errors are ErrNoServers and dnsresolver.ErrEmptyHostname, both reported
// before anything is sent.
func (e *Engine) Run(ctx context.Context, targets []Target, domain string) (*Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoServers
	}
	if strings.TrimSpace(domain) == "" {
		return nil, dnsresolver.ErrEmptyHostname
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Domain:   domain,
		Started:  time.Now(),
		Outcomes: make([]Outcome, 0, len(targets)),
	}
	log.Info("engine: dispatching", "run", res.RunID, "domain", domain, "servers", len(targets))

	tracker := NewTracker(len(targets), e.observers...)
	for o := range e.Dispatch(ctx, targets, domain) {
		tracker.Record(o)
		res.Outcomes = append(res.Outcomes, o)
	}

	res.Summary = tracker.Finalize()
	res.Ranking = Aggregate(res.Outcomes)
	res.Elapsed = time.Since(res.Started)

	log.Info("engine: run complete",
		"run", res.RunID,
		"responses", res.Summary.Responses,
		"timeouts", res.Summary.Timeouts,
		"refused", res.Summary.Refused,
		"other", res.Summary.Other,
		"distinct_addrs", len(res.Ranking),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// Dispatch starts one query per target and returns a channel that yields
// exactly one Outcome per target, in completion order. The channel is
// closed once every query has finished. A failed query never cancels the
// others.
func (e *Engine) Dispatch(ctx context.Context, targets []Target, domain string) <-chan Outcome {
	out := make(chan Outcome, len(targets))

	var grp errgroup.Group
	for _, t := range targets {
		grp.Go(func() error {
			out <- e.query(ctx, t, domain)
			return nil
		})
	}

	go func() {
		_ = grp.Wait()
		close(out)
	}()
	return out
}

func (e *Engine) query(ctx context.Context, t Target, domain string) Outcome {
	start := time.Now()
	addrs, err := e.resolver.Resolve(ctx, t.Addr, domain)
	o := Outcome{
		Target: t,
		Addrs:  addrs,
		Err:    err,
		Kind:   dnsresolver.Classify(err),
		RTT:    time.Since(start),
	}
	if o.Kind == dnsresolver.Success && len(addrs) == 0 {
		o.Kind = dnsresolver.Other
		o.Err = &dnsresolver.Error{Kind: dnsresolver.Other, Server: t.Addr, Err: dnsresolver.ErrNoRecords}
	}
	return o
}

func logOutcome(o Outcome) {
	if o.Err != nil {
		log.Debug("engine: query failed", "server", o.Target.Addr, "kind", o.Kind.String(), "rtt", o.RTT, "error", o.Err)
		return
	}
	log.Debug("engine: query answered", "server", o.Target.Addr, "addrs", len(o.Addrs), "rtt", o.RTT)
}
