// Package report renders an engine.Result for people and for machines:
// a text table, a JSON document, and a Prometheus textfile.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/lc/dnsfan/internal/buildinfo"
	"github.com/lc/dnsfan/internal/engine"
	"github.com/lc/dnsfan/pkg/api"
)

// Options controls text rendering.
type Options struct {
	Color   bool // emit ANSI colors
	Verbose bool // add a per-server table
}

// Text writes the summary counts and the address ranking to w.
func Text(w io.Writer, r *engine.Result, opts Options) error {
	bold := newColor(opts.Color, color.Bold)
	good := newColor(opts.Color, color.FgGreen)
	warn := newColor(opts.Color, color.FgYellow)
	bad := newColor(opts.Color, color.FgRed)
	plain := newColor(false)

	s := r.Summary
	bold.Fprintf(w, "Queried %d servers for %s in %s\n", s.Servers, r.Domain, r.Elapsed.Round(time.Millisecond))
	good.Fprintf(w, "Responding servers:       %d\n", s.Responses)
	pick(warn, plain, s.Timeouts).Fprintf(w, "Timed out servers:        %d\n", s.Timeouts)
	pick(bad, plain, s.Refused).Fprintf(w, "Connection refused:       %d\n", s.Refused)
	pick(bad, plain, s.Other).Fprintf(w, "Other failures:           %d\n", s.Other)
	fmt.Fprintln(w)

	if len(r.Ranking) == 0 {
		warn.Fprintln(w, "No server returned an A record.")
	} else {
		bold.Fprintln(w, "ADDRESSES:")
		table := newTable(w, opts.Color, "IP Address", "Count", "Share")
		for _, ac := range r.Ranking {
			share := float64(ac.Count) / float64(max(s.Responses, 1)) * 100
			table.Append([]string{ac.Addr.String(), strconv.Itoa(ac.Count), fmt.Sprintf("%.0f%%", share)})
		}
		table.Render()
	}

	if opts.Verbose {
		fmt.Fprintln(w)
		bold.Fprintln(w, "SERVERS:")
		table := newTable(w, opts.Color, "Server", "Outcome", "RTT", "Answer")
		for _, o := range r.Outcomes {
			table.Append([]string{o.Target.String(), o.Kind.String(), o.RTT.Round(time.Millisecond).String(), answerText(o)})
		}
		table.Render()
	}
	return nil
}

// JSON writes r as an indented api.Report.
func JSON(w io.Writer, r *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToAPI(r)); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// ToAPI converts r into its JSON schema.
func ToAPI(r *engine.Result) api.Report {
	out := api.Report{
		RunID:     r.RunID,
		Domain:    r.Domain,
		Version:   buildinfo.Version,
		Started:   r.Started.UTC(),
		ElapsedMS: r.Elapsed.Milliseconds(),
		Summary: api.Summary{
			Servers:   r.Summary.Servers,
			Responses: r.Summary.Responses,
			Timeouts:  r.Summary.Timeouts,
			Refused:   r.Summary.Refused,
			Other:     r.Summary.Other,
		},
		Addresses: make([]api.AddressCount, 0, len(r.Ranking)),
		Servers:   make([]api.ServerResult, 0, len(r.Outcomes)),
	}
	for _, ac := range r.Ranking {
		out.Addresses = append(out.Addresses, api.AddressCount{Addr: ac.Addr.String(), Count: ac.Count})
	}
	for _, o := range r.Outcomes {
		sr := api.ServerResult{
			Server:  o.Target.Addr,
			Name:    o.Target.Name,
			Outcome: o.Kind.String(),
			RTTMS:   float64(o.RTT.Microseconds()) / 1000,
		}
		for _, a := range o.Addrs {
			sr.Addrs = append(sr.Addrs, a.String())
		}
		if o.Err != nil {
			sr.Error = o.Err.Error()
		}
		out.Servers = append(out.Servers, sr)
	}
	return out
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// pick highlights only non-zero failure counts.
func pick(c, plain *color.Color, n int) *color.Color {
	if n == 0 {
		return plain
	}
	return c
}

func newTable(w io.Writer, colored bool, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	if colored {
		colors := make([]tablewriter.Colors, len(header))
		for i := range colors {
			colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor}
		}
		table.SetHeaderColor(colors...)
	}
	return table
}

func answerText(o engine.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	addrs := make([]string, len(o.Addrs))
	for i, a := range o.Addrs {
		addrs[i] = a.String()
	}
	return strings.Join(addrs, ", ")
}
