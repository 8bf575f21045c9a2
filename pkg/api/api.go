// Package api defines the JSON document dnsfan writes with --format json.
// Field names are stable; new fields may be added.
package api

import "time"

// Report is the top-level JSON document for one run.
type Report struct {
	RunID     string         `json:"run_id"`
	Domain    string         `json:"domain"`
	Version   string         `json:"version"`
	Started   time.Time      `json:"started"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Summary   Summary        `json:"summary"`
	Addresses []AddressCount `json:"addresses"`
	Servers   []ServerResult `json:"servers"`
}

// Summary partitions the queried servers by outcome.
type Summary struct {
	Servers   int `json:"servers"`
	Responses int `json:"responses"`
	Timeouts  int `json:"timeouts"`
	Refused   int `json:"refused"`
	Other     int `json:"other"`
}

// AddressCount is one row of the ranking, highest count first.
type AddressCount struct {
	Addr  string `json:"addr"`
	Count int    `json:"count"`
}

// ServerResult is the outcome of querying one server.
type ServerResult struct {
	Server  string   `json:"server"`
	Name    string   `json:"name,omitempty"`
	Outcome string   `json:"outcome"`
	RTTMS   float64  `json:"rtt_ms"`
	Addrs   []string `json:"addrs,omitempty"`
	Error   string   `json:"error,omitempty"`
}
