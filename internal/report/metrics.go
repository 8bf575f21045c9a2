package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/engine"
)

const namespace = "dnsfan"

// WriteTextfile writes r in the Prometheus text format to path, for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, r *engine.Result) error {
	reg := prometheus.NewRegistry()

	servers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "servers",
		Help:      "Number of DNS servers queried in the last run.",
	}, []string{"domain"})
	outcomes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outcomes",
		Help:      "Servers per query outcome in the last run.",
	}, []string{"domain", "kind"})
	answers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "answer_count",
		Help:      "Number of servers whose answer contained the address.",
	}, []string{"domain", "addr"})
	duration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	}, []string{"domain"})
	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run started.",
	}, []string{"domain"})
	reg.MustRegister(servers, outcomes, answers, duration, lastRun)

	servers.WithLabelValues(r.Domain).Set(float64(r.Summary.Servers))
	for _, k := range dnsresolver.Kinds {
		outcomes.WithLabelValues(r.Domain, k.String()).Set(float64(r.Summary.Count(k)))
	}
	for _, ac := range r.Ranking {
		answers.WithLabelValues(r.Domain, ac.Addr.String()).Set(float64(ac.Count))
	}
	duration.WithLabelValues(r.Domain).Set(r.Elapsed.Seconds())
	lastRun.WithLabelValues(r.Domain).Set(float64(r.Started.Unix()))

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
