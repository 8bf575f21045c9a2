package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/engine"
	"github.com/lc/dnsfan/pkg/api"
)

type ReportTestSuite struct {
	suite.Suite
	result *engine.Result
}

func (s *ReportTestSuite) SetupTest() {
	a := netip.MustParseAddr("1.2.3.4")
	b := netip.MustParseAddr("5.6.7.8")
	outcomes := []engine.Outcome{
		{Target: engine.Target{Addr: "10.0.0.1:53", Name: "alpha"}, Kind: dnsresolver.Success, Addrs: []netip.Addr{a}, RTT: 12 * time.Millisecond},
		{Target: engine.Target{Addr: "10.0.0.2:53"}, Kind: dnsresolver.Success, Addrs: []netip.Addr{a}, RTT: 15 * time.Millisecond},
		{Target: engine.Target{Addr: "10.0.0.3:53"}, Kind: dnsresolver.Success, Addrs: []netip.Addr{b}, RTT: 20 * time.Millisecond},
		{Target: engine.Target{Addr: "10.0.0.4:53"}, Kind: dnsresolver.Refused, Err: errors.New("connection refused"), RTT: time.Millisecond},
		{Target: engine.Target{Addr: "10.0.0.5:53"}, Kind: dnsresolver.Timeout, Err: errors.New("i/o timeout"), RTT: 2 * time.Second},
	}
	s.result = &engine.Result{
		RunID:    "2b0e0a52-2c1c-4d59-a3b5-0d2b2f9b8f10",
		Domain:   "example.com",
		Started:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:  2 * time.Second,
		Summary:  engine.Summary{Servers: 5, Responses: 3, Timeouts: 1, Refused: 1},
		Ranking:  engine.Aggregate(outcomes),
		Outcomes: outcomes,
	}
}

func (s *ReportTestSuite) TestText() {
	var buf bytes.Buffer
	s.Require().NoError(Text(&buf, s.result, Options{}))
	out := buf.String()

	s.Contains(out, "Queried 5 servers for example.com")
	s.Contains(out, "Responding servers:       3")
	s.Contains(out, "Timed out servers:        1")
	s.Contains(out, "Connection refused:       1")
	s.Contains(out, "Other failures:           0")
	s.Contains(out, "IP ADDRESS")
	s.NotContains(out, "\x1b[", "no ANSI codes without color")
	s.NotContains(out, "SERVERS:")

	first := strings.Index(out, "1.2.3.4")
	second := strings.Index(out, "5.6.7.8")
	s.Require().Positive(first)
	s.Require().Positive(second)
	s.Less(first, second, "higher count must be listed first")
	s.Contains(out, "67%")
}

func (s *ReportTestSuite) TestTextVerbose() {
	var buf bytes.Buffer
	s.Require().NoError(Text(&buf, s.result, Options{Verbose: true}))
	out := buf.String()

	s.Contains(out, "SERVERS:")
	s.Contains(out, "alpha (10.0.0.1:53)")
	s.Contains(out, "refused")
	s.Contains(out, "i/o timeout")
}

func (s *ReportTestSuite) TestTextNoAnswers() {
	s.result.Ranking = []engine.AddrCount{}
	s.result.Summary = engine.Summary{Servers: 2, Timeouts: 2}

	var buf bytes.Buffer
	s.Require().NoError(Text(&buf, s.result, Options{}))

	s.Contains(buf.String(), "No server returned an A record.")
	s.NotContains(buf.String(), "IP ADDRESS")
}

func (s *ReportTestSuite) TestTextColor() {
	var buf bytes.Buffer
	s.Require().NoError(Text(&buf, s.result, Options{Color: true}))

	s.Contains(buf.String(), "\x1b[")
}

func (s *ReportTestSuite) TestJSON() {
	var buf bytes.Buffer
	s.Require().NoError(JSON(&buf, s.result))

	var got api.Report
	s.Require().NoError(json.Unmarshal(buf.Bytes(), &got))

	s.Equal("example.com", got.Domain)
	s.Equal(s.result.RunID, got.RunID)
	s.Equal(int64(2000), got.ElapsedMS)
	s.Equal(api.Summary{Servers: 5, Responses: 3, Timeouts: 1, Refused: 1}, got.Summary)
	s.Equal([]api.AddressCount{{Addr: "1.2.3.4", Count: 2}, {Addr: "5.6.7.8", Count: 1}}, got.Addresses)
	s.Require().Len(got.Servers, 5)
	s.Equal("alpha", got.Servers[0].Name)
	s.Equal(12.0, got.Servers[0].RTTMS)
	s.Equal("refused", got.Servers[3].Outcome)
	s.Equal("connection refused", got.Servers[3].Error)
	s.Empty(got.Servers[3].Addrs)
}

func (s *ReportTestSuite) TestJSONEmptyRankingIsArray() {
	s.result.Ranking = []engine.AddrCount{}

	var buf bytes.Buffer
	s.Require().NoError(JSON(&buf, s.result))

	s.Contains(buf.String(), `"addresses": []`)
}

func (s *ReportTestSuite) TestWriteTextfile() {
	path := filepath.Join(s.T().TempDir(), "dnsfan.prom")

	s.Require().NoError(WriteTextfile(path, s.result))

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	out := string(data)
	s.Contains(out, `dnsfan_servers{domain="example.com"} 5`)
	s.Contains(out, `dnsfan_outcomes{domain="example.com",kind="success"} 3`)
	s.Contains(out, `dnsfan_outcomes{domain="example.com",kind="timeout"} 1`)
	s.Contains(out, `dnsfan_outcomes{domain="example.com",kind="refused"} 1`)
	s.Contains(out, `dnsfan_outcomes{domain="example.com",kind="other"} 0`)
	s.Contains(out, `dnsfan_answer_count{addr="1.2.3.4",domain="example.com"} 2`)
	s.Contains(out, `dnsfan_run_duration_seconds{domain="example.com"} 2`)
}

func (s *ReportTestSuite) TestWriteTextfileBadDir() {
	err := WriteTextfile(filepath.Join(s.T().TempDir(), "missing", "x.prom"), s.result)
	s.Error(err)
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}
