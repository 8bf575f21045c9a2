package dnsresolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/miekg/dns"
)

var (
	// ErrNoRecords is returned when a NOERROR answer carries no A records.
	ErrNoRecords = errors.New("no A records found")
	// ErrEmptyMsg is returned when the exchange yields no DNS message.
	ErrEmptyMsg = errors.New("empty message")
	// ErrEmptyHostname is returned when an empty hostname is provided.
	ErrEmptyHostname = errors.New("empty hostname")
	// ErrRcode is returned when the server answers with a non-NOERROR rcode.
	ErrRcode = errors.New("unsuccessful rcode")
)

const (
	// DefaultTimeout bounds a single query when no other timeout is configured.
	DefaultTimeout = 2 * time.Second
	// DefaultNet is the transport used when none is configured.
	DefaultNet = "udp"
)

var _ Resolver = (*Client)(nil)

// Resolver resolves a domain's A records against one specific server.
type Resolver interface {
	// Resolve returns the IPv4 addresses server answered for domain.
	// Failures are returned as *Error so callers can read their Kind.
	Resolve(ctx context.Context, server, domain string) ([]netip.Addr, error)
}

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client implements Resolver on top of github.com/miekg/dns.
// It makes exactly one attempt per call; a lost packet is reported as a
// timeout rather than hidden behind a retry.
type Client struct {
	Client  Exchanger
	Timeout time.Duration
	Net     string
}

// Opt is a function option for configuring the Client.
type Opt func(c *Client)

// New creates a Client with the given per-query timeout.
// A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration, opts ...Opt) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		Timeout: timeout,
		Net:     DefaultNet,
	}
	for _, o := range opts {
		o(c)
	}
	if c.Client == nil {
		c.Client = &dns.Client{
			Net:     c.Net,
			Timeout: c.Timeout,
		}
	}
	return c
}

// WithNet returns an option selecting the transport ("udp" or "tcp").
func WithNet(network string) Opt {
	return func(c *Client) {
		if network != "" {
			c.Net = network
		}
	}
}

// WithTimeout returns an option overriding the timeout given to New.
func WithTimeout(timeout time.Duration) Opt {
	return func(c *Client) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithExchanger returns an option that replaces the underlying DNS client.
func WithExchanger(e Exchanger) Opt {
	return func(c *Client) {
		c.Client = e
	}
}

// Resolve sends one A query for domain to server and returns the IPv4
// addresses from the answer section.
func (c *Client) Resolve(ctx context.Context, server, domain string) ([]netip.Addr, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, &Error{Kind: Other, Server: server, Err: ErrEmptyHostname}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(domain), dns.TypeA)

	resp, _, err := c.Client.ExchangeContext(ctx, req, server)
	if err != nil {
		return nil, &Error{Kind: Classify(err), Server: server, Err: err}
	}

	addrs, err := parseA(resp)
	if err != nil {
		return nil, &Error{Kind: Other, Server: server, Err: err}
	}
	return addrs, nil
}

// parseA extracts the IPv4 addresses of every A record in resp.
func parseA(resp *dns.Msg) ([]netip.Addr, error) {
	if resp == nil {
		return nil, ErrEmptyMsg
	}
	if resp.Rcode != dns.RcodeSuccess {
		rc, ok := dns.RcodeToString[resp.Rcode]
		if !ok {
			rc = fmt.Sprint(resp.Rcode)
		}
		return nil, fmt.Errorf("%w: %s", ErrRcode, rc)
	}

	var addrs []netip.Addr
	for _, rr := range resp.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(a.A.To4())
		if !ok {
			continue
		}
		addrs = append(addrs, addr)
	}

	if len(addrs) == 0 {
		return nil, ErrNoRecords
	}
	return addrs, nil
}

// Kind is the classification of a finished query.
type Kind int

const (
	// Success means the server answered with at least one A record.
	Success Kind = iota
	// Timeout means no answer arrived before the deadline.
	Timeout
	// Refused means the server actively refused the connection.
	Refused
	// Other covers every remaining failure: bad rcode, empty answer,
	// unreachable network, malformed response.
	Other
)

// Kinds lists every Kind in report order.
var Kinds = [...]Kind{Success, Timeout, Refused, Other}

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case Refused:
		return "refused"
	default:
		return "other"
	}
}

// Error is a failed query together with its classification.
type Error struct {
	Kind   Kind
	Server string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("query %s: %s: %v", e.Server, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps err to a Kind. It is lossless for *Error values and
// inspects the wrapped chain for anything else.
func Classify(err error) Kind {
	if err == nil {
		return Success
	}

	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr.Kind
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Refused
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return Timeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Timeout
	}
	return Other
}
