package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lc/dnsfan/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the server list file is not found.
	ErrNoConfig = errors.New("server list not found")
	// ErrNoServers is returned when the server list has no entries.
	ErrNoServers = errors.New("server list is empty")
)

const (
	// DefaultPath is where the server list is looked up when none is given.
	DefaultPath = "resolver-list.yml"
	// DefaultPort is appended to server entries without a port.
	DefaultPort = "53"
	// DefaultTimeout is the per-query timeout.
	DefaultTimeout = 2 * time.Second
	// DefaultNet is the query transport.
	DefaultNet = "udp"

	minTimeout = 100 * time.Millisecond
	maxTimeout = time.Minute
)

// Config holds the server list and query settings.
type Config struct {
	Servers []Server    `yaml:"servers"`
	Query   QueryConfig `yaml:"query"`
}

// Server is one entry of the server list.
type Server struct {
	IP   string `yaml:"ip"`
	Name string `yaml:"name,omitempty"`
}

// QueryConfig holds per-query settings.
type QueryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Net     string        `yaml:"net"`
}

// UnmarshalYAML accepts either the full mapping or a bare list of servers.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		return value.Decode(&c.Servers)
	}
	type plain Config
	return value.Decode((*plain)(c))
}

// Addr returns the entry as host:port, adding DefaultPort when the entry
// has none.
func (s Server) Addr() (string, error) {
	raw := strings.TrimSpace(s.IP)
	if raw == "" {
		return "", errors.New("missing ip")
	}

	if host, port, err := net.SplitHostPort(raw); err == nil {
		ip, err := netip.ParseAddr(host)
		if err != nil {
			return "", fmt.Errorf("invalid ip %q", host)
		}
		if p, err := strconv.ParseUint(port, 10, 16); err != nil || p == 0 {
			return "", fmt.Errorf("invalid port %q", port)
		}
		return net.JoinHostPort(ip.String(), port), nil
	}

	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return "", fmt.Errorf("invalid ip %q", raw)
	}
	return net.JoinHostPort(ip.String(), DefaultPort), nil
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using a filesys.ReadFS.
type FSProvider struct {
	fs   filesys.ReadFS
	path string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// New creates a provider reading path from the local disk.
// An empty path selects DefaultPath in the working directory.
func New(path string) Provider {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return NewWithPath(filesys.OS(), path)
}

// NewWithPath creates a new provider with a specific filesystem and path.
func NewWithPath(fs filesys.ReadFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Load reads, defaults and validates the configuration. A missing file is
// an error: there is no default server list.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Query.Timeout == 0 {
		c.Query.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(c.Query.Net) == "" {
		c.Query.Net = DefaultNet
	}
	c.Query.Net = strings.ToLower(strings.TrimSpace(c.Query.Net))
}

// Validate checks every entry and setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs error

	if len(c.Servers) == 0 {
		errs = multierr.Append(errs, ErrNoServers)
	}
	seen := make(map[string]int, len(c.Servers))
	for i, s := range c.Servers {
		addr, err := s.Addr()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("servers[%d]: %w", i, err))
			continue
		}
		if j, dup := seen[addr]; dup {
			errs = multierr.Append(errs, fmt.Errorf("servers[%d]: %s duplicates servers[%d]", i, addr, j))
			continue
		}
		seen[addr] = i
	}

	if c.Query.Timeout < minTimeout || c.Query.Timeout > maxTimeout {
		errs = multierr.Append(errs, fmt.Errorf("query timeout must be between %s and %s", minTimeout, maxTimeout))
	}
	switch c.Query.Net {
	case "udp", "tcp":
	default:
		errs = multierr.Append(errs, fmt.Errorf("query net must be udp or tcp, got %q", c.Query.Net))
	}
	return errs
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	info, err := p.fs.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, p.path)
		}
		return nil, fmt.Errorf("checking server list: %w", err)
	}
	if info != nil && info.IsDir() {
		return nil, fmt.Errorf("server list %s is a directory", p.path)
	}

	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, p.path)
		}
		return nil, fmt.Errorf("opening server list: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding server list: %w", err)
	}
	return &cfg, nil
}
