// Command dnsfan sends the same A query to every DNS server in a list, in
// parallel, and reports how the servers answered.
//
// Usage:
//
//	dnsfan [flags] <domain>   - Query every configured server for <domain>
//	dnsfan version            - Print version information
//
// Examples:
//
//	dnsfan example.com                         - Use ./resolver-list.yml
//	dnsfan -s fleet.yml -t 500ms example.com   - Custom list, 500ms per query
//	dnsfan --format json -o run.json example.com
//	dnsfan --prom-file /var/lib/node_exporter/dnsfan.prom example.com
//
// Every server is queried exactly once. The report lists how many servers
// answered, timed out, refused the connection or failed otherwise, followed
// by the returned IPv4 addresses ranked by how many servers returned them.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lc/dnsfan/internal/buildinfo"
	"github.com/lc/dnsfan/internal/config"
	"github.com/lc/dnsfan/internal/dnsresolver"
	"github.com/lc/dnsfan/internal/engine"
	"github.com/lc/dnsfan/internal/filesys"
	"github.com/lc/dnsfan/internal/log"
	"github.com/lc/dnsfan/internal/progress"
	"github.com/lc/dnsfan/internal/report"
)

type options struct {
	servers    string
	timeout    time.Duration
	network    string
	deadline   time.Duration
	format     string
	output     string
	promFile   string
	logLevel   string
	noProgress bool
	noColor    bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dnsfan [flags] <domain>",
		Short: "Query many DNS servers for one domain and compare the answers",
		Long: `dnsfan sends the same A query to every server in the server list at once,
waits for each to answer or time out, and reports how many servers answered,
timed out, refused the connection or failed otherwise, together with the
returned IPv4 addresses ranked by how many servers returned them.

Differences between servers point at DNS inconsistency, poisoning or
split-horizon setups. Each server is queried once; there are no retries.`,
		Example: `  dnsfan example.com
  dnsfan -s fleet.yml -t 500ms example.com
  dnsfan --format json -o run.json example.com`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("log-level") {
				log.SetLevel(opts.logLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.servers, "servers", "s", config.DefaultPath, "server list file (YAML)")
	f.DurationVarP(&opts.timeout, "timeout", "t", config.DefaultTimeout, "per-query timeout, overrides the server list setting")
	f.StringVar(&opts.network, "net", config.DefaultNet, "query transport: udp or tcp, overrides the server list setting")
	f.DurationVar(&opts.deadline, "deadline", 0, "overall deadline for the run, 0 for none")
	f.StringVar(&opts.format, "format", "text", "report format: text or json")
	f.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	f.StringVar(&opts.promFile, "prom-file", "", "also write Prometheus textfile metrics to this path")
	f.BoolVar(&opts.noProgress, "no-progress", false, "do not draw the progress bar")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "list every server's outcome in the text report")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", buildinfo.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", buildinfo.Commit)
		},
	}
	root.AddCommand(versionCmd)
	return root
}

func run(cmd *cobra.Command, opts *options, domain string) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", opts.format)
	}
	if opts.deadline < 0 {
		return fmt.Errorf("invalid deadline %s: must not be negative", opts.deadline)
	}

	cfg, err := config.New(opts.servers).Load()
	if err != nil {
		return fmt.Errorf("loading server list: %w", err)
	}
	if cmd.Flags().Changed("timeout") || cmd.Flags().Changed("net") {
		if cmd.Flags().Changed("timeout") {
			cfg.Query.Timeout = opts.timeout
		}
		if cmd.Flags().Changed("net") {
			cfg.Query.Net = opts.network
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	}
	targets, err := targetsFrom(cfg)
	if err != nil {
		return err
	}

	notice := cmd.OutOrStdout()
	if opts.format == "json" || opts.output != "" {
		notice = cmd.ErrOrStderr()
	}
	fmt.Fprintf(notice, "Will query %d servers for domain %s\n", len(targets), domain)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.deadline)
		defer cancel()
	}

	resolver := dnsresolver.New(cfg.Query.Timeout, dnsresolver.WithNet(cfg.Query.Net))
	var (
		engOpts []engine.Opt
		bar     *progress.Bar
	)
	if !opts.noProgress && isTerminal(cmd.ErrOrStderr()) {
		bar = progress.New(cmd.ErrOrStderr(), len(targets), domain)
		engOpts = append(engOpts, engine.WithObserver(bar))
	}

	res, err := engine.New(resolver, engOpts...).Run(ctx, targets, domain)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch opts.format {
	case "json":
		err = report.JSON(&buf, res)
	default:
		useColor := !opts.noColor && opts.output == "" && !color.NoColor && isTerminal(cmd.OutOrStdout())
		err = report.Text(&buf, res, report.Options{Color: useColor, Verbose: opts.verbose})
	}
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := filesys.AtomicWrite(filesys.OS(), opts.output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		log.Info("report written", "path", opts.output)
	} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}

	if opts.promFile != "" {
		if err := report.WriteTextfile(opts.promFile, res); err != nil {
			return err
		}
		log.Info("metrics written", "path", opts.promFile)
	}
	return nil
}

// targetsFrom turns validated config entries into engine targets.
func targetsFrom(cfg *config.Config) ([]engine.Target, error) {
	targets := make([]engine.Target, 0, len(cfg.Servers))
	for i, s := range cfg.Servers {
		addr, err := s.Addr()
		if err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}
		targets = append(targets, engine.Target{Name: s.Name, Addr: addr})
	}
	return targets, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
