// Command hashsearch prints numbers whose SHA-256 digest, taken over the
// number's decimal form, ends in a run of zero hex digits.
//
//	hashsearch -N 3 -F 6
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.org/hashsearch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	configPath  string
	logLevel    string
	zeros       uint
	matches     uint
	start       uint64
	metricsAddr string
	tracerAddr  string

	config hashsearch.SearchConfig
	logger *slog.Logger
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "hashsearch -N <zeros_need> -F <matches_need>",
		Short: "Find numbers whose SHA-256 digest ends in N zeros",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.complete(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts.config, out, opts.logger)
		},
	}

	flags := cmd.Flags()
	flags.UintVarP(&opts.zeros, "zeros", "N", 0, "number of trailing zeros the hex digest must end with")
	flags.UintVarP(&opts.matches, "matches", "F", 0, "number of matching digests to print")
	flags.Uint64Var(&opts.start, "start", 1, "first candidate to try")
	flags.StringVarP(&opts.configPath, "config", "c", "", "JSON or YAML config file")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. localhost:9100")
	flags.StringVar(&opts.tracerAddr, "tracer-addr", "", "tracing server address")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

// complete merges the config file with the flags that were set and validates
// the result.
func (o *options) complete(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var config hashsearch.SearchConfig
	if o.configPath != "" {
		if err := hashsearch.ReadConfig(o.configPath, &config); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		for _, name := range []string{"zeros", "matches"} {
			if !flags.Changed(name) {
				return fmt.Errorf("required flag -%s not set", flags.Lookup(name).Shorthand)
			}
		}
	}

	if flags.Changed("zeros") {
		config.ZerosNeeded = o.zeros
	}
	if flags.Changed("matches") {
		config.MatchesNeeded = o.matches
	}
	if flags.Changed("start") || config.Start == 0 {
		config.Start = o.start
	}
	if flags.Changed("metrics-addr") {
		config.MetricsListenAddr = o.metricsAddr
	}
	if flags.Changed("tracer-addr") {
		config.TracerServerAddr = o.tracerAddr
	}
	if err := config.Validate(); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", o.logLevel)
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.config = config
	return nil
}

func run(ctx context.Context, config hashsearch.SearchConfig, out io.Writer, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	searcher := hashsearch.NewSearcher(config,
		hashsearch.WithOutput(out),
		hashsearch.WithLogger(logger),
		hashsearch.WithMetrics(hashsearch.NewMetrics(registry)))
	if err := searcher.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := searcher.Close(); err != nil {
			logger.Warn("closing searcher", "error", err)
		}
	}()

	var (
		res       hashsearch.Result
		searchErr error
		done      = make(chan struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	if config.MetricsListenAddr != "" {
		srv := &http.Server{
			Addr:              config.MetricsListenAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", config.MetricsListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-done:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		defer close(done)
		res, searchErr = searcher.Run(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	switch {
	case errors.Is(searchErr, hashsearch.ErrExhausted):
		fmt.Fprintf(out, "no more candidates after %d\n", res.LastAsked)
	case searchErr != nil:
		return searchErr
	}
	fmt.Fprintf(out, "Done in %v, last asked = %d\n", res.Elapsed, res.LastAsked)
	return nil
}
