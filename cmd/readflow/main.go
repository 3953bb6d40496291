// Command readflow pairs simplex nanopore reads into duplex reads and
// writes every read, simplex and duplex, with corrected family bookkeeping.
//
// Reads are JSON Lines on the input; the pairs file lists one
// "template complement" id pair per line.
//
//	readflow --pairs pairs.txt --input reads.jsonl --output called.jsonl
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/readflow/bootstrap"
	"github.com/kbukum/readflow/config"
	"github.com/kbukum/readflow/logger"
	"github.com/kbukum/readflow/monitor"
	"github.com/kbukum/readflow/observability"
	"github.com/kbukum/readflow/read"
	"github.com/kbukum/readflow/readio"
	"github.com/kbukum/readflow/version"
)

const serviceName = "readflow"

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"queue-capacity":      "pipeline.queue_capacity",
	"workers":             "pipeline.encoder_workers",
	"pairs":               "pipeline.pairs_file",
	"pairs-only":          "pipeline.pairs_only",
	"explicit-candidates": "pipeline.explicit_candidates",
	"incomplete-families": "pipeline.incomplete_families",
	"with-signal":         "pipeline.with_signal",
	"monitor":             "monitor.enabled",
	"monitor-addr":        "monitor.addr",
	"otlp-endpoint":       "telemetry.endpoint",
	"log-level":           "logging.level",
}

type options struct {
	configFile string
	envFile    string
	input      string
	output     string
	progress   time.Duration
	version    bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./config.yml or ./config/config.yml)")
	fs.StringVar(&opts.envFile, "env-file", "", ".env file to load")
	fs.StringVarP(&opts.input, "input", "i", "-", "JSON Lines reads, - for stdin")
	fs.StringVarP(&opts.output, "output", "o", "-", "JSON Lines output, - for stdout")
	fs.DurationVar(&opts.progress, "progress", 10*time.Second, "progress log interval, 0 to disable")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	fs.StringP("pairs", "p", "", "pairs file of template/complement read ids")
	fs.Bool("pairs-only", false, "only read ids named by the pairs file")
	fs.Bool("explicit-candidates", false, "trust num_duplex_candidate_pairs from the input instead of deriving it")
	fs.Int("workers", 0, "duplex encoder workers (default: number of CPUs)")
	fs.Int("queue-capacity", 0, "capacity of every node queue")
	fs.String("incomplete-families", "", "families left at shutdown: discard or flush")
	fs.Bool("with-signal", false, "write raw signal, moves and stereo features")
	fs.Bool("monitor", false, "serve /health, /stats and /version")
	fs.String("monitor-addr", "", "monitor listen address")
	fs.String("otlp-endpoint", "", "OTLP/HTTP endpoint for traces and metrics")
	fs.String("log-level", "", "debug, info, warn or error")
	return fs
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "readflow:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.version {
		fmt.Println(version.Get().String())
		return nil
	}

	loadOpts := []config.LoaderOption{config.WithFlags(fs, flagKeys)}
	if opts.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(opts.envFile))
	}
	cfg, err := config.Load(serviceName, loadOpts...)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	return execute(ctx, app, opts)
}

// execute wires the graph and its supporting components into app and runs
// one pass over the input.
func execute(ctx context.Context, app *bootstrap.App, opts options) error {
	cfg := app.Cfg
	log := app.Logger

	pairs, err := loadPairs(cfg.Pipeline.PairsFile)
	if err != nil {
		return err
	}
	out, err := readio.Create(opts.output, cfg.Pipeline.WithSignal)
	if err != nil {
		return err
	}
	f, err := buildFlow(cfg.Pipeline, pairs, out, log)
	if err != nil {
		return multierr.Append(err, out.Close())
	}

	if cfg.Telemetry.Endpoint != "" {
		if err := app.RegisterComponent(observability.NewTelemetry(observability.TelemetryConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: app.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			SampleRate:     cfg.Telemetry.SampleRatio,
		})); err != nil {
			return err
		}
	}
	if cfg.Monitor.Enabled {
		srv := monitor.New(monitor.Config{Addr: cfg.Monitor.Addr}, cfg.Name, app.Components.HealthAll, f.graph, log)
		if err := app.RegisterComponent(srv); err != nil {
			return err
		}
	}
	if err := app.RegisterComponent(f.graph); err != nil {
		return err
	}

	reg, err := f.graph.RegisterMetrics(observability.Meter("github.com/kbukum/readflow/pipeline"))
	if err != nil {
		return err
	}
	app.OnStop(func(context.Context) error { return reg.Unregister() })

	return app.RunTask(ctx, func(ctx context.Context) error {
		in, err := readio.Open(opts.input)
		if err != nil {
			return multierr.Append(err, out.Close())
		}

		start := time.Now()
		done := make(chan struct{})
		var fed int

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(done)
			var err error
			fed, err = f.feed(gctx, in)
			return err
		})
		g.Go(func() error {
			reportProgress(gctx, done, f.graph, opts.progress, log)
			return nil
		})

		err = multierr.Append(g.Wait(), out.Close())
		logResult(log, f, fed, time.Since(start))
		return err
	})
}

func loadPairs(path string) (*read.PairTable, error) {
	if path == "" {
		return read.NewPairTable(nil)
	}
	return read.LoadPairsFile(path)
}

func logResult(log *logger.Logger, f *flow, fed int, elapsed time.Duration) {
	fields := logger.Fields("reads_in", fed, "pairs", f.pairs.Len(), logger.FieldRunID, f.graph.RunID())
	for k, v := range logger.DurationFields("run", elapsed) {
		fields[k] = v
	}
	for _, s := range f.graph.Stats() {
		for name, v := range s.Counters {
			fields[s.Name+"."+name] = v
		}
	}
	log.Info("run complete", fields)
}
