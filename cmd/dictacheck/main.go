// Command dictacheck compares a transcription against its reference text and
// reports the words that were misheard, missed or added.
//
// Single comparison:
//
//	dictacheck -original lesson.txt -user attempt.txt
//
// Batch run over a JSON-lines file:
//
//	dictacheck -batch attempts.jsonl -out results.jsonl
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidwall/pretty"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/dictacheck/internal/batch"
	"github.com/MrWong99/dictacheck/internal/compare"
	"github.com/MrWong99/dictacheck/internal/config"
	"github.com/MrWong99/dictacheck/internal/health"
	"github.com/MrWong99/dictacheck/internal/observe"
	"github.com/MrWong99/dictacheck/internal/render"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// options holds the parsed command line.
type options struct {
	configPath string
	original   string
	user       string
	format     string
	batch      string
	out        string
	noColor    bool
	markers    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "dictacheck: %v\n", err)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if opts.configPath != "" {
		if cfg, err = config.Load(opts.configPath); err != nil {
			fmt.Fprintf(stderr, "dictacheck: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel, stderr))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	engine := compare.New(
		compare.WithSimilarityThreshold(cfg.Compare.SimilarityThreshold),
		compare.WithScores(cfg.Compare.MatchScore, cfg.Compare.GapScore),
		compare.WithCharHints(cfg.Compare.CharHints),
		compare.WithNormalization(compare.Normalization(cfg.Compare.Normalize)),
		compare.WithMetrics(metrics),
	)

	// ── Operations endpoint (optional) ────────────────────────────────────────
	if cfg.Server.ListenAddr != "" {
		srv := newOpsServer(cfg.Server.ListenAddr, provider, metrics, engine)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("operations endpoint error", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("operations endpoint shutdown error", "err", err)
			}
		}()
	}

	if opts.batch != "" {
		printStartupSummary(stderr, cfg, opts)
		err = runBatch(ctx, cfg, opts, engine, metrics, stdin, stdout, stderr)
	} else {
		err = runSingle(ctx, opts, engine, stdin, stdout)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted")
		} else {
			slog.Error("dictacheck failed", "err", err)
		}
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("dictacheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to an optional YAML configuration file")
	fs.StringVar(&o.original, "original", "", "file holding the reference text (- for stdin)")
	fs.StringVar(&o.user, "user", "", "file holding the transcribed text (- for stdin)")
	fs.StringVar(&o.format, "format", "text", "output format of a single comparison: text or json")
	fs.StringVar(&o.batch, "batch", "", "JSON-lines file of {id, original, user} items (- for stdin)")
	fs.StringVar(&o.out, "out", "", "output file (default stdout)")
	fs.BoolVar(&o.noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable coloured text output")
	fs.BoolVar(&o.markers, "markers", false, "wrap highlighted spans in brackets")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var errs []error
	if o.format != "text" && o.format != "json" {
		errs = append(errs, fmt.Errorf("-format %q is invalid; valid values: text, json", o.format))
	}
	switch {
	case o.batch != "":
		if o.original != "" || o.user != "" {
			errs = append(errs, errors.New("-batch cannot be combined with -original or -user"))
		}
	case o.original == "" || o.user == "":
		errs = append(errs, errors.New("both -original and -user are required (or use -batch)"))
	case o.original == "-" && o.user == "-":
		errs = append(errs, errors.New("only one of -original and -user can read stdin"))
	}
	return o, errors.Join(errs...)
}

func runSingle(ctx context.Context, opts options, engine *compare.Engine, stdin io.Reader, stdout io.Writer) error {
	original, err := readText(opts.original, stdin)
	if err != nil {
		return err
	}
	user, err := readText(opts.user, stdin)
	if err != nil {
		return err
	}

	res, err := engine.Compare(ctx, original, user)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(opts.out, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	switch opts.format {
	case "json":
		data, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = w.Write(pretty.Pretty(data))
		return err
	default:
		r := render.New(w, render.WithColor(!opts.noColor), render.WithMarkers(opts.markers))
		_, err = io.WriteString(w, r.Result(res))
		return err
	}
}

func runBatch(ctx context.Context, cfg *config.Config, opts options, engine *compare.Engine, metrics *observe.Metrics, stdin io.Reader, stdout, stderr io.Writer) error {
	in := stdin
	if opts.batch != "-" {
		f, err := os.Open(opts.batch)
		if err != nil {
			return fmt.Errorf("open batch input: %w", err)
		}
		defer f.Close()
		in = f
	}

	w, closeOut, err := openOutput(opts.out, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	runner := batch.NewRunner(engine,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithMetrics(metrics),
	)
	sum, err := runner.Run(ctx, in, batch.NewWriter(w))

	r := render.New(stderr, render.WithColor(!opts.noColor))
	_, _ = io.WriteString(stderr, r.Batch(sum))
	return err
}

func readText(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(data), nil
}

// openOutput returns the writer for -out, or stdout when it is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			slog.Warn("closing output failed", "path", path, "err", err)
		}
	}, nil
}

// ── Operations endpoint ───────────────────────────────────────────────────────

func newOpsServer(addr string, provider *observe.Provider, metrics *observe.Metrics, engine *compare.Engine) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", provider.MetricsHandler())
	health.New(
		health.WithVersion(version),
		health.WithCheckers(health.Checker{Name: "engine", Check: engine.SelfTest}),
	).Register(mux)

	slog.Info("operations endpoint listening", "addr", addr)
	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(w io.Writer, cfg *config.Config, opts options) {
	ops := "(disabled)"
	if cfg.Server.ListenAddr != "" {
		ops = cfg.Server.ListenAddr
	}
	out := opts.out
	if out == "" {
		out = "(stdout)"
	}
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║      dictacheck — batch summary       ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Version", version)
	printRow(w, "Input", opts.batch)
	printRow(w, "Output", out)
	printRow(w, "Workers", fmt.Sprint(cfg.Batch.Workers))
	printRow(w, "Threshold", fmt.Sprintf("%.2f", cfg.Compare.SimilarityThreshold))
	printRow(w, "Normalize", string(cfg.Compare.Normalize))
	printRow(w, "Ops endpoint", ops)
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, key, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Fprintf(w, "║  %-12s    : %-19s ║\n", key, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.Level()}))
}
