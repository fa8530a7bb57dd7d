// Command sprachlog is the command-line entry point for the sprachlog
// voice-entry assistant. The desktop shell talks to the same internal
// packages; this binary exposes them for scripting and diagnosis.
//
// Usage:
//
//	sprachlog -config config.yaml serve
//	sprachlog -config config.yaml add <dictated text...>
//	sprachlog -config config.yaml list -client NAME -year YYYY -month M
//	sprachlog -config config.yaml glossar
//	sprachlog -config config.yaml backups -file PATH
//	sprachlog -config config.yaml restore -backup PATH -file PATH
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mfalkner/sprachlog/internal/app"
	"github.com/mfalkner/sprachlog/internal/backup"
	"github.com/mfalkner/sprachlog/internal/config"
	"github.com/mfalkner/sprachlog/internal/glossar"
	"github.com/mfalkner/sprachlog/internal/logbook"
	"github.com/mfalkner/sprachlog/internal/observe"
	"github.com/mfalkner/sprachlog/internal/resilience"
	"github.com/mfalkner/sprachlog/pkg/provider/parse"
	parseopenai "github.com/mfalkner/sprachlog/pkg/provider/parse/openai"
	"github.com/mfalkner/sprachlog/pkg/provider/stt"
	sttopenai "github.com/mfalkner/sprachlog/pkg/provider/stt/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "sprachlog: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "sprachlog: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "sprachlog"})
	if err != nil {
		slog.Error("failed to init telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "err", err)
		}
	}()

	if cfg.Server.MetricsAddr != "" {
		go serveMetrics(cfg.Server.MetricsAddr)
	}

	// ── Assemble the pipeline ─────────────────────────────────────────────
	backups := backup.New(backupOpts(cfg)...)
	defer backups.Wait()

	registry := config.NewFileRegistry(cfg.Files)
	cache := glossar.NewCache()
	glossars := glossar.NewService(cache, backups, glossarOpts(cfg)...)
	normalizer := glossar.NewNormalizer(normalizerOpts(cfg)...)
	writer := logbook.NewWriter(backups)

	sttProvider, parser, err := buildProviders(cfg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	a := app.New(registry, sttProvider, parser, glossars, normalizer, writer)

	switch flag.Arg(0) {
	case "serve":
		return runServe(ctx, *configPath, a)
	case "add":
		return runAdd(ctx, a, parser, flag.Args()[1:])
	case "list":
		return runList(ctx, registry, writer, flag.Args()[1:])
	case "glossar":
		a.WarmUp(ctx)
		merged := a.Merged()
		if merged == nil {
			fmt.Println("no glossars available")
			return 1
		}
		printGlossar(merged)
		return 0
	case "backups":
		return runBackups(backups, flag.Args()[1:])
	case "restore":
		return runRestore(backups, flag.Args()[1:])
	default:
		fmt.Fprintln(os.Stderr, "sprachlog: expected one of: serve, add, list, glossar, backups, restore")
		return 2
	}
}

// runServe keeps the process alive for the desktop shell: glossars warmed
// up, metrics endpoint serving, and the config file watched so file-set
// edits take effect without a restart.
func runServe(ctx context.Context, configPath string, a *app.App) int {
	a.WarmUp(ctx)

	watcher, err := config.NewWatcher(configPath, func(old, new *config.Config) {
		a.OnConfigChange(old, new)
		a.WarmUp(ctx)
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	slog.Info("serving", "config", configPath)
	<-ctx.Done()
	return 0
}

func runAdd(ctx context.Context, a *app.App, parser parse.Parser, args []string) int {
	if parser == nil {
		fmt.Fprintln(os.Stderr, "sprachlog: add requires a configured parser provider")
		return 1
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "sprachlog: add requires the dictated text as arguments")
		return 2
	}

	a.WarmUp(ctx)

	act, path, err := a.IntakeTranscript(ctx, text, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sprachlog: %v\n", err)
		return 1
	}
	fmt.Printf("written to %s (%s): %s\n", path, logbook.MonthSheet(act.Date.Month()), act.Description)
	return 0
}

func runList(ctx context.Context, registry *config.FileRegistry, writer *logbook.Writer, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	client := fs.String("client", "", "client name")
	year := fs.Int("year", time.Now().Year(), "calendar year")
	month := fs.Int("month", int(time.Now().Month()), "calendar month (1-12)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *client == "" || *month < 1 || *month > 12 {
		fmt.Fprintln(os.Stderr, "sprachlog: list requires -client and a valid -month")
		return 2
	}

	path, err := registry.Resolve(*client, *year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sprachlog: %v\n", err)
		return 1
	}

	rows, err := writer.GetActivities(ctx, path, time.Month(*month))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sprachlog: %v\n", err)
		return 1
	}
	for _, r := range rows {
		duration := "-"
		if r.DurationMinutes != nil {
			duration = fmt.Sprintf("%d min", *r.DurationMinutes)
		}
		fmt.Printf("%3d  %-20s %-40s %s\n", r.Row, r.Topic, r.Description, duration)
	}
	return 0
}

func runBackups(backups *backup.Manager, args []string) int {
	fs := flag.NewFlagSet("backups", flag.ContinueOnError)
	file := fs.String("file", "", "workbook path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "sprachlog: backups requires -file")
		return 2
	}

	paths, err := backups.List(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sprachlog: %v\n", err)
		return 1
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return 0
}

func runRestore(backups *backup.Manager, args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	from := fs.String("backup", "", "backup path to restore from")
	file := fs.String("file", "", "workbook path to restore to")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *from == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "sprachlog: restore requires -backup and -file")
		return 2
	}

	if err := backups.Restore(*from, *file); err != nil {
		fmt.Fprintf(os.Stderr, "sprachlog: %v\n", err)
		return 1
	}
	fmt.Printf("restored %s from %s\n", *file, *from)
	return 0
}

func printGlossar(g *glossar.Glossar) {
	for _, cat := range glossar.Categories() {
		entries := g.ByCategory[cat]
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("%s:\n", cat)
		for _, e := range entries {
			if len(e.Synonyms) > 0 {
				fmt.Printf("  %s (%s)\n", e.Term, strings.Join(e.Synonyms, ", "))
			} else {
				fmt.Printf("  %s\n", e.Term)
			}
		}
	}
}

// buildProviders instantiates the configured external providers, each
// wrapped in a transient-failure retry. Missing provider entries yield nil
// providers; actions that need them report that at use time.
func buildProviders(cfg *config.Config) (stt.Provider, parse.Parser, error) {
	var sttProvider stt.Provider
	var parser parse.Parser

	if entry := cfg.Providers.STT; entry.Name != "" {
		switch entry.Name {
		case "openai":
			opts := []sttopenai.Option{}
			if entry.BaseURL != "" {
				opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
			}
			p, err := sttopenai.New(apiKey(entry), entry.Model, opts...)
			if err != nil {
				return nil, nil, fmt.Errorf("stt provider: %w", err)
			}
			sttProvider = resilience.NewSTTProvider(p, resilience.RetryConfig{})
		default:
			return nil, nil, fmt.Errorf("stt provider %q is not supported", entry.Name)
		}
	}

	if entry := cfg.Providers.Parser; entry.Name != "" {
		switch entry.Name {
		case "openai":
			opts := []parseopenai.Option{}
			if entry.BaseURL != "" {
				opts = append(opts, parseopenai.WithBaseURL(entry.BaseURL))
			}
			p, err := parseopenai.New(apiKey(entry), entry.Model, opts...)
			if err != nil {
				return nil, nil, fmt.Errorf("parser provider: %w", err)
			}
			parser = resilience.NewParser(p, resilience.RetryConfig{})
		default:
			return nil, nil, fmt.Errorf("parser provider %q is not supported", entry.Name)
		}
	}

	return sttProvider, parser, nil
}

// apiKey prefers the config file's key and falls back to OPENAI_API_KEY.
func apiKey(entry config.ProviderEntry) string {
	if entry.APIKey != "" {
		return entry.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

func backupOpts(cfg *config.Config) []backup.Option {
	var opts []backup.Option
	if cfg.Backup.Retention > 0 {
		opts = append(opts, backup.WithRetention(cfg.Backup.Retention))
	}
	return opts
}

func glossarOpts(cfg *config.Config) []glossar.ServiceOption {
	var opts []glossar.ServiceOption
	if cfg.Glossar.FuzzyThreshold > 0 {
		opts = append(opts, glossar.WithClusterThreshold(cfg.Glossar.FuzzyThreshold))
	}
	return opts
}

func normalizerOpts(cfg *config.Config) []glossar.NormalizerOption {
	var opts []glossar.NormalizerOption
	if cfg.Glossar.FuzzyThreshold > 0 {
		opts = append(opts, glossar.WithThreshold(cfg.Glossar.FuzzyThreshold))
	}
	return opts
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics endpoint failed", "addr", addr, "err", err)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
