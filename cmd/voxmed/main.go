// Command voxmed is the main entry point for the voxmed dictation server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/voxmed/voxmed/internal/aicorrect"
	"github.com/voxmed/voxmed/internal/app"
	"github.com/voxmed/voxmed/internal/config"
	"github.com/voxmed/voxmed/internal/health"
	"github.com/voxmed/voxmed/internal/observe"
	"github.com/voxmed/voxmed/internal/resilience"
	"github.com/voxmed/voxmed/internal/segment"
	"github.com/voxmed/voxmed/internal/segment/fillers"
	"github.com/voxmed/voxmed/internal/segment/silenterr"
	"github.com/voxmed/voxmed/internal/server"
	"github.com/voxmed/voxmed/internal/template"
	"github.com/voxmed/voxmed/internal/vocab"
	"github.com/voxmed/voxmed/pkg/provider/llm"
	"github.com/voxmed/voxmed/pkg/provider/llm/anyllm"
	oaillm "github.com/voxmed/voxmed/pkg/provider/llm/openai"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxmed: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxmed: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxmed starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxmed",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Vocabulary store ──────────────────────────────────────────────────────
	var (
		store    vocab.Store
		checkers []health.Checker
	)
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to create postgres pool", "err", err)
			return 1
		}
		defer pool.Close()

		if err := vocab.Migrate(ctx, pool); err != nil {
			slog.Error("failed to migrate vocabulary schema", "err", err)
			return 1
		}
		store = vocab.NewPostgresStore(pool)
		checkers = append(checkers, health.Checker{Name: "database", Check: pool.Ping})
		slog.Info("vocabulary store ready", "backend", "postgres")
	} else {
		store = vocab.NewMemStore()
		slog.Info("vocabulary store ready", "backend", "memory")
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	detector := silenterr.New()
	for pattern, correction := range cfg.Pipeline.SilentErrors {
		if err := detector.Extend(pattern, correction); err != nil {
			slog.Error("invalid silent error pattern", "pattern", pattern, "err", err)
			return 1
		}
	}
	processor := segment.New(
		segment.WithFillerCleaner(fillers.New(fillers.WithExtra(cfg.Pipeline.ExtraFillers...))),
		segment.WithSilentErrorDetector(detector),
	)

	// ── Templates ─────────────────────────────────────────────────────────────
	templates := template.NewStore()
	for _, t := range cfg.Templates {
		if err := templates.Put(template.Template{Name: t.Name, Content: t.Content}); err != nil {
			slog.Error("invalid template", "name", t.Name, "err", err)
			return 1
		}
	}

	// ── AI corrector (optional) ───────────────────────────────────────────────
	var corrector *aicorrect.Corrector
	if cfg.AI.Provider != "" {
		provider, err := buildLLMProvider(cfg.AI)
		if err != nil {
			slog.Error("failed to create AI provider", "provider", cfg.AI.Provider, "err", err)
			return 1
		}
		var opts []aicorrect.Option
		if cfg.AI.Temperature > 0 {
			opts = append(opts, aicorrect.WithTemperature(cfg.AI.Temperature))
		}
		if cfg.AI.MaxTokens > 0 {
			opts = append(opts, aicorrect.WithMaxTokens(cfg.AI.MaxTokens))
		}
		corrector = aicorrect.New(provider, opts...)
		slog.Info("AI corrector ready", "provider", provider.Name(), "model", cfg.AI.Model, "mode", cfg.AI.Mode)
	} else {
		slog.Info("AI correction disabled, no provider configured")
	}

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(app.Deps{
		Processor: processor,
		Vocab:     store,
		Stats:     vocab.NewStats(cfg.Learning.ProposeThreshold),
		Templates: templates,
		Corrector: corrector,
		AIMode:    cfg.AI.Mode,
	})
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(old, new, templates)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := server.New(cfg.Server, application, checkers)

	slog.Info("server ready, press Ctrl+C to shut down")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// buildLLMProvider constructs the completion backend chain named in cfg:
// the primary backend, wrapped with per-backend circuit breakers and any
// configured fallbacks.
func buildLLMProvider(cfg config.AIConfig) (llm.Provider, error) {
	primary, err := buildBackend(config.AIBackendConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
	})
	if err != nil {
		return nil, err
	}

	chain := resilience.NewLLMFallback(primary)
	for _, fb := range cfg.Fallbacks {
		backend, err := buildBackend(fb)
		if err != nil {
			return nil, fmt.Errorf("fallback %q: %w", fb.Provider, err)
		}
		chain.AddFallback(backend)
	}
	return chain, nil
}

// buildBackend constructs one model backend. The native OpenAI client is
// used for "openai"; everything else goes through the any-llm bridge.
func buildBackend(cfg config.AIBackendConfig) (llm.Provider, error) {
	if cfg.Provider == "openai" {
		var opts []oaillm.Option
		if cfg.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(cfg.BaseURL))
		}
		return oaillm.New(cfg.APIKey, cfg.Model, opts...)
	}

	var opts []anyllmlib.Option
	if cfg.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}
	return anyllm.New(cfg.Provider, cfg.Model, opts...)
}

// applyConfigChange applies the hot-reloadable parts of a config edit. The
// pipeline tables and storage settings need a restart; only the log level
// and templates change live.
func applyConfigChange(old, new *config.Config, templates *template.Store) {
	d := config.Diff(old, new)

	if d.LogLevelChanged {
		slog.SetDefault(newLogger(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.TemplatesChanged {
		for _, tc := range d.TemplateChanges {
			if tc.Removed {
				templates.Remove(tc.Name)
				slog.Info("template removed", "name", tc.Name)
				continue
			}
			for _, t := range new.Templates {
				if t.Name == tc.Name {
					if err := templates.Put(template.Template{Name: t.Name, Content: t.Content}); err != nil {
						slog.Warn("template reload failed", "name", t.Name, "err", err)
					} else {
						slog.Info("template reloaded", "name", t.Name)
					}
					break
				}
			}
		}
	}
	if d.PipelineChanged || d.LearningChanged {
		slog.Warn("pipeline and learning settings changed, restart required to apply")
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

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
