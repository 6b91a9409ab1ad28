// Command taleforge is the main entry point for the Taleforge narration server.
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
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/taleforge/taleforge/internal/config"
	"github.com/taleforge/taleforge/internal/game"
	"github.com/taleforge/taleforge/internal/observe"
	"github.com/taleforge/taleforge/internal/save"
	savepg "github.com/taleforge/taleforge/internal/save/postgres"
	"github.com/taleforge/taleforge/internal/server"
	"github.com/taleforge/taleforge/internal/session"
	"github.com/taleforge/taleforge/pkg/audio/wsbridge"
	"github.com/taleforge/taleforge/pkg/narration/gemini"
)

const version = "0.1.0"

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
			fmt.Fprintf(os.Stderr, "taleforge: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "taleforge: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("taleforge starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "taleforge",
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
	metrics := observe.DefaultMetrics()

	// ── Save store ────────────────────────────────────────────────────────────
	var (
		saves      save.Store
		savesCheck observe.Checker
	)
	if dsn := cfg.Saves.PostgresDSN; dsn != "" {
		store, err := savepg.NewStore(ctx, dsn)
		if err != nil {
			slog.Error("failed to open postgres save store", "err", err)
			return 1
		}
		defer store.Close()
		saves = store
		savesCheck = observe.Checker{Name: "saves", Check: store.Ping}
		slog.Info("save store ready", "backend", "postgres")
	} else {
		saves = save.NewMemStore()
		savesCheck = observe.Checker{Name: "saves", Check: func(context.Context) error { return nil }}
		slog.Info("save store ready", "backend", "memory — saves are lost on restart")
	}

	// ── Audio bridge and narration engine ─────────────────────────────────────
	bridge := wsbridge.New(logger)

	var engineOpts []gemini.Option
	if cfg.Narration.Model != "" {
		engineOpts = append(engineOpts, gemini.WithModel(cfg.Narration.Model))
	}
	if cfg.Narration.BaseURL != "" {
		engineOpts = append(engineOpts, gemini.WithBaseURL(cfg.Narration.BaseURL))
	}
	engine := gemini.New(cfg.Narration.APIKey, engineOpts...)

	// ── Session orchestrator ──────────────────────────────────────────────────
	state := game.NewState()
	orchOpts := []session.Option{
		session.WithLogger(logger),
		session.WithMetrics(metrics),
		session.WithConnectTimeout(cfg.Narration.ConnectTimeout),
	}
	if cfg.Narration.Voice != "" {
		orchOpts = append(orchOpts, session.WithVoice(cfg.Narration.Voice))
	}
	if cfg.Narration.Language != "" {
		orchOpts = append(orchOpts, session.WithLanguage(cfg.Narration.Language))
	}
	orch := session.New(engine, bridge, state, orchOpts...)

	// ── HTTP surface ──────────────────────────────────────────────────────────
	api := server.New(orch, state, saves, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.Handler())
	mux.Handle("/audio", bridge)
	mux.Handle("GET /metrics", promhttp.Handler())
	observe.NewHealthHandler(
		savesCheck,
		observe.Checker{Name: "audio_bridge", Check: func(context.Context) error {
			if !bridge.Attached() {
				return errors.New("no browser client attached")
			}
			return nil
		}},
	).Register(mux)

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	// ── Serve until signalled ─────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		orch.Disconnect()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Taleforge — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Engine", engineSummary(cfg))
	printField("Voice", cfg.Narration.Voice)
	printField("Language", cfg.Narration.Language.DisplayName())
	printField("Default ruleset", cfg.Campaign.Ruleset)
	if cfg.Saves.PostgresDSN != "" {
		printField("Saves", "postgres")
	} else {
		printField("Saves", "in-memory")
	}
	printField("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func engineSummary(cfg *config.Config) string {
	if cfg.Narration.Model != "" {
		return "gemini-live / " + cfg.Narration.Model
	}
	return "gemini-live"
}

func printField(name, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", name, value)
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
