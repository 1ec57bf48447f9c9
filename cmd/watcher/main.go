package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/courtbot/config"
	consolenotify "github.com/alejandrodnm/courtbot/internal/adapters/notify"
	"github.com/alejandrodnm/courtbot/internal/adapters/storage"
	"github.com/alejandrodnm/courtbot/internal/adapters/telegram"
	"github.com/alejandrodnm/courtbot/internal/adapters/tennisscore"
	"github.com/alejandrodnm/courtbot/internal/application/watcher"
	"github.com/alejandrodnm/courtbot/internal/domain"
	"github.com/alejandrodnm/courtbot/internal/notify"
	"github.com/alejandrodnm/courtbot/internal/registry"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full cycle table (default: compact 1-line)")
	hidePass := flag.Bool("hide-pass", false, "never deliver PASS verdicts (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *hidePass {
		cfg.Watcher.HidePass = true
	}
	setupLogger(cfg.Log)

	slog.Info("courtbot starting",
		"config", *configPath,
		"scan_interval", cfg.ScanInterval(),
		"refresh_interval", cfg.RefreshInterval(),
		"tournaments", cfg.Extractor.Tournaments,
		"once", *once,
	)

	client := tennisscore.NewClient(
		cfg.Extractor.BaseURL,
		cfg.Extractor.Session,
		cfg.Extractor.Tournaments,
		slog.Default(),
	)
	messenger := telegram.NewMessenger("", cfg.Telegram.Token, cfg.Telegram.ChatID)

	reg := registry.New()
	store := storage.NewStateFile(cfg.Storage.StatePath)
	restoreMessages(reg, store)

	sink := notify.NewSink(messenger, reg, store, slog.Default())

	verdictLog, err := storage.NewSQLiteVerdictLog(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open verdict log", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer verdictLog.Close()

	console := consolenotify.NewConsole(*table, cfg.Watcher.HidePass)

	control := watcher.NewControl(cfg.Watcher.HidePass)
	w := watcher.New(watcher.Config{
		ScanInterval:    cfg.ScanInterval(),
		RefreshInterval: cfg.RefreshInterval(),
		StaleAfter:      cfg.StaleAfter(),
		HidePass:        cfg.Watcher.HidePass,
		Once:            *once,
		Thresholds:      domain.DefaultThresholds(),
	}, client, reg, sink, verdictLog, console, control)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*once {
		go listenControls(ctx, control, cancel)
	}

	if err := w.Run(ctx); err != nil {
		slog.Error("watcher exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("courtbot stopped cleanly")
}

// restoreMessages rehidrata el mapping partido → mensaje para que un
// reinicio siga editando los mensajes existentes en vez de duplicarlos.
func restoreMessages(reg *registry.Registry, store *storage.StateFile) {
	records, err := store.Load()
	if err != nil {
		slog.Warn("could not restore message state, starting fresh", "err", err)
		return
	}
	for id, rec := range records {
		reg.RestoreMessage(id, rec.MessageID, rec.Text)
	}
	if len(records) > 0 {
		slog.Info("message state restored", "matches", len(records))
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
