package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/parlaywatch/config"
	"github.com/alejandrodnm/parlaywatch/internal/adapters/feed"
	"github.com/alejandrodnm/parlaywatch/internal/adapters/hedge"
	"github.com/alejandrodnm/parlaywatch/internal/adapters/notify"
	"github.com/alejandrodnm/parlaywatch/internal/adapters/storage"
	"github.com/alejandrodnm/parlaywatch/internal/domain"
	"github.com/alejandrodnm/parlaywatch/internal/ports"
	"github.com/alejandrodnm/parlaywatch/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one evaluation cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full risk table (default: compact 1-line)")
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
	setupLogger(cfg.Log)

	slog.Info("parlaywatch starting",
		"config", *configPath,
		"storage", cfg.Storage.Backend,
		"interval", cfg.PollInterval(),
		"once", *once,
	)

	parlayStorage, err := openStorage(cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "backend", cfg.Storage.Backend)
		os.Exit(1)
	}
	defer parlayStorage.Close()

	store := tracker.NewStore(parlayStorage)

	feedClient := feed.NewClient(cfg.Feed.BaseURL)
	stream := feed.NewStream(cfg.Feed.StreamURL)
	transport := feed.NewTransport(stream, feedClient, cfg.FeedPollInterval(), func(snap domain.LiveSnapshot) {
		store.ApplyLiveSnapshot(context.Background(), snap)
	})

	hedgeClient := hedge.NewClient(cfg.Hedge.BaseURL, cfg.Hedge.ExpoPushToken)
	notifier := notify.NewConsole(*table)

	pollerCfg := tracker.PollerConfig{
		Interval:    cfg.PollInterval(),
		MinSeverity: domain.RiskLevel(cfg.Tracker.MinSeverity),
		DedupTTL:    cfg.DedupTTL(),
	}
	poller := tracker.NewHedgePoller(store, hedgeClient, notifier, pollerCfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		runOnce(ctx, store, feedClient, poller, notifier)
		return
	}

	runner := tracker.NewRunner(store, transport, poller)
	if err := runner.Run(ctx); err != nil {
		slog.Error("tracker exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("parlaywatch stopped cleanly")
}

// runOnce hace un ciclo completo sin loops: hidratar, un snapshot,
// evaluar, notificar. Útil para cron o para inspeccionar el estado.
func runOnce(ctx context.Context, store *tracker.Store, client *feed.Client, poller *tracker.HedgePoller, notifier ports.Notifier) {
	store.Hydrate(ctx)

	snap, err := client.FetchSnapshot(ctx)
	if err != nil {
		slog.Warn("snapshot fetch failed, evaluating last known state", "err", err)
	} else {
		store.ApplyLiveSnapshot(ctx, snap)
	}

	risks := store.EvaluateAll()
	hedges := poller.EvaluateOnce(ctx, risks)

	if err := notifier.Notify(ctx, risks, hedges); err != nil {
		slog.Warn("notifier error", "err", err)
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

// openStorage construye el backend configurado.
func openStorage(cfg config.StorageConfig) (ports.ParlayStorage, error) {
	if cfg.Backend == "redis" {
		return storage.NewRedisStorage(cfg.RedisAddr, "")
	}
	return storage.NewSQLiteStorage(cfg.DSN)
}
