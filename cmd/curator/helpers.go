package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/daemon"
	"curator/internal/library"
	"curator/internal/logging"
	"curator/internal/monitor"
	"curator/internal/reconcile"
	"curator/internal/services/qbittorrent"
	"curator/internal/services/tmdb"
	"curator/internal/suppression"
)

// runtime bundles every collaborator a command may need. Commands that only
// touch one subsystem still go through it so wiring stays in one place.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	search    *tmdb.Client
	torrents  *qbittorrent.Client
	taxonomy  *classify.Store
	history   *suppression.Store
	scanner   *library.Scanner
	organizer *library.Organizer
	engine    *reconcile.Engine
	monitor   *monitor.Monitor
	service   *daemon.Service
}

// openRuntime loads config, builds a console logger, and wires the full
// runtime for a one-shot command.
func openRuntime(ctx *commandContext) (*runtime, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := commandLogger(cfg)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg, logger)
}

func newRuntime(cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	search, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	torrents, err := qbittorrent.New(cfg.QBittorrent.Host, cfg.QBittorrent.Username, cfg.QBittorrent.Password)
	if err != nil {
		return nil, fmt.Errorf("qbittorrent client: %w", err)
	}
	taxonomy, err := classify.NewStore(cfg.Paths.TaxonomyPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	history, err := suppression.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open suppression store: %w", err)
	}
	scanner := library.NewScanner(cfg.Paths.LibraryDir, cfg.Paths.ExcludeDirs, cfg.Matching.Threshold)
	organizer := library.NewOrganizer(cfg.Paths.LibraryDir, logger)
	engine := reconcile.NewEngine(cfg.Matching.Threshold, cfg.Matching.SuppressionPrecision, history, logger)
	mon := monitor.New(
		torrents,
		time.Duration(cfg.Monitor.PollIntervalSeconds)*time.Second,
		time.Duration(cfg.Monitor.TimeoutHours)*time.Hour,
		logger,
	)
	svc, err := daemon.NewService(cfg, logger, search, torrents, taxonomy, history, scanner, organizer, engine, mon)
	if err != nil {
		history.Close()
		return nil, err
	}
	return &runtime{
		cfg:       cfg,
		logger:    logger,
		search:    search,
		torrents:  torrents,
		taxonomy:  taxonomy,
		history:   history,
		scanner:   scanner,
		organizer: organizer,
		engine:    engine,
		monitor:   mon,
		service:   svc,
	}, nil
}

func (r *runtime) close() {
	if r.history != nil {
		r.history.Close()
	}
}

// commandLogger builds a console logger for one-shot commands. Level comes
// from config; output stays on stderr so tables on stdout remain clean.
func commandLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: "console",
	})
}

func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	suffix := suffixes[0]
	for _, s := range suffixes {
		suffix = s
		value /= unit
		if value < unit {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.3f", score)
}
