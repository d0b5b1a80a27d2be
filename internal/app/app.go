package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/five82/wakubase/internal/config"
	"github.com/five82/wakubase/internal/feed"
	"github.com/five82/wakubase/internal/health"
	"github.com/five82/wakubase/internal/logging"
	"github.com/five82/wakubase/internal/metrics"
	"github.com/five82/wakubase/internal/relay"
	"github.com/five82/wakubase/internal/settings"
	"github.com/five82/wakubase/internal/storage"
	"github.com/five82/wakubase/internal/topics"
	"github.com/five82/wakubase/internal/ui"
)

// Options configure the wakubase application.
type Options struct {
	ConfigPath string
	LogLevel   string    // overrides the configured level when set
	Console    io.Writer // mirrors log output in console format; nil for the TUI
}

// Services is the wired object graph shared by the TUI and CLI commands.
type Services struct {
	Config    config.Config
	Metrics   *metrics.Metrics
	Settings  *settings.Store
	Registry  *topics.Registry
	Selection *topics.Selection
	Client    *relay.Client
	Health    *health.Poller
	Feed      *feed.Engine

	started bool
	unlink  func()
	closers []func() error
}

// Bootstrap loads configuration, initializes logging and storage, and
// builds every component. Nothing runs in the background until Start.
func Bootstrap(opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	s := &Services{Config: cfg, Metrics: metrics.New()}

	logCloser, err := logging.Init(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    opts.Console,
		Metrics:    s.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	s.closers = append(s.closers, logCloser.Close)

	backend, closeBackend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	s.closers = append(s.closers, closeBackend)

	s.Settings = settings.NewStore(backend)
	s.Registry = topics.NewRegistry(backend)
	s.Selection = topics.NewSelection(s.Registry, s.Settings.AutoSelectNew)
	s.Client = relay.NewClient(s.Settings, relay.WithTimeout(cfg.Poll.RequestTimeout))
	s.Health = health.NewPoller(s.Client, s.Settings, health.Options{
		Interval: cfg.Poll.HealthInterval,
		Timeout:  cfg.Poll.RequestTimeout,
		Metrics:  s.Metrics,
	})
	s.Feed = feed.NewEngine(s.Client, s.Settings, feed.Options{
		Interval: cfg.Poll.MessagesInterval,
		Metrics:  s.Metrics,
	})

	log.Info().
		Str("config", cfg.Path).
		Str("storage", cfg.Storage.Backend).
		Str("node_url", s.Settings.NodeURL()).
		Str("node_type", string(s.Settings.NodeType())).
		Msg("wakubase initialized")
	return s, nil
}

// Start runs the health poller and the sync engine until ctx is cancelled
// or Close is called, and keeps the engine on the selected topic.
func (s *Services) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true

	if addr := s.Config.Metrics.Addr; addr != "" {
		go func() {
			if err := s.Metrics.Serve(ctx, addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
			}
		}()
	}

	s.Health.Start(ctx)
	s.Feed.Start(ctx)
	s.unlink = s.Selection.OnChange(func(t topics.ContentTopic) {
		s.Feed.Select(t.ID, t.Topic)
	})
	if t, ok := s.Selection.Selected(); ok {
		s.Feed.Select(t.ID, t.Topic)
	}
}

// Close stops background work and releases storage and the log file.
func (s *Services) Close() error {
	if s.unlink != nil {
		s.unlink()
		s.unlink = nil
	}
	if s.Selection != nil {
		s.Selection.Close()
	}
	if s.started {
		s.Feed.Stop()
		s.Health.Stop()
		s.started = false
	}

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Run boots the wakubase TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	svc, err := Bootstrap(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc.Start(ctx)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Settings:  svc.Settings,
		Registry:  svc.Registry,
		Selection: svc.Selection,
		Health:    svc.Health,
		Feed:      svc.Feed,
		LogPath:   svc.Config.Log.File,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
