package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/roster/internal/config"
	"github.com/five82/roster/internal/controller"
	"github.com/five82/roster/internal/directory"
	"github.com/five82/roster/internal/logger"
	"github.com/five82/roster/internal/metrics"
	"github.com/five82/roster/internal/prefs"
	"github.com/five82/roster/internal/server"
	"github.com/five82/roster/internal/state"
	"github.com/five82/roster/internal/ui"
)

// Version is stamped at build time with -ldflags "-X ...app.Version=v1.2.3".
var Version = "dev"

// Options configure a roster run. Empty fields fall back to the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/roster/prefs.toml
	APIBase    string
	LogLevel   string
	// Headless routes logs to Stderr unless the config names a log file.
	// The TUI always logs to a file because it owns the terminal.
	Headless bool
	Stderr   io.Writer
}

// Runtime holds the wired components shared by the TUI and the headless CLI.
type Runtime struct {
	Config     config.Config
	Logger     *logrus.Logger
	Store      *state.Store
	Metrics    *metrics.Collector
	Controller *controller.Controller

	server   *server.Server
	reloader *Reloader
	closers  []io.Closer
}

// Bootstrap loads configuration and wires the directory client, store,
// metrics and controller. Nothing is started yet.
func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.LogLevel = v
	}

	rt := &Runtime{Config: cfg}

	out, err := rt.logOutput(opts)
	if err != nil {
		return nil, err
	}
	log, levelErr := logger.Setup(cfg.LogLevel, out)
	rt.Logger = log
	if levelErr != nil {
		log.WithError(levelErr).Warn("unknown log level, using info")
	}

	client, err := directory.NewClient(cfg.APIBase,
		directory.WithTimeout(cfg.RequestTimeout),
		directory.WithUserAgent("roster/"+Version),
	)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("init directory client: %w", err)
	}

	rt.Store = &state.Store{}
	rt.Metrics = metrics.New()
	rt.Controller, err = controller.New(controller.Options{
		Directory: client,
		Store:     rt.Store,
		Logger:    log,
		Metrics:   rt.Metrics,
		Context:   ctx,
	})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	if cfg.ReloadSchedule != "" {
		rt.reloader, err = NewReloader(cfg.ReloadSchedule, rt.Controller, log)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}
	if cfg.MetricsAddr != "" {
		rt.server, err = server.New(server.Options{
			Addr:    cfg.MetricsAddr,
			Source:  rt.Store,
			Metrics: rt.Metrics,
			Logger:  log,
			Reload:  func() { rt.Controller.LoadAll() },
			Version: Version,
		})
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"component": "app",
		"api_base":  client.BaseURL(),
		"version":   Version,
	}).Info("roster starting")
	return rt, nil
}

func (rt *Runtime) logOutput(opts Options) (io.Writer, error) {
	if opts.Headless && rt.Config.LogFile == "" {
		if opts.Stderr != nil {
			return opts.Stderr, nil
		}
		return os.Stderr, nil
	}
	file, err := logger.OpenFile(rt.Config.LogPath())
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, file)
	return file, nil
}

// Start opens the ops listener and the reload schedule when configured.
func (rt *Runtime) Start() error {
	if rt.server != nil {
		if err := rt.server.Start(); err != nil {
			return err
		}
	}
	if rt.reloader != nil {
		rt.reloader.Start()
	}
	return nil
}

// Close stops background work and releases the log file.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.reloader != nil {
		rt.reloader.Stop()
	}
	if rt.server != nil {
		if err := rt.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range rt.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Run boots the roster TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Headless = false
	rt, err := Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background()) }()

	if err := rt.Start(); err != nil {
		return err
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	// The first list is in flight while the UI draws its loading placeholder.
	rt.Controller.LoadAll()

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: rt.Controller,
		Logger:     rt.Logger,
		LogPath:    rt.Config.LogPath(),
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
		APIBase:    rt.Config.APIBase,
	})
}
