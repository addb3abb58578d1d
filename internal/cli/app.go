package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/murder/internal/config"
	"github.com/roach88/murder/internal/engine"
	"github.com/roach88/murder/internal/notify"
	"github.com/roach88/murder/internal/render"
	"github.com/roach88/murder/internal/shuffle"
	"github.com/roach88/murder/internal/store"
)

// App is what a command needs to work on games: configuration, the open
// store and an engine wired to the configured notifier.
type App struct {
	Config config.Config
	Store  *store.Store
	Engine *engine.Engine
	Logger *slog.Logger
	Out    *OutputFormatter

	registry    *prometheus.Registry
	metricsFile string
	closers     []func()
}

// withApp opens an App for the duration of fn.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(a *App) error) (err error) {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "failed to shut down", cerr)
		}
	}()
	return fn(a)
}

func openApp(opts *RootOptions, cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	a := &App{
		Config: cfg,
		Logger: logger,
		Out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
		registry:    prometheus.NewRegistry(),
		metricsFile: opts.MetricsFile,
	}

	sink, err := a.notifier()
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to set up notifications", err)
	}
	provider, err := cfg.Codes()
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to set up secret codes", err)
	}

	logger.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	a.Store = st

	engOpts := []engine.Option{
		engine.WithNotifier(sink),
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(a.registry)),
	}
	if provider != nil {
		engOpts = append(engOpts, engine.WithCodes(provider))
	}
	if opts.Now != nil {
		engOpts = append(engOpts, engine.WithNow(opts.Now))
	}
	var shuffler engine.Shuffler = shuffle.NewRandom()
	if opts.Shuffler != nil {
		shuffler = opts.Shuffler
	}
	a.Engine = engine.New(st, shuffler, engOpts...)
	return a, nil
}

// notifier builds the sinks selected by MURDER_NOTIFY. Mail carries the
// player's mission sheets.
func (a *App) notifier() (notify.Sink, error) {
	var sinks notify.Fanout
	for _, t := range a.Config.Transports {
		switch t {
		case config.TransportSMTP:
			mail := notify.NewSMTP(a.Config.SMTP)
			mail.Attach = render.SheetAttachment(a.Config.BaseURL)
			sinks = append(sinks, mail)
		case config.TransportNATS:
			sink, nc, err := notify.DialNATS(a.Config.NATS.URL, a.Config.NATS.Subject)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, nc.Close)
			sinks = append(sinks, sink)
		case config.TransportNone:
			return notify.Discard{}, nil
		default:
			sinks = append(sinks, notify.LogSink{Logger: a.Logger})
		}
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// Close releases everything the App opened and writes the metrics file if
// one was requested.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		a.Store = nil
	}
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
