package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/shadowkit/component"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
)

// DefaultGracefulTimeout bounds shutdown when no option overrides it.
const DefaultGracefulTimeout = 15 * time.Second

// App owns the lifecycle of a service. C is the typed config.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	signals         []os.Signal
	summary         Summary

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and initializes the global
// logger from its logging section unless WithLogger is given.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetBaseConfig()

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: DefaultGracefulTimeout,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if len(o.signals) > 0 {
		app.signals = o.signals
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.New(&base.Logging, base.Name)
		logger.SetGlobalLogger(app.Logger)
	}
	app.Components = component.NewRegistry(app.Logger)
	return app, nil
}

// RegisterComponent adds c. Components start in registration order and
// stop in reverse.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// Health reports every registered component. Pass it to the HTTP server's
// health endpoint.
func (a *App[C]) Health(ctx context.Context) []observability.Health {
	return a.Components.HealthAll(ctx)
}

// ReadyCheck fails when any component is not up.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var notUp []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == observability.HealthStatusUp {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		notUp = append(notUp, detail)
	}
	if len(notUp) > 0 {
		return fmt.Errorf("components not up: %v", notUp)
	}
	return nil
}

// Summary returns the startup summary once Run has started every
// component.
func (a *App[C]) Summary() Summary { return a.summary }

// Run starts every component, runs the start and ready hooks, waits for a
// shutdown signal or ctx, then shuts down. A failed startup stops the
// components that did start before returning.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return stderrors.Join(err, a.stop())
	}
	a.WaitForSignal(ctx)
	return a.stop()
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	// Optional dependencies such as the transcription backend may be down
	// at boot; the service still serves and reports them on /health.
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.summary = collectSummary(ctx, a.Name, a.Version, a.Components, time.Since(start))
	a.summary.log(a.Logger)
	return nil
}

// WaitForSignal blocks until one of the app's signals arrives or ctx ends.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, a.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("context cancelled, shutting down")
		return nil
	}
}

// Shutdown runs the stop hooks and stops every component. Use it when the
// caller drives the lifecycle instead of Run.
func (a *App[C]) Shutdown() error { return a.stop() }

func (a *App[C]) stop() error {
	a.Logger.Info("shutting down", logger.Fields("timeout", a.gracefulTimeout.String()))
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook failed", logger.Fields(logger.FieldError, err.Error()))
		errs = append(errs, err)
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		errs = append(errs, err)
	}
	a.Logger.Info("shutdown complete")
	return stderrors.Join(errs...)
}
