// Command shadowkit serves the shadowing workspace over HTTP: it transcribes
// audio files into timed segments and drives playback and recording of each
// segment on the local sound devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kbukum/shadowkit/audio/ffmpeg"
	"github.com/kbukum/shadowkit/audio/portaudio"
	"github.com/kbukum/shadowkit/bootstrap"
	"github.com/kbukum/shadowkit/component"
	"github.com/kbukum/shadowkit/config"
	"github.com/kbukum/shadowkit/logger"
	"github.com/kbukum/shadowkit/observability"
	"github.com/kbukum/shadowkit/segment"
	"github.com/kbukum/shadowkit/server"
	"github.com/kbukum/shadowkit/sse"
	"github.com/kbukum/shadowkit/transcription"
	"github.com/kbukum/shadowkit/transcription/whisper"
	"github.com/kbukum/shadowkit/transcription/whispercli"
	"github.com/kbukum/shadowkit/version"
	"github.com/kbukum/shadowkit/workspace"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "", "path to the YAML config file")
	envFile := flag.String("env", "", "path to a .env file")
	flag.Parse()

	if err := run(*configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configFile, envFile string) error {
	cfg, err := loadConfig(configFile, envFile)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(shutdownTimeout))
	if err != nil {
		return err
	}
	log := app.Logger
	log.Info("starting", logger.Fields("version", version.Get().String(), "environment", cfg.Environment))

	ctx := context.Background()
	metrics, shutdownTelemetry, err := initTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	adapter, err := newAdapter(cfg, log, metrics)
	if err != nil {
		return err
	}

	decoder := ffmpeg.New(cfg.Decoder, log)
	device := portaudio.New()
	pipeline := segment.NewPipeline(decoder, adapter, cfg.Pipeline,
		segment.WithLogger(log),
		segment.WithMetrics(metrics),
	)

	hub := sse.NewHub(log)
	ws := workspace.New(pipeline,
		workspace.WithLogger(log),
		workspace.WithMetrics(metrics),
		workspace.WithAudioConfig(cfg.Audio),
		workspace.WithPublisher(hub),
		workspace.WithDevices(device, device),
	)

	srv := server.New(cfg.Server, log)
	srv.RegisterSystemEndpoints(cfg.Name, app.Health)
	srv.RegisterTranscriptions(ws, hub)

	// Stop runs in reverse: the workspace cancels runs and closes sessions
	// while streams are open, the hub then ends the streams, and the server
	// drains last.
	for _, c := range []component.Component{
		component.FromChecker("ffmpeg", "decoder", decoder),
		component.FromChecker("transcription", "adapter", transcription.Health(adapter)),
		component.FromChecker("audio-device", "audio", device),
		server.NewComponent(srv),
		sse.NewComponent(hub),
		workspace.NewComponent(ws),
	} {
		if err := app.RegisterComponent(c); err != nil {
			return err
		}
	}
	return app.Run(ctx)
}

func loadConfig(configFile, envFile string) (*Config, error) {
	var cfg Config
	err := config.LoadConfig(serviceName, &cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
		config.WithEnvPrefix("SHADOWKIT_"),
	)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// initTelemetry installs the tracer and meter providers when enabled. The
// returned metrics are nil when metrics are off; every recorder accepts nil.
func initTelemetry(ctx context.Context, cfg *Config, log *logger.Logger) (*observability.Metrics, func(), error) {
	var shutdowns []func(context.Context) error

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return nil, nil, fmt.Errorf("init tracer: %w", err)
		}
		shutdowns = append(shutdowns, tp.Shutdown)
		log.Info("tracing enabled", logger.Fields("endpoint", cfg.Tracing.Endpoint))
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("init meter: %w", err)
		}
		shutdowns = append(shutdowns, mp.Shutdown)
		metrics, err = observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return nil, nil, fmt.Errorf("create metrics: %w", err)
		}
		log.Info("metrics enabled", logger.Fields("endpoint", cfg.Metrics.Endpoint))
	}

	return metrics, func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil {
				log.Warn("telemetry shutdown failed", logger.ErrorFields("telemetry.shutdown", err))
			}
		}
	}, nil
}

func newAdapter(cfg *Config, log *logger.Logger, metrics *observability.Metrics) (transcription.Adapter, error) {
	registry := transcription.NewRegistry()
	registry.RegisterFactory(whisper.AdapterName, whisper.Factory())
	registry.RegisterFactory(whispercli.AdapterName, whispercli.Factory())

	adapter, err := registry.Create(cfg.Transcription.Adapter, cfg.adapterConfig(),
		transcription.WithLogging(log),
		transcription.WithTracing(),
		transcription.WithMetrics(metrics),
		transcription.WithConcurrencyLimit(cfg.Transcription.MaxConcurrent),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s adapter: %w", cfg.Transcription.Adapter, err)
	}
	log.Info("transcription adapter ready", logger.Fields("adapter", adapter.Name()))
	return adapter, nil
}
