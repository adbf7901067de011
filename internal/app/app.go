// Package app wires the tone monitor's components together and owns their
// startup and shutdown order.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	grpcapi "tone-monitor-service/internal/api/grpc"
	"tone-monitor-service/internal/config"
	"tone-monitor-service/internal/events"
	httpapi "tone-monitor-service/internal/http"
	"tone-monitor-service/internal/observability"
	"tone-monitor-service/internal/observability/logging"
	"tone-monitor-service/internal/observability/metrics"
	"tone-monitor-service/internal/service/chunk"
	"tone-monitor-service/internal/service/monitor"
	"tone-monitor-service/internal/service/notify"
	"tone-monitor-service/internal/service/prefs"
	"tone-monitor-service/internal/service/tone"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Tracker   *chunk.Tracker
	Prefs     *prefs.Store
	Publisher *events.Publisher
	Monitor   *monitor.Monitor

	classifier tone.Classifier
	closeSTT   func() error

	httpServer *http.Server
	grpcServer *grpcapi.Server
	obsServer  *observability.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Tone monitor application created")
	return a
}

// setupLogger configures zerolog for the service.
func (a *Application) setupLogger() {
	lc := logging.DefaultConfig()
	lc.Level = a.Cfg.Observability.LogLevel
	lc.Service = a.Cfg.Service.Principal
	if a.Cfg.Service.Env == "dev" {
		lc.Format = "console"
	}

	a.Logger = logging.Init(lc).With().
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

// Build constructs every component from the configuration.
func (a *Application) Build(ctx context.Context) error {
	cfg := a.Cfg

	store, err := prefs.Open(cfg.Preferences.File)
	if err != nil {
		return err
	}
	store.Subscribe(func(prompt string) {
		a.Logger.Info().Int("chars", len(prompt)).Msg("Classifier prompt changed")
	})
	a.Prefs = store

	transcriber, closeSTT, err := NewTranscriber(ctx, cfg)
	if err != nil {
		return err
	}
	a.closeSTT = closeSTT

	a.Tracker = chunk.NewTracker()
	namer := chunk.NewNamer(cfg.Recorder.ChunkDir)
	rec, err := NewRecorder(cfg, namer, a.Tracker)
	if err != nil {
		_ = closeSTT()
		return err
	}

	a.classifier = NewClassifier(cfg)
	a.Publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicVerdict: cfg.Kafka.TopicVerdict,
		TopicAlert:   cfg.Kafka.TopicAlert,
		Principal:    cfg.Kafka.Principal,
	})

	a.Monitor = monitor.New(monitor.Config{
		Cooldown:       cfg.Monitor.NotificationCooldown,
		ExcerptLimit:   cfg.Monitor.ExcerptLimit,
		FlaggedHistory: cfg.Monitor.FlaggedHistory,
		Sound:          cfg.Notifier.Sound,
		Principal:      cfg.Service.Principal,
	}, monitor.Deps{
		Recorder:    rec,
		Tracker:     a.Tracker,
		Transcriber: transcriber,
		Classifier:  a.classifier,
		Notifier:    notify.New(cfg.Notifier.Backend, cfg.Notifier.AppName),
		Permissions: NewAuthorizer(cfg),
		Prompts:     store,
		Events:      a.Publisher,
	})

	a.httpServer = &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(a.Monitor, store),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.grpcServer = grpcapi.New(a.Monitor, metrics.DefaultMetrics)
	a.obsServer = observability.NewServer(":"+cfg.Observability.MetricsPort, a.ready)

	a.Logger.Info().
		Str("recorder", cfg.Recorder.Backend).
		Str("stt", transcriber.Name()).
		Str("classifier", cfg.Classifier.Backend).
		Str("notifier", cfg.Notifier.Backend).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("Components built")
	return nil
}

// ready fails while the monitor loop is down or the classifier cannot run.
func (a *Application) ready(ctx context.Context) error {
	if a.Monitor == nil || !a.Monitor.Alive() {
		return errors.New("monitor not running")
	}
	if checker, ok := a.classifier.(tone.AvailabilityChecker); ok {
		if av := checker.Availability(ctx); av != tone.Available {
			return errors.New(av.Message())
		}
	}
	return nil
}

// Start purges orphaned chunks from earlier runs, then starts the monitor
// loop and the HTTP, gRPC and metrics servers.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	a.purgeOrphans(startLogger)

	grpcLis, err := net.Listen("tcp", ":"+a.Cfg.Service.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.goRun("monitor", func() error {
		if err := a.Monitor.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	select {
	case <-a.Monitor.Ready():
	case <-ctx.Done():
		_ = grpcLis.Close()
		return ctx.Err()
	}
	a.goRun("grpc-health", func() error {
		a.grpcServer.Watch(runCtx)
		return nil
	})
	a.goRun("grpc", func() error { return a.grpcServer.Serve(grpcLis) })
	a.goRun("http", func() error {
		startLogger.Info().Str("addr", a.httpServer.Addr).Msg("Control API started")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	a.obsServer.Start()

	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("httpPort", a.Cfg.Service.HTTPPort).
		Str("grpcPort", a.Cfg.Service.GRPCPort).
		Str("metricsPort", a.Cfg.Observability.MetricsPort).
		Msg("Tone monitor started")
	return nil
}

func (a *Application) goRun(name string, fn func() error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(); err != nil {
			a.Logger.Error().Err(err).Str("task", name).Msg("Background task failed")
		}
	}()
}

// Shutdown stops the servers and the monitor, closes the publisher and
// deletes any chunk files left behind.
func (a *Application) Shutdown(ctx context.Context) {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Tone monitor shutting down")

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			shutdownLogger.Warn().Err(err).Msg("HTTP server shutdown")
		}
	}
	if a.grpcServer != nil {
		a.grpcServer.Shutdown()
	}
	if a.obsServer != nil {
		if err := a.obsServer.Shutdown(ctx); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Metrics server shutdown")
		}
	}

	// Cancelling the run context stops the monitor, which stops the recorder.
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Publisher close")
		}
	}
	if a.closeSTT != nil {
		if err := a.closeSTT(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Speech client close")
		}
	}

	a.purgeOrphans(shutdownLogger)
	shutdownLogger.Info().Dur("uptime", time.Since(a.StartupTime)).Msg("Tone monitor stopped")
}

func (a *Application) purgeOrphans(logger zerolog.Logger) {
	n, err := chunk.CleanupOrphans(a.Cfg.Recorder.ChunkDir)
	metrics.DefaultMetrics.RecordOrphansPurged(n)
	if err != nil {
		logger.Warn().Err(err).Int("deleted", n).Msg("Orphan chunk cleanup incomplete")
		return
	}
	if n > 0 {
		logger.Info().Int("deleted", n).Msg("Deleted orphaned chunk files")
	}
}
