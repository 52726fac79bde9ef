// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/markdave123-py/baboon-api/internal/api/handlers"
	"github.com/markdave123-py/baboon-api/internal/config"
	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/core/imaging"
	"github.com/markdave123-py/baboon-api/internal/core/llm"
	objectclient "github.com/markdave123-py/baboon-api/internal/core/object-client"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/metrics"
	"github.com/markdave123-py/baboon-api/internal/services"
)

type App struct {
	ObjectClient core.ObjectClient
	Images       *services.ImageService
	Retention    *services.RetentionScheduler
	Server       *Server

	log logging.Logger
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sl := logging.NewJSON(os.Stdout, cfg.LogLevel)
	slog.SetDefault(sl)
	log := logging.NewSlogLogger(sl)

	objClient, err := objectclient.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the object client: %w", err)
	}
	log.Info(ctx, "Object client initialized and ready.", "driver", cfg.StoreDriver, "bucket", cfg.BucketName)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewProm(cfg.MetricsNamespace, reg)

	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the image generator: %w", err)
	}
	log.Info(ctx, "Image generator initialized.", "provider", cfg.GeneratorProvider)

	pipeline := imaging.NewPipeline(imaging.Config{
		FetchTimeout:    cfg.FetchTimeout,
		MaxSourceBytes:  cfg.MaxSourceBytes,
		MaxSourcePixels: cfg.MaxPixels,
	})
	selector := services.NewAssetSelector(objClient, log, m)
	publisher := services.NewPublisher(objClient, m)
	retention := services.NewRetentionScheduler(objClient, log, m, cfg.CleanupTimeout)

	images := services.NewImageService(objClient, selector, pipeline, publisher, retention, generator, log, services.ServiceConfig{
		Root:          cfg.BucketFolder,
		Retention:     cfg.ImageRetention,
		Prompt:        cfg.GeneratorPrompt,
		BatchParallel: cfg.BatchParallel,
	})

	if cfg.CleanOnStartup {
		sweepCtx, cancel := context.WithTimeout(ctx, cfg.CleanupTimeout)
		// leftovers from a previous run; a failure here is not fatal
		if err := retention.Sweep(sweepCtx, images.SizedScope(), images.GeneratedScope()); err != nil {
			log.Warn(ctx, "startup sweep failed", "err", err)
		}
		cancel()
	}

	handler := handlers.NewImageHandler(images, log, cfg.BatchMax)
	server := NewServer(cfg, handler, m.Handler(), log)

	return &App{
		ObjectClient: objClient,
		Images:       images,
		Retention:    retention,
		Server:       server,
		log:          log,
	}, nil
}

func newGenerator(cfg *config.Config) (core.ImageGenerator, error) {
	switch cfg.GeneratorProvider {
	case config.ProviderGemini:
		return llm.NewGeminiImager(cfg.GeminiAPIKey, cfg.GeminiImageModel)
	default:
		return llm.NewOpenAIImager(cfg.OpenAIAPIKey, cfg.OpenAIImageModel)
	}
}

// Close cancels pending cleanups.
func (a *App) Close(ctx context.Context) {
	if a.Retention != nil {
		if err := a.Retention.Stop(ctx); err != nil {
			a.log.Warn(ctx, "retention stop", "err", err)
		}
	}
}
