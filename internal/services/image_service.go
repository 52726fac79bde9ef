package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// ServiceConfig holds the knobs ImageService needs.
//
// Root:          bucket folder holding the source images; derived scopes live under it.
// Retention:     delay before a derived scope is wiped.
// Prompt:        prompt handed to the image generator.
// BatchParallel: how many selections of a batch run at once.
type ServiceConfig struct {
	Root          string
	Retention     time.Duration
	Prompt        string
	BatchParallel int
}

// ImageService composes selection, transformation, publishing and cleanup
// for each use case.
type ImageService struct {
	selector    *AssetSelector
	transformer core.ImageTransformer
	publisher   *Publisher
	retention   *RetentionScheduler
	generator   core.ImageGenerator
	store       core.ObjectClient
	log         logging.Logger
	cfg         ServiceConfig
}

func NewImageService(
	store core.ObjectClient,
	selector *AssetSelector,
	transformer core.ImageTransformer,
	publisher *Publisher,
	retention *RetentionScheduler,
	generator core.ImageGenerator,
	log logging.Logger,
	cfg ServiceConfig,
) *ImageService {
	if cfg.BatchParallel <= 0 {
		cfg.BatchParallel = 4
	}
	return &ImageService{
		selector:    selector,
		transformer: transformer,
		publisher:   publisher,
		retention:   retention,
		generator:   generator,
		store:       store,
		log:         log.With("component", "images"),
		cfg:         cfg,
	}
}

// SourceScope is where the original images live.
func (s *ImageService) SourceScope() string { return s.cfg.Root }

// SizedScope holds resized copies.
func (s *ImageService) SizedScope() string { return models.JoinScope(s.cfg.Root, models.ScopeSized) }

// GeneratedScope holds AI generated images.
func (s *ImageService) GeneratedScope() string {
	return models.JoinScope(s.cfg.Root, models.ScopeGenerated)
}

// Random returns one source image.
func (s *ImageService) Random(ctx context.Context) (models.ImageAsset, error) {
	asset, err := s.selector.PickRandom(ctx, s.SourceScope())
	if err != nil {
		s.report(ctx, "random", err)
		return models.ImageAsset{}, err
	}
	return asset, nil
}

// Sized returns a copy of a random source image resized to dims. The copy is
// removed once the retention window has passed.
func (s *ImageService) Sized(ctx context.Context, dims models.Dims) (models.ImageAsset, error) {
	src, err := s.selector.PickRandom(ctx, s.SourceScope())
	if err != nil {
		s.report(ctx, "sized", err)
		return models.ImageAsset{}, err
	}

	art, err := s.transformer.Materialize(ctx, src.URL, &dims)
	if err != nil {
		s.report(ctx, "sized", err)
		return models.ImageAsset{}, err
	}

	scope := s.SizedScope()
	asset, err := s.publisher.Publish(ctx, scope, art, fmt.Sprintf("%dx%d", dims.Width, dims.Height))
	if err != nil {
		s.report(ctx, "sized", err)
		return models.ImageAsset{}, err
	}

	s.retention.Arm(scope, s.cfg.Retention)
	return asset, nil
}

// Generated asks the generator for a new image, normalizes it to WebP and
// publishes it in the generated scope.
func (s *ImageService) Generated(ctx context.Context) (models.ImageAsset, error) {
	srcURL, err := s.generator.GenerateImage(ctx, s.cfg.Prompt)
	if err != nil {
		if core.KindOf(err) == core.KindUnknown {
			err = core.E(core.KindGenerationFailed, "generate", err)
		}
		s.report(ctx, "generated", err)
		return models.ImageAsset{}, err
	}

	art, err := s.transformer.Materialize(ctx, srcURL, nil)
	if err != nil {
		s.report(ctx, "generated", err)
		return models.ImageAsset{}, err
	}

	scope := s.GeneratedScope()
	asset, err := s.publisher.Publish(ctx, scope, art, "ai-baboon")
	if err != nil {
		s.report(ctx, "generated", err)
		return models.ImageAsset{}, err
	}

	s.retention.Arm(scope, s.cfg.Retention)
	s.log.Info(ctx, "generated image published", "url", asset.URL)
	return asset, nil
}

// Batch runs n independent selections. Duplicates are allowed and the
// first failure fails the whole batch.
func (s *ImageService) Batch(ctx context.Context, n int) ([]models.ImageAsset, error) {
	if n <= 0 {
		return []models.ImageAsset{}, nil
	}

	out := make([]models.ImageAsset, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchParallel)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			asset, err := s.selector.PickRandom(gctx, s.SourceScope())
			if err != nil {
				return err
			}
			out[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.report(ctx, "batch", err)
		return nil, err
	}
	return out, nil
}

// Probe checks the store is reachable.
func (s *ImageService) Probe(ctx context.Context) error {
	return s.store.HeadProbe(ctx)
}

// report logs a failed operation. Empty scopes are already logged as
// warnings by the selector.
func (s *ImageService) report(ctx context.Context, op string, err error) {
	if core.KindOf(err) == core.KindNoAssetsFound {
		return
	}
	s.log.Error(ctx, "image operation failed", "op", op, "kind", core.KindOf(err).String(), "err", err)
}
