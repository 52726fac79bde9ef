package imaging

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// Config tunes the pipeline.
//
// FetchTimeout:   upper bound for one upstream download.
// MaxSourceBytes: bodies larger than this are rejected as fetch failures.
// MaxSourcePixels: images declaring more pixels than this are not decoded.
type Config struct {
	FetchTimeout    time.Duration
	MaxSourceBytes  int64
	MaxSourcePixels int64
}

// DefaultMaxPixels is 40 megapixels, about 160 MiB once decoded to RGBA.
const DefaultMaxPixels = 40_000_000

// Pipeline fetches a source image, optionally resizes it and re-encodes it to WebP.
type Pipeline struct {
	http      *resty.Client
	maxBytes  int64
	maxPixels int64
}

func NewPipeline(cfg Config) *Pipeline {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = 25 << 20
	}
	if cfg.MaxSourcePixels <= 0 {
		cfg.MaxSourcePixels = DefaultMaxPixels
	}
	client := resty.New().
		SetTimeout(cfg.FetchTimeout).
		SetHeader("Accept", "image/*")
	return &Pipeline{http: client, maxBytes: cfg.MaxSourceBytes, maxPixels: cfg.MaxSourcePixels}
}

// Materialize turns sourceURL into a WebP artifact, resized to dims when dims is non-nil.
// Fetch problems come back as SourceFetchFailed, codec problems as TransformFailed.
func (p *Pipeline) Materialize(ctx context.Context, sourceURL string, dims *models.Dims) (*models.DerivedArtifact, error) {
	data, err := p.fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	img, err := decode(data, p.maxPixels)
	if err != nil {
		return nil, core.E(core.KindTransformFailed, "materialize", err)
	}

	if dims != nil {
		if dims.Width <= 0 || dims.Height <= 0 {
			return nil, core.E(core.KindTransformFailed, "materialize", fmt.Errorf("invalid target size %dx%d", dims.Width, dims.Height))
		}
		img = resize(img, *dims)
	}

	out, err := encode(img)
	if err != nil {
		return nil, core.E(core.KindTransformFailed, "materialize", err)
	}
	return &models.DerivedArtifact{Buffer: out, ContentType: ContentType}, nil
}

var _ core.ImageTransformer = (*Pipeline)(nil)
