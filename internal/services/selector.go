package services

import (
	"context"
	"math/rand/v2"
	"path"
	"strings"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/metrics"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// imageExtensions is the allow-list of formats the selector will serve.
var imageExtensions = map[string]bool{
	".webp": true,
	".png":  true,
	".jpeg": true,
	".jpg":  true,
}

// IsImageKey reports whether key ends in a recognised image extension (case-insensitive).
func IsImageKey(key string) bool {
	return imageExtensions[strings.ToLower(path.Ext(key))]
}

// AssetSelector picks one eligible image out of a scope, uniformly at random.
type AssetSelector struct {
	store   core.ObjectClient
	log     logging.Logger
	metrics metrics.Metrics
	intn    func(n int) int
}

func NewAssetSelector(store core.ObjectClient, log logging.Logger, m metrics.Metrics) *AssetSelector {
	return &AssetSelector{store: store, log: log, metrics: m, intn: rand.IntN}
}

// PickRandom lists scope, keeps image keys and returns the CDN URL of one of them.
// An empty candidate set yields ErrNoAssetsFound, never an empty URL.
func (s *AssetSelector) PickRandom(ctx context.Context, scope string) (models.ImageAsset, error) {
	objs, err := s.store.List(ctx, scope)
	if err != nil {
		s.metrics.IncSelection(scope, "error")
		if core.KindOf(err) == core.KindUnknown {
			err = core.E(core.KindStoreUnavailable, "pick random", err)
		}
		return models.ImageAsset{}, err
	}

	candidates := make([]string, 0, len(objs))
	for _, o := range objs {
		if IsImageKey(o.Key) {
			candidates = append(candidates, o.Key)
		}
	}

	if len(candidates) == 0 {
		s.metrics.IncSelection(scope, "empty")
		s.log.Warn(ctx, "no images found", "scope", scope, "listed", len(objs))
		return models.ImageAsset{}, core.Errorf(core.KindNoAssetsFound, "pick random", "scope %q has no images", scope)
	}

	key := candidates[s.intn(len(candidates))]
	s.metrics.IncSelection(scope, "ok")
	return models.ImageAsset{URL: s.store.PublicURL(key)}, nil
}
