package core

import (
	"context"

	"github.com/markdave123-py/baboon-api/internal/models"
)

// ObjectClient defines interactions with S3 or any S3-compatible object storage.
// Implementations hold no business logic; errors are returned as *Error with
// the matching Kind.
type ObjectClient interface {
	// List returns the objects directly under scope. Only the first page is read.
	List(ctx context.Context, scope string) ([]models.StoredObject, error)
	// Put writes data with a public-read ACL and returns its CDN URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	// DeleteAll removes keys in one batch. Partial failures are reported, not retried.
	DeleteAll(ctx context.Context, keys []string) error
	// HeadProbe checks the bucket is reachable with the configured credentials.
	HeadProbe(ctx context.Context) error
	// PublicURL maps a key to its CDN URL.
	PublicURL(key string) string
}

// ImageTransformer fetches a source image and turns it into a derived artifact.
// A nil dims means re-encode only.
type ImageTransformer interface {
	Materialize(ctx context.Context, sourceURL string, dims *models.Dims) (*models.DerivedArtifact, error)
}
