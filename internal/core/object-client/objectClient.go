package objectclient

import (
	"context"
	"fmt"
	"strings"

	cfg "github.com/markdave123-py/baboon-api/internal/config"
	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
)

// New picks the driver named by cfg.StoreDriver.
// All drivers share the same key layout and CDN URL template, so switching
// providers needs no code changes.
func New(ctx context.Context, c *cfg.Config, log logging.Logger) (core.ObjectClient, error) {
	switch c.StoreDriver {
	case cfg.DriverS3, "":
		return NewS3Client(ctx, c, log)
	case cfg.DriverMinio:
		return NewMinioClient(ctx, c, log)
	case cfg.DriverMemory:
		return NewMemoryClient(c.BucketCDNEndpoint), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
}

// publicURL renders the CDN template {cdn}/{key}.
func publicURL(cdn, key string) string {
	return strings.TrimRight(cdn, "/") + "/" + strings.TrimLeft(key, "/")
}

// scopePrefix turns "root/sized" into the listing prefix "root/sized/".
func scopePrefix(scope string) string {
	scope = strings.Trim(scope, "/")
	if scope == "" {
		return ""
	}
	return scope + "/"
}

// directChild reports whether key sits directly inside scope, not in a sub-folder.
func directChild(scope, key string) bool {
	prefix := scopePrefix(scope)
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	rest := key[len(prefix):]
	return rest != "" && !strings.Contains(rest, "/")
}

func partialDeleteError(failed []string, total int) error {
	return fmt.Errorf("%d of %d objects not deleted: %s", len(failed), total, strings.Join(failed, ", "))
}
