package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/metrics"
	"github.com/markdave123-py/baboon-api/internal/models"
)

// Publisher writes derived artifacts back to the store under a scope.
type Publisher struct {
	store   core.ObjectClient
	metrics metrics.Metrics
	now     func() time.Time
}

func NewPublisher(store core.ObjectClient, m metrics.Metrics) *Publisher {
	return &Publisher{store: store, metrics: m, now: time.Now}
}

// Publish uploads artifact as {scope}/{keyHint}-{unixnano}-{random}.{ext} and returns its public URL.
func (p *Publisher) Publish(ctx context.Context, scope string, artifact *models.DerivedArtifact, keyHint string) (models.ImageAsset, error) {
	if artifact == nil || len(artifact.Buffer) == 0 {
		p.metrics.IncPublish(scope, "error")
		return models.ImageAsset{}, core.Errorf(core.KindUploadFailed, "publish", "empty artifact")
	}

	key := p.objectKey(scope, keyHint, artifact.ContentType)
	url, err := p.store.Put(ctx, key, artifact.Buffer, artifact.ContentType)
	if err != nil {
		p.metrics.IncPublish(scope, "error")
		if core.KindOf(err) != core.KindUploadFailed {
			err = core.E(core.KindUploadFailed, "publish", err)
		}
		return models.ImageAsset{}, err
	}

	p.metrics.IncPublish(scope, "ok")
	return models.ImageAsset{URL: url}, nil
}

// objectKey creates a key that is unique per call, even for concurrent calls
// in the same nanosecond.
func (p *Publisher) objectKey(scope, keyHint, contentType string) string {
	hint := strings.Trim(strings.ReplaceAll(strings.TrimSpace(keyHint), "/", "-"), "-")
	if hint == "" {
		hint = "asset"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := fmt.Sprintf("%s-%d-%s.%s", hint, p.now().UnixNano(), suffix, extensionFor(contentType))
	return models.JoinScope(scope, name)
}

func extensionFor(contentType string) string {
	ct, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	switch strings.TrimSpace(ct) {
	case "image/webp":
		return "webp"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}
