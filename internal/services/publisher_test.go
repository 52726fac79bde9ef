package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/baboon-api/internal/core"
	objectclient "github.com/markdave123-py/baboon-api/internal/core/object-client"
	"github.com/markdave123-py/baboon-api/internal/logging"
	"github.com/markdave123-py/baboon-api/internal/metrics"
	"github.com/markdave123-py/baboon-api/internal/models"
)

func webpArtifact() *models.DerivedArtifact {
	return &models.DerivedArtifact{Buffer: []byte("RIFF....WEBP"), ContentType: "image/webp"}
}

func TestPublish_KeyLayout(t *testing.T) {
	store := objectclient.NewMemoryClient("https://cdn.example.com")
	p := NewPublisher(store, metrics.Noop{})
	p.now = func() time.Time { return time.Unix(0, 1700000000000000042) }

	asset, err := p.Publish(context.Background(), "baboons/sized", webpArtifact(), "300x200")
	require.NoError(t, err)

	keys := store.Keys()
	require.Len(t, keys, 1)
	key := keys[0]
	assert.True(t, strings.HasPrefix(key, "baboons/sized/300x200-1700000000000000042-"), key)
	assert.True(t, strings.HasSuffix(key, ".webp"), key)
	assert.Equal(t, "https://cdn.example.com/"+key, asset.URL)

	_, ct, ok := store.Object(key)
	require.True(t, ok)
	assert.Equal(t, "image/webp", ct)
}

func TestPublish_ConcurrentSameInstantYieldsDistinctKeys(t *testing.T) {
	store := objectclient.NewMemoryClient("https://cdn")
	p := NewPublisher(store, metrics.Noop{})
	frozen := time.Now()
	p.now = func() time.Time { return frozen }

	const n = 64
	var wg sync.WaitGroup
	urls := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset, err := p.Publish(context.Background(), "baboons/generated", webpArtifact(), "ai-baboon")
			assert.NoError(t, err)
			urls[i] = asset.URL
		}()
	}
	wg.Wait()

	distinct := map[string]bool{}
	for _, u := range urls {
		distinct[u] = true
	}
	assert.Len(t, distinct, n)
	assert.Len(t, store.Keys(), n)
}

func TestPublish_UploadFailure(t *testing.T) {
	store := objectclient.NewMemoryClient("https://cdn")
	store.PutErr = errors.New("EntityTooLarge")
	rec := newRecorder()
	p := NewPublisher(store, rec)

	_, err := p.Publish(context.Background(), "s", webpArtifact(), "x")
	assert.ErrorIs(t, err, core.ErrUploadFailed)
	assert.Equal(t, 1, rec.publishes["s|error"])

	_, err = p.Publish(context.Background(), "s", &models.DerivedArtifact{}, "x")
	assert.ErrorIs(t, err, core.ErrUploadFailed)
}

func TestPublish_ThenSelectCanReturnIt(t *testing.T) {
	store := objectclient.NewMemoryClient("https://cdn")
	p := NewPublisher(store, metrics.Noop{})
	sel := NewAssetSelector(store, logging.Discard(), metrics.Noop{})

	published, err := p.Publish(context.Background(), "baboons/sized", webpArtifact(), "10x10")
	require.NoError(t, err)

	picked, err := sel.PickRandom(context.Background(), "baboons/sized")
	require.NoError(t, err)
	assert.Equal(t, published.URL, picked.URL)
}

func TestObjectKeyHintSanitising(t *testing.T) {
	p := NewPublisher(objectclient.NewMemoryClient(""), metrics.Noop{})

	key := p.objectKey("a/b", "../x/y", "image/png")
	assert.True(t, strings.HasPrefix(key, "a/b/..-x-y-"), key)
	assert.Equal(t, 2, strings.Count(key, "/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	key = p.objectKey("a", "", "application/weird")
	assert.True(t, strings.HasPrefix(key, "a/asset-"), key)
	assert.True(t, strings.HasSuffix(key, ".bin"))
}
