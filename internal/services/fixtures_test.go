package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/baboon-api/internal/core/imaging"
	objectclient "github.com/markdave123-py/baboon-api/internal/core/object-client"
	"github.com/markdave123-py/baboon-api/internal/logging"
)

// recorder is a metrics.Metrics that remembers every call.
type recorder struct {
	mu         sync.Mutex
	selections map[string]int
	publishes  map[string]int
	evictions  map[string]int
	evicted    map[string]int
}

func newRecorder() *recorder {
	return &recorder{
		selections: map[string]int{},
		publishes:  map[string]int{},
		evictions:  map[string]int{},
		evicted:    map[string]int{},
	}
}

func (r *recorder) IncSelection(scope, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections[scope+"|"+outcome]++
}

func (r *recorder) IncPublish(scope, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishes[scope+"|"+status]++
}

func (r *recorder) IncEviction(scope, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions[scope+"|"+status]++
}

func (r *recorder) AddEvicted(scope string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted[scope] += n
}

func (r *recorder) eviction(scope, status string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictions[scope+"|"+status]
}

type fakeGenerator struct {
	url    string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.url, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// cdnFor serves the memory store's objects over HTTP, so public URLs handed
// out by the store can be fetched by the pipeline.
func cdnFor(t *testing.T, store func() *objectclient.MemoryClient) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ct, ok := store().Object(strings.TrimPrefix(r.URL.Path, "/"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	store     *objectclient.MemoryClient
	cdn       *httptest.Server
	metrics   *recorder
	generator *fakeGenerator
	retention *RetentionScheduler
	publisher *Publisher
	selector  *AssetSelector
	svc       *ImageService
}

func newFixture(t *testing.T, retention time.Duration) *fixture {
	t.Helper()
	f := &fixture{metrics: newRecorder(), generator: &fakeGenerator{}}
	f.cdn = cdnFor(t, func() *objectclient.MemoryClient { return f.store })
	f.store = objectclient.NewMemoryClient(f.cdn.URL)

	log := logging.Discard()
	f.selector = NewAssetSelector(f.store, log, f.metrics)
	f.publisher = NewPublisher(f.store, f.metrics)
	f.retention = NewRetentionScheduler(f.store, log, f.metrics, time.Second)
	t.Cleanup(func() { _ = f.retention.Stop(context.Background()) })

	f.svc = NewImageService(
		f.store,
		f.selector,
		imaging.NewPipeline(imaging.Config{FetchTimeout: 5 * time.Second}),
		f.publisher,
		f.retention,
		f.generator,
		log,
		ServiceConfig{Root: "baboons", Retention: retention, Prompt: "a baboon", BatchParallel: 3},
	)
	return f
}
