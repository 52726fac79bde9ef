package objectclient

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/models"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryClient keeps objects in process memory. It backs local runs with
// STORE_DRIVER=memory and doubles as the store in tests.
type MemoryClient struct {
	mu      sync.Mutex
	objects map[string]memObject
	cdn     string

	// Injected failures, returned as-is when set.
	ListErr   error
	PutErr    error
	DeleteErr error
	HeadErr   error

	puts    int
	deletes int
}

func NewMemoryClient(cdn string) *MemoryClient {
	if cdn == "" {
		cdn = "memory://bucket"
	}
	return &MemoryClient{objects: make(map[string]memObject), cdn: cdn}
}

// Seed stores an object without counting it as an upload.
func (m *MemoryClient) Seed(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, contentType: contentType, modified: time.Now()}
}

// Keys returns every stored key, sorted.
func (m *MemoryClient) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Object returns the stored bytes and content type for key.
func (m *MemoryClient) Object(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o.data, o.contentType, ok
}

// Puts is the number of successful Put calls.
func (m *MemoryClient) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Deletes is the number of DeleteAll calls that reached the store.
func (m *MemoryClient) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

func (m *MemoryClient) List(ctx context.Context, scope string) ([]models.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.E(core.KindStoreUnavailable, "memory list", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, core.E(core.KindStoreUnavailable, "memory list", m.ListErr)
	}

	var objs []models.StoredObject
	for k, o := range m.objects {
		if !directChild(scope, k) {
			continue
		}
		objs = append(objs, models.StoredObject{Key: k, LastModified: o.modified, Size: int64(len(o.data))})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (m *MemoryClient) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", core.E(core.KindUploadFailed, "memory put", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", core.E(core.KindUploadFailed, "memory put", m.PutErr)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = memObject{data: buf, contentType: contentType, modified: time.Now()}
	m.puts++
	return publicURL(m.cdn, key), nil
}

func (m *MemoryClient) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return core.E(core.KindDeleteFailed, "memory delete", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.DeleteErr != nil {
		return core.E(core.KindDeleteFailed, "memory delete", m.DeleteErr)
	}
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryClient) HeadProbe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HeadErr != nil {
		return core.E(core.KindStoreUnavailable, "memory head", m.HeadErr)
	}
	return nil
}

func (m *MemoryClient) PublicURL(key string) string {
	return publicURL(m.cdn, key)
}

var _ core.ObjectClient = (*MemoryClient)(nil)
