package objectclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/markdave123-py/baboon-api/internal/config"
	"github.com/markdave123-py/baboon-api/internal/core"
	"github.com/markdave123-py/baboon-api/internal/logging"
)

func TestDirectChild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		scope string
		key   string
		want  bool
	}{
		{name: "direct", scope: "baboons", key: "baboons/a.webp", want: true},
		{name: "nested scope", scope: "baboons/sized", key: "baboons/sized/10x10-1.webp", want: true},
		{name: "sub folder", scope: "baboons", key: "baboons/sized/10x10-1.webp", want: false},
		{name: "folder marker", scope: "baboons", key: "baboons/", want: false},
		{name: "other prefix", scope: "baboons", key: "baboonsx/a.webp", want: false},
		{name: "trailing slash scope", scope: "baboons/", key: "baboons/a.png", want: true},
		{name: "root scope", scope: "", key: "a.png", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, directChild(tt.scope, tt.key))
		})
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/baboons/a.webp", publicURL("https://cdn.example.com/", "/baboons/a.webp"))
	assert.Equal(t, "https://cdn.example.com/baboons/a.webp", publicURL("https://cdn.example.com", "baboons/a.webp"))
}

func TestMinioHost(t *testing.T) {
	assert.Equal(t, "fra1.digitaloceanspaces.com", minioHost("https://fra1.digitaloceanspaces.com"))
	assert.Equal(t, "localhost:9000", minioHost("localhost:9000"))
	assert.Equal(t, "localhost:9000", minioHost("http://localhost:9000/"))
}

func TestNew_MemoryDriver(t *testing.T) {
	c, err := New(context.Background(), &cfg.Config{StoreDriver: cfg.DriverMemory, BucketCDNEndpoint: "https://cdn"}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &MemoryClient{}, c)
	assert.Equal(t, "https://cdn/k.webp", c.PublicURL("k.webp"))

	_, err = New(context.Background(), &cfg.Config{StoreDriver: "floppy"}, logging.Discard())
	require.Error(t, err)
}

func TestNew_S3DriverNeedsCredentials(t *testing.T) {
	_, err := New(context.Background(), &cfg.Config{StoreDriver: cfg.DriverS3, BucketName: "b"}, logging.Discard())
	require.Error(t, err)

	_, err = New(context.Background(), &cfg.Config{StoreDriver: cfg.DriverMinio, BucketKey: "k", BucketSecret: "s"}, logging.Discard())
	require.Error(t, err)
}

func TestMemoryClient_ListPutDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient("https://cdn.example.com")
	m.Seed("baboons/a.webp", []byte("a"), "image/webp")
	m.Seed("baboons/sized/old.webp", []byte("old"), "image/webp")

	objs, err := m.List(ctx, "baboons")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "baboons/a.webp", objs[0].Key)
	assert.Equal(t, int64(1), objs[0].Size)

	url, err := m.Put(ctx, "baboons/sized/new.webp", []byte("new"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/baboons/sized/new.webp", url)
	assert.Equal(t, 1, m.Puts())

	sized, err := m.List(ctx, "baboons/sized")
	require.NoError(t, err)
	require.Len(t, sized, 2)

	require.NoError(t, m.DeleteAll(ctx, []string{sized[0].Key, sized[1].Key}))
	assert.Equal(t, []string{"baboons/a.webp"}, m.Keys())

	// empty delete never reaches the store
	require.NoError(t, m.DeleteAll(ctx, nil))
	assert.Equal(t, 1, m.Deletes())
}

func TestMemoryClient_InjectedFailuresCarryKinds(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient("")
	boom := errors.New("boom")
	m.ListErr, m.PutErr, m.DeleteErr, m.HeadErr = boom, boom, boom, boom

	_, err := m.List(ctx, "x")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = m.Put(ctx, "x/y.webp", nil, "image/webp")
	assert.ErrorIs(t, err, core.ErrUploadFailed)

	err = m.DeleteAll(ctx, []string{"x/y.webp"})
	assert.ErrorIs(t, err, core.ErrDeleteFailed)

	assert.ErrorIs(t, m.HeadProbe(ctx), core.ErrStoreUnavailable)
}
