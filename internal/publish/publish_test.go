package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/graphpack/internal/config"
	"github.com/opmodel/graphpack/internal/emit"
	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/sourcemap"
)

type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	ensured   int
	ensureErr error
	putErr    error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *memStore) EnsureBucket(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured++
	return s.ensureErr
}

func (s *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

func testOutput(t *testing.T) *emit.Output {
	t.Helper()
	src := "module.exports = 1;\n"
	g := &graph.Graph{
		Modules: map[string]*graph.Module{
			"index.js": {
				ID:       "index.js",
				Source:   src,
				Original: src,
				Deps:     map[string]string{},
				Sources:  []sourcemap.Source{{Name: "index.js", Content: src}},
				Mappings: sourcemap.Identity(src),
			},
		},
		Entries: map[string]string{"main": "index.js"},
	}
	out, err := emit.Emit(context.Background(), map[string][]string{"main": {"index.js"}}, g, emit.Options{SourceMaps: true})
	require.NoError(t, err)
	return out
}

func TestPublish(t *testing.T) {
	store := newMemStore()
	p := NewWithStore(store, "/assets/v1/")

	keys, err := p.Publish(context.Background(), testOutput(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"assets/v1/main.js", "assets/v1/main.js.map", "assets/v1/manifest.json"}, keys)
	assert.Equal(t, 1, store.ensured)
	assert.Equal(t, ContentTypeJS, store.types["assets/v1/main.js"])
	assert.Equal(t, ContentTypeJSON, store.types["assets/v1/main.js.map"])
	assert.Contains(t, string(store.objects["assets/v1/main.js"]), `modules["index.js"]`)

	var manifest emit.Manifest
	require.NoError(t, json.Unmarshal(store.objects["assets/v1/manifest.json"], &manifest))
	assert.Equal(t, []string{"main.js"}, manifest.LoadOrder)
}

func TestPublish_NoPrefix(t *testing.T) {
	p := NewWithStore(newMemStore(), "")
	assert.Equal(t, "main.js", p.Key("main.js"))
	assert.Equal(t, "js/main.js", NewWithStore(newMemStore(), "js").Key("main.js"))
}

func TestPublish_Errors(t *testing.T) {
	t.Run("bucket", func(t *testing.T) {
		store := newMemStore()
		store.ensureErr = errors.New("access denied")

		_, err := NewWithStore(store, "").Publish(context.Background(), testOutput(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ensure bucket")
		assert.Empty(t, store.objects)
	})

	t.Run("upload", func(t *testing.T) {
		store := newMemStore()
		store.putErr = errors.New("timeout")

		_, err := NewWithStore(store, "").Publish(context.Background(), testOutput(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		store := newMemStore()
		_, err := NewWithStore(store, "").Publish(ctx, testOutput(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, store.objects)
	})
}

func TestNewS3Store(t *testing.T) {
	valid := config.PublishConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "assets",
		AccessKey: "access",
		SecretKey: "secret",
	}

	store, err := NewS3Store(valid)
	require.NoError(t, err)
	assert.Equal(t, "assets", store.Bucket())
	assert.Equal(t, defaultRegion, store.region)

	tests := []struct {
		name   string
		modify func(*config.PublishConfig)
		want   string
	}{
		{"no endpoint", func(c *config.PublishConfig) { c.Endpoint = "" }, "endpoint"},
		{"no bucket", func(c *config.PublishConfig) { c.Bucket = " " }, "bucket"},
		{"no credentials", func(c *config.PublishConfig) { c.SecretKey = "" }, config.EnvSecretKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			_, err := NewS3Store(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew(t *testing.T) {
	pub, err := New(config.PublishConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "assets",
		Prefix:    "/static/v1/",
		AccessKey: "access",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "static/v1/app.js", pub.Key("app.js"))

	_, err = New(config.PublishConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
