package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/graphpack/internal/config"
	"github.com/opmodel/graphpack/internal/emit"
	"github.com/opmodel/graphpack/internal/output"
)

// Content types of published objects.
const (
	ContentTypeJS   = "application/javascript"
	ContentTypeJSON = "application/json"
)

// maxUploads bounds concurrent uploads.
const maxUploads = 4

// Publisher uploads every file of a build under a key prefix.
type Publisher struct {
	store  Store
	prefix string
}

// New creates a Publisher for cfg backed by S3Store.
func New(cfg config.PublishConfig) (*Publisher, error) {
	store, err := NewS3Store(cfg)
	if err != nil {
		return nil, err
	}
	p := NewWithStore(store, cfg.Prefix)
	output.Debug("publish target", "endpoint", cfg.Endpoint, "bucket", store.Bucket(), "prefix", p.prefix)
	return p, nil
}

// NewWithStore creates a Publisher writing to store.
func NewWithStore(store Store, prefix string) *Publisher {
	return &Publisher{store: store, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key of a file name.
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

type object struct {
	key         string
	data        []byte
	contentType string
}

// Publish uploads the artifacts, their maps and manifest.json. It returns
// the uploaded keys in load order, manifest last.
func (p *Publisher) Publish(ctx context.Context, out *emit.Output) ([]string, error) {
	var objects []object
	for _, a := range out.Artifacts() {
		objects = append(objects, object{key: p.Key(a.Filename), data: a.Content, contentType: ContentTypeJS})
		if a.HasMap() {
			objects = append(objects, object{key: p.Key(a.MapFilename), data: a.Map, contentType: ContentTypeJSON})
		}
	}
	manifest, err := json.MarshalIndent(emit.NewManifest(out), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	objects = append(objects, object{key: p.Key(emit.ManifestFile), data: manifest, contentType: ContentTypeJSON})

	if err := p.store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxUploads)
	for _, obj := range objects {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := p.store.Put(egCtx, obj.key, obj.data, obj.contentType); err != nil {
				return fmt.Errorf("uploading %s: %w", obj.key, err)
			}
			output.Debug("uploaded object", "key", obj.key, "bytes", len(obj.data))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.key
	}
	return keys, nil
}
