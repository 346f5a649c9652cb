package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/opmodel/graphpack/internal/output"
)

// ManifestFile is the name of the manifest written next to the artifacts.
const ManifestFile = "manifest.json"

// Writer stores an Output under a directory.
type Writer struct {
	fs  afero.Fs
	dir string

	// Manifest also writes ManifestFile.
	Manifest bool
}

// NewWriter creates a Writer storing files under dir on fs.
func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

// Write stores every artifact and map of out. Either all files are written
// or, after removing whatever was already written, none are. It returns the
// written paths.
func (w *Writer) Write(ctx context.Context, out *Output) (written []string, err error) {
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			if rmErr := w.fs.Remove(p); rmErr != nil {
				output.Warn("could not remove partial output", "path", p, "err", rmErr)
			}
		}
		written = nil
	}()

	files := make(map[string][]byte)
	var order []string
	add := func(name string, data []byte) {
		order = append(order, name)
		files[name] = data
	}
	for _, a := range out.Artifacts() {
		add(a.Filename, a.Content)
		if a.HasMap() {
			add(a.MapFilename, a.Map)
		}
	}
	if w.Manifest {
		data, err := json.MarshalIndent(NewManifest(out), "", "  ")
		if err != nil {
			return nil, &EmitError{Path: ManifestFile, Cause: err}
		}
		add(ManifestFile, append(data, '\n'))
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		p := filepath.Join(w.dir, filepath.FromSlash(name))
		if err := w.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return written, &EmitError{Path: p, Cause: err}
		}
		if err := afero.WriteFile(w.fs, p, files[name], 0o644); err != nil {
			return written, &EmitError{Path: p, Cause: fmt.Errorf("write failed: %w", err)}
		}
		written = append(written, p)
		output.Debug("wrote file", "path", p, "bytes", len(files[name]))
	}
	return written, nil
}

// Manifest describes an Output for tools that load the artifacts.
type Manifest struct {
	LoadOrder []string        `json:"loadOrder"`
	Chunks    []ManifestChunk `json:"chunks"`
}

// ManifestChunk is one artifact in a Manifest.
type ManifestChunk struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Map     string   `json:"map,omitempty"`
	Runtime bool     `json:"runtime,omitempty"`
	Entries []string `json:"entries,omitempty"`
	Modules []string `json:"modules"`
}

// NewManifest builds the manifest of out.
func NewManifest(out *Output) Manifest {
	var m Manifest
	for _, a := range out.Artifacts() {
		m.LoadOrder = append(m.LoadOrder, a.Filename)
		modules := a.Modules
		if modules == nil {
			modules = []string{}
		}
		m.Chunks = append(m.Chunks, ManifestChunk{
			Name:    a.Chunk,
			File:    a.Filename,
			Map:     a.MapFilename,
			Runtime: a.Runtime,
			Entries: a.Entries,
			Modules: modules,
		})
	}
	return m
}
