package steps

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/sourcemap"
	"github.com/opmodel/graphpack/internal/transform"
)

var mapURLPattern = regexp.MustCompile(`(?m)^[ \t]*//[#@][ \t]*sourceMappingURL=(\S+)[ \t]*$`)

// newSourceMap adopts a source map referenced by a sourceMappingURL comment,
// so positions point through a precompiled file to its own originals. The
// comment line is blanked. Modules without a usable map pass through.
func newSourceMap(opts Options) (transform.Step, error) {
	if opts.FS == nil {
		return transform.Step{}, fmt.Errorf("no filesystem configured")
	}
	fs := opts.FS

	run := func(in transform.Input) (transform.Output, error) {
		pass := transform.Output{Source: in.Source, Mappings: in.Mappings}

		locs := mapURLPattern.FindAllStringSubmatchIndex(in.Source, -1)
		if len(locs) == 0 {
			return pass, nil
		}
		loc := locs[len(locs)-1]
		ref := in.Source[loc[2]:loc[3]]
		stripped := in.Source[:loc[0]] + in.Source[loc[1]:]

		data, mapPath, err := readMap(fs, path.Dir(in.ModuleID), ref)
		if err != nil {
			output.Warn("ignoring source map", "module", in.ModuleID, "ref", ref, "err", err)
			pass.Source = stripped
			return pass, nil
		}

		sm, m, err := sourcemap.Parse(data)
		if err != nil {
			return transform.Output{}, fmt.Errorf("parsing source map %q: %w", ref, err)
		}

		sources := sm.SourceList()
		base := path.Dir(mapPath)
		for i := range sources {
			name := sources[i].Name
			if sm.SourceRoot != "" {
				name = path.Join(sm.SourceRoot, name)
			}
			if !strings.Contains(name, "://") && !path.IsAbs(name) {
				name = path.Join(base, name)
			}
			sources[i].Name = name
			if sources[i].Content == "" {
				if content, err := afero.ReadFile(fs, filepath.FromSlash(name)); err == nil {
					sources[i].Content = string(content)
				}
			}
		}

		// Line maps only move lines of the file the map describes, so the
		// adopted map keeps its column detail.
		mappings := sourcemap.Compose(in.Mappings, m)
		if in.Mappings.IsLineMap() {
			mappings = sourcemap.ComposeLines(in.Mappings, m)
		}

		return transform.Output{
			Source:   stripped,
			Mappings: mappings,
			Sources:  sources,
		}, nil
	}
	return transform.Step{Name: "source-map", Run: run}, nil
}

// readMap loads the map a sourceMappingURL points at, either inline as a
// data URL or as a file relative to dir. It returns the map's own path,
// which inline maps share with the module.
func readMap(fs afero.Fs, dir, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		data, err := decodeDataURL(ref)
		return data, path.Join(dir, "inline.map"), err
	}
	if strings.Contains(ref, "://") {
		return nil, "", fmt.Errorf("remote source maps are not supported")
	}
	unescaped, err := url.PathUnescape(ref)
	if err != nil {
		return nil, "", err
	}
	p := path.Join(dir, unescaped)
	data, err := afero.ReadFile(fs, filepath.FromSlash(p))
	if err != nil {
		return nil, "", err
	}
	return data, p, nil
}

func decodeDataURL(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
