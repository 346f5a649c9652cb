package graph

import (
	"encoding/json"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// DefaultExtensions is the candidate suffix priority used when none is
// configured.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".json"}

// Resolver maps import specifiers to module IDs.
//
// Relative specifiers ("./", "../", "/") resolve against the importer's
// directory. Bare specifiers are looked up in node_modules directories from
// the importer's directory up to the root. Each candidate path is tried as
// an exact file, then with each extension in order, then as a directory
// (package.json "main", then index plus extensions).
type Resolver struct {
	fs         afero.Fs
	extensions []string
	cache      *lru.Cache[string, string]
}

// NewResolver creates a Resolver. cacheSize bounds the number of memoised
// resolutions.
func NewResolver(fs afero.Fs, extensions []string, cacheSize int) (*Resolver, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		fs:         fs,
		extensions: append([]string(nil), extensions...),
		cache:      cache,
	}, nil
}

// IsRelative reports whether spec is a path rather than a package name.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/") || spec == "." || spec == ".."
}

// Resolve resolves spec imported from a module in directory dir. It returns
// the module ID, or ok=false with the candidates that were tried.
func (r *Resolver) Resolve(dir, spec string) (id string, tried []string, ok bool) {
	key := dir + "\x00" + spec
	if id, ok := r.cache.Get(key); ok {
		return id, nil, true
	}

	if IsRelative(spec) {
		base := path.Join(dir, spec)
		if strings.HasPrefix(spec, "/") {
			base = path.Clean(strings.TrimPrefix(spec, "/"))
		}
		id, tried, ok = r.resolvePath(base, nil)
	} else {
		for d := dir; ; d = path.Dir(d) {
			id, tried, ok = r.resolvePath(path.Join(d, "node_modules", spec), tried)
			if ok || d == "." || d == "/" {
				break
			}
		}
	}

	if ok {
		r.cache.Add(key, id)
	}
	return id, tried, ok
}

// ResolveEntry resolves an entry path relative to the build root.
func (r *Resolver) ResolveEntry(entry string) (string, []string, bool) {
	p := path.Clean(strings.TrimPrefix(filepath.ToSlash(entry), "/"))
	return r.resolvePath(p, nil)
}

func (r *Resolver) resolvePath(p string, tried []string) (string, []string, bool) {
	if strings.HasPrefix(p, "../") || p == ".." {
		return "", append(tried, p), false
	}

	if id, ok := r.fileOrExtension(p, &tried); ok {
		return id, tried, true
	}

	if !r.isDir(p) {
		return "", tried, false
	}

	if main := r.packageMain(p); main != "" {
		mainPath := path.Join(p, main)
		if id, ok := r.fileOrExtension(mainPath, &tried); ok {
			return id, tried, true
		}
		if r.isDir(mainPath) {
			if id, ok := r.fileOrExtension(path.Join(mainPath, "index"), &tried); ok {
				return id, tried, true
			}
		}
	}

	if id, ok := r.fileOrExtension(path.Join(p, "index"), &tried); ok {
		return id, tried, true
	}
	return "", tried, false
}

func (r *Resolver) fileOrExtension(p string, tried *[]string) (string, bool) {
	*tried = append(*tried, p)
	if r.isFile(p) {
		return p, true
	}
	for _, ext := range r.extensions {
		candidate := p + ext
		*tried = append(*tried, candidate)
		if r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *Resolver) packageMain(dir string) string {
	data, err := afero.ReadFile(r.fs, filepath.FromSlash(path.Join(dir, "package.json")))
	if err != nil {
		return ""
	}
	var pkg struct {
		Main string `json:"main"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Main
}

func (r *Resolver) isFile(p string) bool {
	st, err := r.fs.Stat(filepath.FromSlash(p))
	return err == nil && !st.IsDir()
}

func (r *Resolver) isDir(p string) bool {
	st, err := r.fs.Stat(filepath.FromSlash(p))
	return err == nil && st.IsDir()
}
