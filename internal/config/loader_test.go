package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/graphpack/internal/errors"
)

// newTestLoader returns a Loader that ignores any .env in the working
// directory.
func newTestLoader() *Loader {
	l := NewLoader()
	l.DotEnv = ""
	return l
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.v)
	assert.Equal(t, ".env", loader.DotEnv)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		configFile := writeConfig(t, "graphpack.yaml", `
root: web
entry:
  app: ./src/index.tsx
output:
  path: dist/js
  filename: "[name].[hash].js"
provide:
  - name: Promise
    module: es6-promise
rules:
  - name: typescript
    test: '\.tsx?$'
    use: [typescript]
chunks:
  runtime: manifest
  split:
    - name: vendor
      test: node_modules
sourceMaps: true
mode: production
`)

		cfg, err := newTestLoader().Load(configFile)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(filepath.Dir(configFile), "web"), cfg.Root)
		assert.Equal(t, map[string]string{"app": "./src/index.tsx"}, cfg.Entry)
		assert.Equal(t, "dist/js", cfg.Output.Path)
		assert.Equal(t, "[name].[hash].js", cfg.Output.Filename)
		assert.Equal(t, []ProvideConfig{{Name: "Promise", Module: "es6-promise"}}, cfg.Provide)
		require.Len(t, cfg.Rules, 1)
		assert.Equal(t, `\.tsx?$`, cfg.Rules[0].Test)
		assert.Equal(t, []string{"typescript"}, cfg.Rules[0].Use)
		assert.Equal(t, "manifest", cfg.Chunks.Runtime)
		assert.Equal(t, []SplitConfig{{Name: "vendor", Test: "node_modules"}}, cfg.Chunks.Split)
		assert.True(t, cfg.SourceMaps)
		assert.Equal(t, "production", cfg.Mode)
		assert.Equal(t, configFile, cfg.File)
	})

	t.Run("applies viper defaults to an empty file", func(t *testing.T) {
		configFile := writeConfig(t, "graphpack.yaml", "")

		cfg, err := newTestLoader().Load(configFile)
		require.NoError(t, err)

		assert.Equal(t, DefaultOutputPath, cfg.Output.Path)
		assert.Equal(t, DefaultFilename, cfg.Output.Filename)
		assert.Equal(t, DefaultChunk, cfg.Chunks.Default)
		assert.Equal(t, DefaultTarget, cfg.Target)
		assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
		assert.Equal(t, filepath.Dir(configFile), cfg.Root)
	})

	t.Run("missing file is not found", func(t *testing.T) {
		_, err := newTestLoader().Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, oerrors.ErrNotFound)
	})

	t.Run("malformed file is a validation error", func(t *testing.T) {
		configFile := writeConfig(t, "graphpack.yaml", "entry: [unclosed\n")

		_, err := newTestLoader().Load(configFile)
		require.Error(t, err)
		assert.ErrorIs(t, err, oerrors.ErrValidation)
	})

	t.Run("env vars override file values", func(t *testing.T) {
		t.Setenv("GRAPHPACK_TARGET", "es2020")
		t.Setenv("GRAPHPACK_OUTPUT_PATH", "build")

		configFile := writeConfig(t, "graphpack.yaml", "target: es5\noutput:\n  path: dist\n")

		cfg, err := newTestLoader().Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, "es2020", cfg.Target)
		assert.Equal(t, "build", cfg.Output.Path)
	})

	t.Run("reads json", func(t *testing.T) {
		configFile := writeConfig(t, "graphpack.json", `{"entry": {"main": "./index.js"}, "concurrency": 2}`)

		cfg, err := newTestLoader().Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, "./index.js", cfg.Entry["main"])
		assert.Equal(t, 2, cfg.Concurrency)
	})

	t.Run("credentials come from the environment", func(t *testing.T) {
		t.Setenv(EnvAccessKey, "access")
		t.Setenv(EnvSecretKey, "secret")

		configFile := writeConfig(t, "graphpack.yaml", "publish:\n  endpoint: localhost:9000\n  bucket: assets\n")

		cfg, err := newTestLoader().Load(configFile)
		require.NoError(t, err)
		assert.True(t, cfg.Publish.Enabled())
		assert.Equal(t, "access", cfg.Publish.AccessKey)
		assert.Equal(t, "secret", cfg.Publish.SecretKey)
	})
}

func TestLoaderLoad_DotEnv(t *testing.T) {
	const key = "GRAPHPACK_CONCURRENCY"
	t.Cleanup(func() { os.Unsetenv(key) })

	configFile := writeConfig(t, "graphpack.yaml", "concurrency: 4\n")
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(key+"=3\n"), 0o644))

	loader := NewLoader()
	loader.DotEnv = dotenv

	cfg, err := loader.Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Concurrency)
}

func TestLoaderLoadWithDefaults(t *testing.T) {
	configFile := writeConfig(t, "graphpack.yaml", "resolve:\n  cacheSize: 0\n")

	cfg, err := newTestLoader().LoadWithDefaults(configFile)
	require.NoError(t, err)
	assert.Equal(t, DefaultResolveCache, cfg.Resolve.CacheSize)
	assert.NotEmpty(t, cfg.Resolve.Extensions)
}

func TestConfigFileExists(t *testing.T) {
	configFile := writeConfig(t, "graphpack.yaml", "")

	exists, err := ConfigFileExists(configFile)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = ConfigFileExists(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, exists)
}
