package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/graphpack/internal/config"
	oerrors "github.com/opmodel/graphpack/internal/errors"
)

func TestNewConfigCmd(t *testing.T) {
	c := NewConfigCmd(nil)

	assert.Equal(t, "config", c.Use)
	var names []string
	for _, sub := range c.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"init", "vet"}, names)
}

func TestConfigInit(t *testing.T) {
	t.Run("writes a valid default file", func(t *testing.T) {
		dir := writeProject(t, map[string]string{"src/index.js": "1;\n"})

		_, _, err := execute(t, "config", "init")
		require.NoError(t, err)

		path := filepath.Join(dir, "graphpack.yaml")
		require.FileExists(t, path)

		v, err := config.NewValidator()
		require.NoError(t, err)
		assert.NoError(t, v.ValidateFile(path))
	})

	t.Run("honors --config", func(t *testing.T) {
		dir := writeProject(t, nil)

		_, _, err := execute(t, "config", "init", "-c", "configs/build.yaml")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "configs", "build.yaml"))
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		dir := writeProject(t, map[string]string{"graphpack.yaml": "# existing\n"})

		_, _, err := execute(t, "config", "init")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		assert.ErrorIs(t, err, oerrors.ErrValidation)

		data, err := os.ReadFile(filepath.Join(dir, "graphpack.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "# existing\n", string(data))
	})

	t.Run("force overwrites", func(t *testing.T) {
		dir := writeProject(t, map[string]string{"graphpack.yaml": "# existing\n"})

		_, _, err := execute(t, "config", "init", "--force")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "graphpack.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "entry:")
	})
}

func TestConfigVet(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		writeProject(t, simpleProject())

		_, _, err := execute(t, "config", "vet")
		assert.NoError(t, err)
	})

	t.Run("lists every problem", func(t *testing.T) {
		writeProject(t, map[string]string{"graphpack.yaml": `entry:
  app: ./src/index.js
target: es1999
rules:
  - name: broken
    test: '('
    use: [nope]
`})

		_, stderr, err := execute(t, "config", "vet")
		var exitErr *oerrors.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, oerrors.ExitValidationError, exitErr.Code)
		assert.True(t, exitErr.Printed)

		assert.Contains(t, stderr, "rules[0].test")
		assert.Contains(t, stderr, "rules[0].use[0]")
		assert.Contains(t, stderr, "target")
	})

	t.Run("missing file", func(t *testing.T) {
		writeProject(t, nil)

		_, _, err := execute(t, "config", "vet")
		var exitErr *oerrors.ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, oerrors.ExitNotFound, exitErr.Code)
	})
}
