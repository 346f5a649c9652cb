package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeProject creates a project in a temp directory, changes into it and
// returns its path. files maps slash paths to content.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	t.Chdir(dir)
	t.Setenv("GRAPHPACK_MODE", "")
	t.Setenv("GRAPHPACK_CONFIG", "")
	t.Setenv("NODE_ENV", "")
	return dir
}

func simpleProject() map[string]string {
	return map[string]string{
		"graphpack.yaml": `entry:
  app: ./src/index.js
output:
  path: dist
chunks:
  split:
    - name: vendor
      test: node_modules
`,
		"src/index.js":                    "var greet = require('./greet');\nvar pad = require('left-pad');\nconsole.log(pad(greet('world'), 10));\n",
		"src/greet.js":                    "module.exports = function (name) { return 'hello ' + name; };\n",
		"node_modules/left-pad/index.js":  "module.exports = function (s, n) { return s; };\n",
		"node_modules/left-pad/package.json": `{"name": "left-pad", "main": "index.js"}`,
	}
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
