package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Root:  ".",
		Entry: map[string]string{"app": "./src/index.ts"},
		Output: OutputConfig{
			Path:     "dist",
			Filename: "[name].js",
		},
		Provide: []ProvideConfig{{Name: "$", Module: "jquery"}},
		Define:  []DefineConfig{{Name: "DEBUG", Value: "false"}},
		Rules: []RuleConfig{
			{Name: "typescript", Test: `\.tsx?$`, Use: []string{"typescript"}},
			{Name: "maps", Test: `\.js$`, Enforce: EnforcePre, Use: []string{"source-map"}},
		},
		Chunks: ChunksConfig{
			Default: "app",
			Runtime: "manifest",
			Split:   []SplitConfig{{Name: "vendor", Test: "node_modules"}},
		},
		Target:      "es2015",
		Mode:        "development",
		Concurrency: 4,
	}
}

func TestNewValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.True(t, v.schema.Exists())
}

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(validConfig()))
	assert.NoError(t, v.Validate(DefaultConfig()))
}

func TestValidator_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{
			name:   "no entries",
			modify: func(c *Config) { c.Entry = nil },
			field:  "entry",
		},
		{
			name:   "bad test regexp",
			modify: func(c *Config) { c.Rules[0].Test = "(" },
			field:  "rules[0].test",
		},
		{
			name:   "bad exclude regexp",
			modify: func(c *Config) { c.Rules[0].Exclude = "[" },
			field:  "rules[0].exclude",
		},
		{
			name:   "unknown step",
			modify: func(c *Config) { c.Rules[0].Use = []string{"babel"} },
			field:  "rules[0].use[0]",
		},
		{
			name:   "unknown enforce",
			modify: func(c *Config) { c.Rules[0].Enforce = "post" },
			field:  "rules[0].enforce",
		},
		{
			name:   "duplicate rule",
			modify: func(c *Config) { c.Rules[1].Name = "typescript" },
			field:  "rules[1].name",
		},
		{
			name:   "banner without text",
			modify: func(c *Config) { c.Rules[0].Use = []string{"banner"} },
			field:  "rules[0].options.banner",
		},
		{
			name:   "define without definitions",
			modify: func(c *Config) { c.Define = nil; c.Rules[0].Use = []string{"define"} },
			field:  "define",
		},
		{
			name:   "bad split regexp",
			modify: func(c *Config) { c.Chunks.Split[0].Test = "re:(" },
			field:  "chunks.split[0]",
		},
		{
			name:   "filename without placeholder",
			modify: func(c *Config) { c.Output.Filename = "bundle.js" },
			field:  "output.filename",
		},
		{
			name:   "unknown target",
			modify: func(c *Config) { c.Target = "es3" },
			field:  "target",
		},
		{
			name:   "unknown rule target",
			modify: func(c *Config) { c.Rules[0].Options.Target = "es1999" },
			field:  "rules[0].options.target",
		},
		{
			name:   "unknown mode",
			modify: func(c *Config) { c.Mode = "staging" },
			field:  "mode",
		},
		{
			name:   "duplicate provide",
			modify: func(c *Config) { c.Provide = append(c.Provide, ProvideConfig{Name: "$", Module: "zepto"}) },
			field:  "provide[1].name",
		},
		{
			name:   "publish without bucket",
			modify: func(c *Config) { c.Publish.Endpoint = "localhost:9000" },
			field:  "publish.bucket",
		},
	}

	v, err := NewValidator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := v.Validate(cfg)
			require.Error(t, err)

			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs.Fields(), tt.field)
		})
	}
}

func TestValidator_Schema(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{
			name:   "provide name is not an identifier",
			modify: func(c *Config) { c.Provide[0].Name = "not-an-identifier" },
			field:  "provide.0.name",
		},
		{
			name:   "extension without dot",
			modify: func(c *Config) { c.Resolve.Extensions = []string{"js"} },
			field:  "resolve.extensions.0",
		},
		{
			name:   "filename not javascript",
			modify: func(c *Config) { c.Output.Filename = "[name].txt" },
			field:  "output.filename",
		},
		{
			name:   "concurrency out of range",
			modify: func(c *Config) { c.Concurrency = 1000 },
			field:  "concurrency",
		},
	}

	v, err := NewValidator()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := v.Validate(cfg)
			require.Error(t, err)

			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs.Fields(), tt.field)
		})
	}
}

func TestValidator_ValidateFile(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		file := writeConfig(t, "graphpack.yaml", "entry:\n  app: ./index.js\n")
		assert.NoError(t, v.ValidateFile(file))
	})

	t.Run("invalid", func(t *testing.T) {
		file := writeConfig(t, "graphpack.yaml", "entry:\n  app: ./index.js\nrules:\n  - name: x\n    use: [nope]\n")
		err := v.ValidateFile(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown step")
	})
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())

	errs := ValidationErrors{{Field: "entry", Message: "required"}}
	assert.Contains(t, errs.Error(), "config validation failed")
	assert.Contains(t, errs.Error(), "entry: required")
}
