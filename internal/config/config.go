// Package config provides configuration loading and management.
package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/opmodel/graphpack/internal/graph"
)

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	// Path is the output directory, relative to the root.
	Path string `mapstructure:"path" json:"path,omitempty" yaml:"path"`

	// Filename is the artifact name pattern with "[name]" and "[hash]"
	// placeholders.
	Filename string `mapstructure:"filename" json:"filename,omitempty" yaml:"filename"`

	// Manifest also writes manifest.json.
	Manifest bool `mapstructure:"manifest" json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// ResolveConfig controls import resolution.
type ResolveConfig struct {
	// Extensions is the candidate suffix priority list.
	Extensions []string `mapstructure:"extensions" json:"extensions,omitempty" yaml:"extensions"`

	// CacheSize bounds the resolution cache.
	CacheSize int `mapstructure:"cacheSize" json:"cacheSize,omitempty" yaml:"cacheSize,omitempty"`
}

// ProvideConfig injects a module wherever a free global identifier is used.
type ProvideConfig struct {
	Name   string `mapstructure:"name" json:"name" yaml:"name"`
	Module string `mapstructure:"module" json:"module" yaml:"module"`
}

// DefineConfig replaces an expression with a JavaScript literal in
// production builds.
type DefineConfig struct {
	Name  string `mapstructure:"name" json:"name" yaml:"name"`
	Value string `mapstructure:"value" json:"value" yaml:"value"`
}

// RuleOptions parameterizes the steps of one rule.
type RuleOptions struct {
	// Target overrides the top-level target.
	Target string `mapstructure:"target" json:"target,omitempty" yaml:"target,omitempty"`

	// Banner is the text of the banner step.
	Banner string `mapstructure:"banner" json:"banner,omitempty" yaml:"banner,omitempty"`
}

// RuleConfig is one transform rule as written in the file.
type RuleConfig struct {
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// Test is a regular expression over module IDs. Empty matches all.
	Test string `mapstructure:"test" json:"test,omitempty" yaml:"test,omitempty"`

	// Exclude is a regular expression removing module IDs.
	Exclude string `mapstructure:"exclude" json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Enforce "pre" orders the rule before all others.
	Enforce string `mapstructure:"enforce" json:"enforce,omitempty" yaml:"enforce,omitempty"`

	// Use lists step names in order.
	Use []string `mapstructure:"use" json:"use" yaml:"use"`

	Options RuleOptions `mapstructure:"options" json:"options,omitempty" yaml:"options,omitempty"`
}

// SplitConfig routes matching modules to a named chunk.
type SplitConfig struct {
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// Test is a substring of the module ID, or a regular expression when
	// prefixed with "re:".
	Test string `mapstructure:"test" json:"test" yaml:"test"`
}

// ChunksConfig controls chunk classification.
type ChunksConfig struct {
	// Default receives modules no split rule claims.
	Default string `mapstructure:"default" json:"default,omitempty" yaml:"default"`

	// Runtime names the chunk carrying the runtime shim. Empty embeds the
	// runtime in every chunk holding an entry.
	Runtime string `mapstructure:"runtime" json:"runtime,omitempty" yaml:"runtime,omitempty"`

	// Split rules, first match wins.
	Split []SplitConfig `mapstructure:"split" json:"split,omitempty" yaml:"split,omitempty"`
}

// PublishConfig uploads artifacts to S3-compatible storage after a build.
type PublishConfig struct {
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint"`
	Region   string `mapstructure:"region" json:"region,omitempty" yaml:"region,omitempty"`
	Bucket   string `mapstructure:"bucket" json:"bucket,omitempty" yaml:"bucket"`
	Prefix   string `mapstructure:"prefix" json:"prefix,omitempty" yaml:"prefix,omitempty"`
	UseSSL   bool   `mapstructure:"useSSL" json:"useSSL,omitempty" yaml:"useSSL"`

	// Credentials come from the environment only.
	AccessKey string `mapstructure:"-" json:"-" yaml:"-"`
	SecretKey string `mapstructure:"-" json:"-" yaml:"-"`
}

// Enabled reports whether publishing is configured.
func (p PublishConfig) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps" json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
}

// Config represents a graphpack.yaml file.
type Config struct {
	// Root is the build root all module IDs are relative to. A relative
	// root is taken relative to the config file's directory.
	Root string `mapstructure:"root" json:"root,omitempty" yaml:"root"`

	// Entry maps entry names to entry module paths.
	Entry map[string]string `mapstructure:"entry" json:"entry,omitempty" yaml:"entry"`

	Output  OutputConfig  `mapstructure:"output" json:"output,omitempty" yaml:"output"`
	Resolve ResolveConfig `mapstructure:"resolve" json:"resolve,omitempty" yaml:"resolve"`

	Provide []ProvideConfig `mapstructure:"provide" json:"provide,omitempty" yaml:"provide,omitempty"`
	Define  []DefineConfig  `mapstructure:"define" json:"define,omitempty" yaml:"define,omitempty"`
	Rules   []RuleConfig    `mapstructure:"rules" json:"rules,omitempty" yaml:"rules,omitempty"`
	Chunks  ChunksConfig    `mapstructure:"chunks" json:"chunks,omitempty" yaml:"chunks"`

	// Target is the default output language level of esbuild steps.
	Target string `mapstructure:"target" json:"target,omitempty" yaml:"target,omitempty"`

	SourceMaps  bool   `mapstructure:"sourceMaps" json:"sourceMaps,omitempty" yaml:"sourceMaps"`
	Mode        string `mapstructure:"mode" json:"mode,omitempty" yaml:"mode,omitempty"`
	Concurrency int    `mapstructure:"concurrency" json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	Publish PublishConfig `mapstructure:"publish" json:"publish,omitempty" yaml:"publish,omitempty"`
	Log     LogConfig     `mapstructure:"log" json:"log,omitempty" yaml:"log,omitempty"`

	// File is the path the config was loaded from.
	File string `mapstructure:"-" json:"-" yaml:"-"`
}

// Defaults.
const (
	DefaultRoot         = "."
	DefaultOutputPath   = "dist"
	DefaultFilename     = "[name].js"
	DefaultChunk        = "app"
	DefaultTarget       = "es2015"
	DefaultConcurrency  = 8
	DefaultResolveCache = 4096
)

// DefaultConfig returns a Config with all default values populated.
// Used by `graphpack config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Root:  DefaultRoot,
		Entry: map[string]string{"app": "./src/index.js"},
		Output: OutputConfig{
			Path:     DefaultOutputPath,
			Filename: DefaultFilename,
		},
		Resolve: ResolveConfig{
			Extensions: append([]string(nil), graph.DefaultExtensions...),
		},
		Rules: []RuleConfig{
			{Name: "source-maps", Test: `\.js$`, Enforce: EnforcePre, Use: []string{"source-map"}},
			{Name: "javascript", Test: `\.m?jsx?$`, Use: []string{"commonjs"}},
			{Name: "typescript", Test: `\.tsx?$`, Use: []string{"typescript"}},
		},
		Chunks: ChunksConfig{
			Default: DefaultChunk,
			Split:   []SplitConfig{{Name: "vendor", Test: "node_modules"}},
		},
		Target:      DefaultTarget,
		Concurrency: DefaultConcurrency,
		Publish:     PublishConfig{UseSSL: true},
	}
}

// configHeader starts every generated config file.
const configHeader = "# graphpack build configuration\n# Environment variables prefixed with GRAPHPACK_ override scalar values.\n\n"

// DefaultConfigYAML renders DefaultConfig as the YAML file written by
// `graphpack config init`.
func DefaultConfigYAML() ([]byte, error) {
	return MarshalYAML(DefaultConfig())
}

// MarshalYAML renders cfg as a commented YAML document.
func MarshalYAML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// EnforcePre orders a rule before all others.
const EnforcePre = "pre"

// WithDefaults returns a copy with unset fields given default values.
func (c *Config) WithDefaults() *Config {
	out := *c
	if out.Root == "" {
		out.Root = DefaultRoot
	}
	if out.Output.Path == "" {
		out.Output.Path = DefaultOutputPath
	}
	if out.Output.Filename == "" {
		out.Output.Filename = DefaultFilename
	}
	if len(out.Resolve.Extensions) == 0 {
		out.Resolve.Extensions = append([]string(nil), graph.DefaultExtensions...)
	}
	if out.Resolve.CacheSize == 0 {
		out.Resolve.CacheSize = DefaultResolveCache
	}
	if out.Chunks.Default == "" {
		out.Chunks.Default = DefaultChunk
	}
	if out.Target == "" {
		out.Target = DefaultTarget
	}
	if out.Concurrency == 0 {
		out.Concurrency = DefaultConcurrency
	}
	return &out
}

// ResolvedValue tracks a configuration value with its source.
type ResolvedValue struct {
	// Key is the configuration key name.
	Key string

	// Value is the resolved value.
	Value any

	// Source indicates where the value came from.
	Source ConfigSource

	// Shadowed contains values from lower-precedence sources.
	Shadowed map[ConfigSource]string
}
