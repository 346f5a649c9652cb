package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/opmodel/graphpack/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from GRAPHPACK_* environment variable.
	SourceEnv ConfigSource = "env"
	// SourceNodeEnv indicates value came from NODE_ENV.
	SourceNodeEnv ConfigSource = "NODE_ENV"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// Mode selects the processing mode. It only changes the transform steps.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ParseMode parses a mode name. "dev" and "prod" are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return ModeDevelopment, nil
	case "production", "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("invalid mode %q (valid: development, production)", s)
	}
}

// Environment variables consulted for the mode, by precedence.
const (
	EnvMode    = "GRAPHPACK_MODE"
	EnvNodeEnv = "NODE_ENV"
	EnvConfig  = "GRAPHPACK_CONFIG"
)

// ResolveModeOptions contains options for mode resolution.
type ResolveModeOptions struct {
	// FlagValue is the --mode flag value (empty if not set).
	FlagValue string
	// ConfigValue is the mode from the config file (empty if not set).
	ConfigValue string
}

// ResolveModeResult contains the resolved mode and its source.
type ResolveModeResult struct {
	// Mode is the resolved mode.
	Mode Mode
	// Source indicates where the mode came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveMode resolves the mode using precedence:
// (1) --mode flag, (2) GRAPHPACK_MODE env, (3) NODE_ENV, (4) config.mode,
// (5) development.
//
// NODE_ENV only counts when it is "production"; other values are ignored so
// config.mode still applies.
func ResolveMode(opts ResolveModeOptions) (ResolveModeResult, error) {
	result := ResolveModeResult{
		Shadowed: make(map[ConfigSource]string),
	}

	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, opts.FlagValue},
		{SourceEnv, os.Getenv(EnvMode)},
		{SourceNodeEnv, nodeEnvMode()},
		{SourceConfig, opts.ConfigValue},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if result.Source != "" {
			result.Shadowed[c.source] = c.value
			continue
		}

		mode, err := ParseMode(c.value)
		if err != nil {
			return result, fmt.Errorf("%s: %w", c.source, err)
		}
		result.Mode = mode
		result.Source = c.source
	}

	if result.Source == "" {
		result.Mode = ModeDevelopment
		result.Source = SourceDefault
	}
	return result, nil
}

// ResolveConfigPathOptions contains options for config path resolution.
type ResolveConfigPathOptions struct {
	// FlagValue is the --config flag value (empty if not set).
	FlagValue string
}

// ResolveConfigPathResult contains the resolved config path and its source.
type ResolveConfigPathResult struct {
	// ConfigPath is the resolved config file path. Empty means search the
	// working directory.
	ConfigPath string
	// Source indicates where the config path came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) GRAPHPACK_CONFIG env, (3) search of the working
// directory.
func ResolveConfigPath(opts ResolveConfigPathOptions) ResolveConfigPathResult {
	result := ResolveConfigPathResult{
		Shadowed: make(map[ConfigSource]string),
	}

	envValue := os.Getenv(EnvConfig)

	switch {
	case opts.FlagValue != "":
		result.ConfigPath = opts.FlagValue
		result.Source = SourceFlag
		if envValue != "" {
			result.Shadowed[SourceEnv] = envValue
		}
	case envValue != "":
		result.ConfigPath = envValue
		result.Source = SourceEnv
	default:
		result.Source = SourceDefault
	}

	return result
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}

func nodeEnvMode() string {
	if strings.EqualFold(os.Getenv(EnvNodeEnv), string(ModeProduction)) {
		return string(ModeProduction)
	}
	return ""
}
