package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	oerrors "github.com/opmodel/graphpack/internal/errors"
)

// Environment variable prefix for graphpack configuration.
const envPrefix = "GRAPHPACK"

// Credential environment variables for publishing.
const (
	EnvAccessKey = "GRAPHPACK_S3_ACCESS_KEY"
	EnvSecretKey = "GRAPHPACK_S3_SECRET_KEY"
)

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper

	// DotEnv is the dotenv file loaded before the config, if present.
	DotEnv string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Scalar keys overridable from the environment. AutomaticEnv only sees
	// keys viper already knows, so they need defaults.
	v.SetDefault("root", DefaultRoot)
	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.filename", DefaultFilename)
	v.SetDefault("output.manifest", false)
	v.SetDefault("chunks.default", DefaultChunk)
	v.SetDefault("chunks.runtime", "")
	v.SetDefault("target", DefaultTarget)
	v.SetDefault("sourceMaps", false)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.region", "")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "")
	v.SetDefault("publish.useSSL", true)

	return &Loader{v: v, DotEnv: ".env"}
}

// Load loads configuration from configFile, or from the first of
// ConfigFileNames found in the working directory when it is empty.
// Environment variables take precedence over file values. A missing file is
// a not-found error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if l.DotEnv != "" {
		// Existing variables win over the dotenv file.
		if err := godotenv.Load(l.DotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", l.DotEnv, err)
		}
	}

	if configFile == "" {
		found, err := FindConfigFile(".")
		if err != nil {
			return nil, err
		}
		configFile = found
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	if _, err := os.Stat(expandedPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, oerrors.NewNotFoundError("config file not found", expandedPath,
				"Run 'graphpack config init' to create one")
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	if ext := strings.TrimPrefix(filepath.Ext(expandedPath), "."); ext == "" {
		l.v.SetConfigType("yaml")
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, oerrors.NewValidationError(fmt.Sprintf("reading config file: %v", err), expandedPath,
			"Check the file syntax")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.File = expandedPath
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(expandedPath), cfg.Root)
	}
	cfg.Publish.AccessKey = os.Getenv(EnvAccessKey)
	cfg.Publish.SecretKey = os.Getenv(EnvSecretKey)

	return &cfg, nil
}

// LoadWithDefaults loads configuration and applies defaults.
func (l *Loader) LoadWithDefaults(configFile string) (*Config, error) {
	cfg, err := l.Load(configFile)
	if err != nil {
		return nil, err
	}

	return cfg.WithDefaults(), nil
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
