package inject

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvScopeName = "TESTFIRST_SCOPE_NAME"
	EnvSkipIfSet = "TESTFIRST_SKIP_IF_SET"
	EnvLogLevel  = "TESTFIRST_LOG_LEVEL"
)

// Config holds container settings that can live outside the test code.
type Config struct {
	Name      string `yaml:"name"`
	SkipIfSet bool   `yaml:"skip_if_set"`
	LogLevel  string `yaml:"log_level"` // debug | info | warn | error | off
}

// DefaultConfig returns the settings New uses without options.
func DefaultConfig() Config {
	return Config{
		Name:      "scope",
		SkipIfSet: true,
		LogLevel:  "off",
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ConfigFromEnv loads .env files (if present) and reads the TESTFIRST_*
// variables over the defaults.
func ConfigFromEnv(envFiles ...string) Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env files are optional
	_ = godotenv.Load(files...)

	def := DefaultConfig()

	return Config{
		Name:      env(EnvScopeName, def.Name),
		SkipIfSet: envBool(EnvSkipIfSet, def.SkipIfSet),
		LogLevel:  env(EnvLogLevel, def.LogLevel),
	}
}

// Options converts the config into container options.
func (c Config) Options() ([]Option, error) {
	logger, err := newLogger(c.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithSkipIfSet(c.SkipIfSet),
		WithLogger(logger),
	}
	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}

	return opts, nil
}

// NewFromConfig creates a container from cfg plus any extra options.
func NewFromConfig(cfg Config, extra ...Option) (*Container, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(append(opts, extra...)...), nil
}

// newLogger builds a development logger at level, or a no-op logger for "off".
func newLogger(level string) (*zap.Logger, error) {
	if level == "" || level == "off" {
		return zap.NewNop(), nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
