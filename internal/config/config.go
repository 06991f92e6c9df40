// Package config loads and validates the docextract configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in a directory.
const FileName = ".docextract.yml"

// Config holds all configuration for a generate run.
type Config struct {
	Source      string         `yaml:"source" validate:"required"`
	Destination string         `yaml:"destination" validate:"required"`
	Includes    []string       `yaml:"includes"`
	Excludes    []string       `yaml:"excludes"`
	Index       string         `yaml:"index"`
	Package     string         `yaml:"package"`
	Plugins     []PluginConfig `yaml:"plugins,omitempty" validate:"dive"`
	Store       string         `yaml:"store,omitempty"`
	OutputAST   bool           `yaml:"output_ast"`
	Concurrency int            `yaml:"concurrency" validate:"gte=0"`
	MaxFileSize int64          `yaml:"max_file_size" validate:"gte=0"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// PluginConfig enables one plugin.
type PluginConfig struct {
	Name   string         `yaml:"name" validate:"required"`
	Option map[string]any `yaml:"option,omitempty"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source:      "./src",
		Destination: "./docs",
		Includes:    []string{"**/*.js", "**/*.mjs"},
		Excludes:    []string{"**/*.config.js", "**/*.test.js"},
		Index:       "./README.md",
		Package:     "./package.json",
		OutputAST:   true,
		MaxFileSize: 1_000_000, // 1 MB
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file over the defaults. Unknown keys are
// rejected. The result is not validated; call Validate once plugins have
// had their chance to rewrite it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads FileName from dir, or returns the defaults when the
// directory has none.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return Default(), nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// NewLogger builds the run logger. verbose forces debug level.
func (l LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
