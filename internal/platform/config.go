package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/porkpie/pkg/adapters/hotfolder"
)

// ConfigFileNames are looked up, in order, by FindConfig.
var ConfigFileNames = []string{"porkpie.yaml", ".porkpie.yaml"}

// Config is the YAML file read by the command line tool.
type Config struct {
	Adapter         string          `yaml:"adapter"`
	BaseURL         string          `yaml:"base_url"`
	Prefer          string          `yaml:"prefer"`
	BinaryChecksums bool            `yaml:"binary_checksums"`
	LogLevel        string          `yaml:"log_level"`
	HotFolder       HotFolderConfig `yaml:"hot_folder"`
}

// HotFolderConfig configures the watch command.
type HotFolderConfig struct {
	Dir      string           `yaml:"dir"`
	Parent   string           `yaml:"parent"`
	Debounce string           `yaml:"debounce"`
	Rules    []hotfolder.Rule `yaml:"rules"`
}

// LoadConfig reads the YAML configuration at path. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level maps LogLevel to a slog level. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Options translates the file into functional options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.BaseURL != "" {
		opts = append(opts, WithBaseURL(c.BaseURL))
	}
	if c.Prefer != "" {
		opts = append(opts, WithPrefer(c.Prefer))
	}
	return append(opts, WithBinaryChecksums(c.BinaryChecksums))
}
