package renamer

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	CollisionFail      = "fail"
	CollisionOverwrite = "overwrite"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds settings that outlive a single command line. Values are read
// from an optional YAML file and then overridden by RENAMER_* environment
// variables. Flags passed on the command line are applied on top by the caller.
type Config struct {
	IgnoreFolders    []string `yaml:"ignore_folders" env:"RENAMER_IGNORE_FOLDERS" envSeparator:","`
	ExcludePatterns  []string `yaml:"exclude_patterns" env:"RENAMER_EXCLUDE_PATTERNS" envSeparator:","`
	CollisionPolicy  string   `yaml:"collision_policy" env:"RENAMER_COLLISION_POLICY"`
	ContinueOnError  bool     `yaml:"continue_on_error" env:"RENAMER_CONTINUE_ON_ERROR"`
	NormalizeUnicode bool     `yaml:"normalize_unicode" env:"RENAMER_NORMALIZE_UNICODE"`
	LogFormat        string   `yaml:"log_format" env:"RENAMER_LOG_FORMAT"`
}

func DefaultConfig() *Config {
	return &Config{
		CollisionPolicy: CollisionFail,
		LogFormat:       LogFormatText,
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}
