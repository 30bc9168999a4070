package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

type Config struct {
	API       APIConfig       `koanf:"api" yaml:"api"`
	Auth      AuthConfig      `koanf:"auth" yaml:"auth"`
	Log       LogConfig       `koanf:"log" yaml:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
}

type APIConfig struct {
	BaseURL     string `koanf:"base_url" yaml:"base_url"`
	WorkspaceID string `koanf:"workspace_id" yaml:"workspace_id"`
}

type AuthConfig struct {
	Store string `koanf:"store" yaml:"store"` // memory, file, sqlite
	Path  string `koanf:"path" yaml:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter" yaml:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure" yaml:"otlp_insecure"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("api.base_url", "https://api.vibemonitor.dev")
	k.Set("auth.store", "file")
	k.Set("auth.path", defaultAuthPath())
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "none")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (VIBEMONITOR_API_BASE_URL -> api.base_url)
	if err := k.Load(env.Provider("VIBEMONITOR_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "VIBEMONITOR_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Write scaffolds a config file with the given settings. Used by `vibemonitor init`.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func defaultAuthPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vibemonitor/credentials.json"
	}
	return filepath.Join(home, ".vibemonitor", "credentials.json")
}
