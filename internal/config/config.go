package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config covers paths, URLs and timing knobs. The capacity threshold and
// the model names are deliberately NOT configurable.
type Config struct {
	OllamaBaseURL        string `yaml:"ollama_base_url"`
	InstallerURL         string `yaml:"installer_url"`
	ServiceName          string `yaml:"service_name"`
	JournalPath          string `yaml:"journal_path"`
	KeepaliveSeconds     int    `yaml:"keepalive_seconds"`
	HealthTimeoutSeconds int    `yaml:"health_timeout_seconds"`
	LogLevel             string `yaml:"log_level"`

	// AllowNoGPU treats a missing nvidia-smi as zero capacity instead of
	// a fatal probe error.
	AllowNoGPU bool `yaml:"allow_no_gpu"`

	// SkipModels disables the model pull phase entirely.
	SkipModels bool `yaml:"skip_models"`
}

func Default() Config {
	return Config{
		OllamaBaseURL:        "http://127.0.0.1:11434",
		InstallerURL:         "https://ollama.com/install.sh",
		ServiceName:          "ollama",
		JournalPath:          "provision.db",
		KeepaliveSeconds:     60,
		HealthTimeoutSeconds: 120,
		LogLevel:             "info",
	}
}

// Load builds the effective config: defaults, then the YAML file when
// path is non-empty, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.OllamaBaseURL = envOr("OLLAMA_BASE_URL", cfg.OllamaBaseURL)
	cfg.InstallerURL = envOr("INSTALLER_URL", cfg.InstallerURL)
	cfg.ServiceName = envOr("SERVICE_NAME", cfg.ServiceName)
	cfg.JournalPath = envOr("JOURNAL_PATH", cfg.JournalPath)
	cfg.KeepaliveSeconds = envOrInt("KEEPALIVE_SECONDS", cfg.KeepaliveSeconds)
	cfg.HealthTimeoutSeconds = envOrInt("HEALTH_TIMEOUT_SECONDS", cfg.HealthTimeoutSeconds)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.AllowNoGPU = envOrBool("ALLOW_NO_GPU", cfg.AllowNoGPU)
	cfg.SkipModels = envOrBool("SKIP_MODELS", cfg.SkipModels)

	return cfg, nil
}

func (c Config) KeepaliveInterval() time.Duration {
	return time.Duration(c.KeepaliveSeconds) * time.Second
}

func (c Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envOrInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
