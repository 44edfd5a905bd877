package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Fallback secrets used when neither the config file nor the environment
// provides one. serve warns loudly when they are still in effect.
const (
	FallbackSecretKey = "change-this-secret-key-in-production"
	FallbackPassword  = "admin123"
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr          string `json:"addr" yaml:"addr" toml:"addr"`
	ExpertsFile   string `json:"experts_file" yaml:"experts_file" toml:"experts_file"`
	ModelsDir     string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultExpert string `json:"default_expert" yaml:"default_expert" toml:"default_expert"`
	// Preload loads the first available expert before serving.
	Preload bool `json:"preload" yaml:"preload" toml:"preload"`

	// Request defaults and limits.
	MaxTokens          int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature        float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	ForwardTemperature bool    `json:"forward_temperature" yaml:"forward_temperature" toml:"forward_temperature"`
	MaxBodyBytes       int64   `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	// Cache admission.
	MaxQueueDepth       int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	QueueWaitSeconds    int `json:"queue_wait_seconds" yaml:"queue_wait_seconds" toml:"queue_wait_seconds"`
	DrainTimeoutSeconds int `json:"drain_timeout_seconds" yaml:"drain_timeout_seconds" toml:"drain_timeout_seconds"`

	// Auth and routing.
	SecretKey        string `json:"secret_key" yaml:"secret_key" toml:"secret_key"`
	Password         string `json:"password" yaml:"password" toml:"password"`
	PathPrefix       string `json:"path_prefix" yaml:"path_prefix" toml:"path_prefix"`
	RequireAuthLocal bool   `json:"require_auth_local" yaml:"require_auth_local" toml:"require_auth_local"`
	TrustProxy       bool   `json:"trust_proxy" yaml:"trust_proxy" toml:"trust_proxy"`

	CORS    CORS    `json:"cors" yaml:"cors" toml:"cors"`
	Runtime Runtime `json:"runtime" yaml:"runtime" toml:"runtime"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// CORS is opt-in; when disabled no CORS middleware is installed.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Runtime selects and tunes the inference backend.
type Runtime struct {
	// Backend is "llama" (in-process, needs -tags=llama) or "server" (llama-server over HTTP).
	Backend     string `json:"backend" yaml:"backend" toml:"backend"`
	ContextSize int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int    `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers   int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	ServerURL   string `json:"server_url" yaml:"server_url" toml:"server_url"`
	APIKey      string `json:"api_key" yaml:"api_key" toml:"api_key"`
	// TimeoutSeconds bounds a single server-backend request (0 disables).
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// Default returns the configuration used when no file or env sets a value.
func Default() Config {
	return Config{
		Addr:                ":8080",
		ExpertsFile:         "models/models_config.json",
		ModelsDir:           "models",
		DefaultExpert:       "base",
		Preload:             true,
		MaxTokens:           500,
		Temperature:         0.7,
		MaxBodyBytes:        1 << 20,
		MaxQueueDepth:       32,
		QueueWaitSeconds:    30,
		DrainTimeoutSeconds: 120,
		SecretKey:           FallbackSecretKey,
		Password:            FallbackPassword,
		Runtime: Runtime{
			Backend:     "llama",
			ContextSize: 4096,
			Threads:     4,
			ServerURL:   "http://127.0.0.1:8081",
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads a configuration file on top of Default based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SECRET_KEY", &c.SecretKey)
	str("APP_PASSWORD", &c.Password)
	str("SECRET_PATH", &c.PathPrefix)
	if v, ok := lookup("REQUIRE_AUTH_LOCAL"); ok {
		c.RequireAuthLocal = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	str("EXPERTCHAT_ADDR", &c.Addr)
	str("EXPERTCHAT_LOG_LEVEL", &c.LogLevel)
	str("EXPERTCHAT_RUNTIME", &c.Runtime.Backend)
	str("EXPERTCHAT_SERVER_URL", &c.Runtime.ServerURL)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.ExpertsFile == "" {
		return fmt.Errorf("experts_file is required")
	}
	switch c.Runtime.Backend {
	case "llama", "server":
	default:
		return fmt.Errorf("unknown runtime backend %q (want llama or server)", c.Runtime.Backend)
	}
	if c.Runtime.Backend == "server" && c.Runtime.ServerURL == "" {
		return fmt.Errorf("runtime.server_url is required for the server backend")
	}
	return nil
}

// UsesFallbackSecrets reports whether the session key or password were left at their fallbacks.
func (c Config) UsesFallbackSecrets() bool {
	return c.SecretKey == FallbackSecretKey || c.Password == FallbackPassword
}

// NormalizedPrefix returns PathPrefix with a leading slash and no trailing slash,
// or "" when no prefix is configured.
func (c Config) NormalizedPrefix() string {
	p := strings.Trim(strings.TrimSpace(c.PathPrefix), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// QueueWait is QueueWaitSeconds as a duration.
func (c Config) QueueWait() time.Duration { return time.Duration(c.QueueWaitSeconds) * time.Second }

// DrainTimeout is DrainTimeoutSeconds as a duration.
func (c Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSeconds) * time.Second
}
