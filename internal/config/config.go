package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Storage  StorageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port          int
	AllowedOrigin string
	APIToken      string
}

type ProviderConfig struct {
	APIKey  string
	Model   string
	Timeout string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:          8081,
			AllowedOrigin: "http://localhost:5173",
		},
		Provider: ProviderConfig{
			Model:   "gemini-3-flash-preview",
			Timeout: "45s",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/htsgate/config.json with HTSGATE_* environment variables
// taking precedence. The Gemini API key is the one required secret; its
// absence is a load error, not a per-request condition.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// The bare GEMINI_API_KEY is honored too, matching the provider's own
	// tooling.
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.Provider.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key. Set it via environment variable HTSGATE_GEMINI_API_KEY or GEMINI_API_KEY")
	}

	return cfg, nil
}

// EnsureAPIToken returns the bearer token protecting the admin routes,
// minting and persisting one on first use.
func EnsureAPIToken(b ConfigBackend) (string, error) {
	if env := os.Getenv("HTSGATE_API_TOKEN"); env != "" {
		return env, nil
	}
	tok, ok, err := b.GetString("server.api_token")
	if err != nil {
		return "", fmt.Errorf("reading api token: %w", err)
	}
	if ok && tok != "" {
		return tok, nil
	}

	tok = uuid.New().String()
	if err := b.SetString("server.api_token", tok); err != nil {
		return "", fmt.Errorf("persisting api token: %w", err)
	}
	return tok, nil
}

// NewBackend exposes the platform backend for callers that need token
// management alongside Load.
func NewBackend() ConfigBackend {
	return newPlatformBackend()
}
