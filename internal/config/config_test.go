package config

import (
	"strings"
	"testing"
)

// memBackend is an in-memory ConfigBackend for tests.
type memBackend struct {
	data map[string]any
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]any)}
}

func (b *memBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (b *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (b *memBackend) SetString(key, val string) error {
	b.data[key] = val
	return nil
}

func (b *memBackend) SetInt(key string, val int) error {
	b.data[key] = val
	return nil
}

func (b *memBackend) Delete(key string) error {
	delete(b.data, key)
	return nil
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	// No backend key, no env key.
	t.Setenv("HTSGATE_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := loadWith(newMemBackend())
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "Gemini API key") {
		t.Errorf("error = %v, want mention of the missing key", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTSGATE_GEMINI_API_KEY", "test-key")

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Provider.Model != "gemini-3-flash-preview" {
		t.Errorf("Model = %q", cfg.Provider.Model)
	}
	if cfg.Provider.Timeout != "45s" {
		t.Errorf("Timeout = %q", cfg.Provider.Timeout)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("APIKey = %q", cfg.Provider.APIKey)
	}
}

func TestLoad_BackendValues(t *testing.T) {
	t.Setenv("HTSGATE_GEMINI_API_KEY", "test-key")
	t.Setenv("HTSGATE_SERVER_PORT", "")

	b := newMemBackend()
	b.SetInt("server.port", 9999)
	b.SetString("server.allowed_origin", "https://teddacebpo-lab.github.io")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want backend value", cfg.Server.Port)
	}
	if cfg.Server.AllowedOrigin != "https://teddacebpo-lab.github.io" {
		t.Errorf("AllowedOrigin = %q", cfg.Server.AllowedOrigin)
	}
}

func TestLoad_EnvOverridesBackend(t *testing.T) {
	t.Setenv("HTSGATE_GEMINI_API_KEY", "test-key")
	t.Setenv("HTSGATE_SERVER_PORT", "7000")

	b := newMemBackend()
	b.SetInt("server.port", 9999)

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want env override 7000", cfg.Server.Port)
	}
}

func TestLoad_PlainGeminiKeyFallback(t *testing.T) {
	t.Setenv("HTSGATE_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "plain-key")

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Provider.APIKey != "plain-key" {
		t.Errorf("APIKey = %q, want plain env fallback", cfg.Provider.APIKey)
	}
}

func TestEnsureAPIToken_MintsAndPersists(t *testing.T) {
	t.Setenv("HTSGATE_API_TOKEN", "")

	b := newMemBackend()
	tok, err := EnsureAPIToken(b)
	if err != nil {
		t.Fatalf("EnsureAPIToken: %v", err)
	}
	if tok == "" {
		t.Fatal("empty token minted")
	}

	again, err := EnsureAPIToken(b)
	if err != nil {
		t.Fatalf("second EnsureAPIToken: %v", err)
	}
	if again != tok {
		t.Errorf("token changed across calls: %q vs %q", tok, again)
	}
}

func TestEnsureAPIToken_EnvWins(t *testing.T) {
	t.Setenv("HTSGATE_API_TOKEN", "env-token")

	tok, err := EnsureAPIToken(newMemBackend())
	if err != nil {
		t.Fatalf("EnsureAPIToken: %v", err)
	}
	if tok != "env-token" {
		t.Errorf("token = %q, want env-token", tok)
	}
}
