package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/edaloom/internal/ai"
	"github.com/KaramelBytes/edaloom/internal/dataset"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"EDALOOM_API_KEY", "EDALOOM_PROVIDER", "EDALOOM_MODEL", "GEMINI_API_KEY", "API_KEY_GENAI", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Provider != ai.ProviderGemini || c.Model != ai.DefaultGeminiModel {
		t.Fatalf("provider/model = %s/%s", c.Provider, c.Model)
	}
	if c.MaxUploadBytes() != dataset.DefaultMaxBytes {
		t.Fatalf("max upload = %d", c.MaxUploadBytes())
	}
	if c.PreviewRows != 5 || c.PromptTemplate != ai.DefaultPromptTemplate {
		t.Fatalf("preview=%d template=%q", c.PreviewRows, c.PromptTemplate)
	}
	if c.APIKey != "" {
		t.Fatalf("unexpected api key %q", c.APIKey)
	}
}

func TestLoadEnvOverridesAndFallbackKey(t *testing.T) {
	isolate(t)
	t.Setenv("EDALOOM_PREVIEW_ROWS", "12")
	t.Setenv("API_KEY_GENAI", "from-secret")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.PreviewRows != 12 {
		t.Fatalf("preview rows = %d", c.PreviewRows)
	}
	if c.APIKey != "from-secret" {
		t.Fatalf("api key = %q", c.APIKey)
	}

	t.Setenv("EDALOOM_API_KEY", "primary")
	c, _ = Load("")
	if c.APIKey != "primary" {
		t.Fatalf("prefixed key should win, got %q", c.APIKey)
	}
}

func TestSaveAndReload(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for k, v := range map[string]string{
		"api_key":       "abc",
		"provider":      "OpenRouter",
		"model":         "openai/gpt-4o-mini",
		"column_types":  "Code=text, amount=numeric",
		"max_upload_mb": "10",
	} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.APIKey != "abc" || got.Provider != ai.ProviderOpenRouter || got.Model != "openai/gpt-4o-mini" {
		t.Fatalf("reloaded = %+v", got)
	}
	if got.MaxUploadBytes() != 10<<20 {
		t.Fatalf("max upload = %d", got.MaxUploadBytes())
	}
	types, err := got.ColumnTypeMap()
	if err != nil {
		t.Fatalf("column types: %v", err)
	}
	if len(types) != 2 || types["amount"] != dataset.Numeric {
		t.Fatalf("types = %v", types)
	}
	if err := got.AIConfig().Validate(); err != nil {
		t.Fatalf("ai config invalid: %v", err)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	c := &Global{}
	for k, v := range map[string]string{
		"provider":      "ollama",
		"preview_rows":  "-1",
		"column_types":  "a=complex",
		"unknown_key":   "x",
		"max_upload_mb": "lots",
	} {
		if err := c.Set(k, v); err == nil {
			t.Errorf("Set(%s, %s) should fail", k, v)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "secrets.env")
	if err := os.WriteFile(path, []byte("GEMINI_API_KEY=dotenv-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("GEMINI_API_KEY")
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.APIKey != "dotenv-key" {
		t.Fatalf("api key = %q", c.APIKey)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("explicit missing env file should fail")
	}
}
