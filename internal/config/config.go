package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/edaloom/internal/ai"
	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// Global configuration structure.
type Global struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	Provider       string `mapstructure:"provider" yaml:"provider"`
	Model          string `mapstructure:"model" yaml:"model"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	PromptTemplate string `mapstructure:"prompt_template" yaml:"prompt_template,omitempty"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Loading
	MaxUploadMB int               `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	PreviewRows int               `mapstructure:"preview_rows" yaml:"preview_rows"`
	ColumnTypes map[string]string `mapstructure:"column_types" yaml:"column_types,omitempty"`

	// Web server
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.edaloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edaloom"), nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment. Existing variables
// win. With an empty path a ./.env file is read if present.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edaloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDALOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("provider", ai.ProviderGemini)
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("prompt_template", "")
	v.SetDefault("http_timeout_sec", 120)
	v.SetDefault("max_upload_mb", int(dataset.DefaultMaxBytes>>20))
	v.SetDefault("preview_rows", 5)
	v.SetDefault("listen_addr", "127.0.0.1:8501")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIKey == "" {
		for _, k := range []string{"GEMINI_API_KEY", "API_KEY_GENAI", "OPENROUTER_API_KEY"} {
			if val := os.Getenv(k); val != "" {
				c.APIKey = val
				break
			}
		}
	}
	if c.Model == "" && c.Provider == ai.ProviderGemini {
		c.Model = ai.DefaultGeminiModel
	}
	if c.PromptTemplate == "" {
		c.PromptTemplate = ai.DefaultPromptTemplate
	}
	return &c, nil
}

// MaxUploadBytes converts max_upload_mb to bytes; non-positive values fall back to the default.
func (c *Global) MaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return dataset.DefaultMaxBytes
	}
	return int64(c.MaxUploadMB) << 20
}

// HTTPTimeout returns the model call timeout.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// ColumnTypeMap parses column_types.
func (c *Global) ColumnTypeMap() (map[string]dataset.ColumnType, error) {
	out := make(map[string]dataset.ColumnType, len(c.ColumnTypes))
	for name, typ := range c.ColumnTypes {
		t, err := dataset.ParseColumnType(typ)
		if err != nil {
			return nil, fmt.Errorf("column_types[%s]: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// AIConfig builds the requester configuration.
func (c *Global) AIConfig() ai.Config {
	return ai.Config{
		Provider:       c.Provider,
		APIKey:         c.APIKey,
		Model:          c.Model,
		PromptTemplate: c.PromptTemplate,
		BaseURL:        c.BaseURL,
		HTTPTimeout:    c.HTTPTimeout(),
	}
}

// Keys lists the settable keys.
func Keys() []string {
	keys := []string{
		"api_key", "provider", "model", "base_url", "prompt_template", "http_timeout_sec",
		"max_upload_mb", "preview_rows", "column_types", "listen_addr", "allowed_origins",
		"log_level", "log_format",
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single key from its textual form. column_types takes name=type pairs
// separated by commas; allowed_origins takes a comma separated list.
func (c *Global) Set(key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = val
	case "provider":
		p := strings.ToLower(strings.TrimSpace(val))
		if _, ok := ai.GetRuntime(p, ai.RuntimeConfig{}); !ok {
			return fmt.Errorf("invalid provider: %s (use %s)", val, strings.Join(ai.Providers(), " or "))
		}
		c.Provider = p
	case "model":
		c.Model = val
	case "base_url":
		c.BaseURL = val
	case "prompt_template":
		c.PromptTemplate = val
	case "http_timeout_sec", "max_upload_mb", "preview_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "http_timeout_sec":
			c.HTTPTimeoutSec = i
		case "max_upload_mb":
			c.MaxUploadMB = i
		default:
			c.PreviewRows = i
		}
	case "column_types":
		m, err := ParseColumnTypes(val)
		if err != nil {
			return err
		}
		c.ColumnTypes = m
	case "listen_addr":
		c.ListenAddr = val
	case "allowed_origins":
		c.AllowedOrigins = splitList(val)
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// ParseColumnTypes parses "name=type,name=type".
func ParseColumnTypes(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range splitList(s) {
		name, typ, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid column type %q (want name=type)", pair)
		}
		if _, err := dataset.ParseColumnType(typ); err != nil {
			return nil, err
		}
		out[name] = strings.TrimSpace(typ)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
