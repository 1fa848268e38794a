/*
Package config loads runtime settings. A YAML file named by PAWTRIAGE_CONFIG
provides the base values; environment variables (and a .env file, loaded
automatically) override them.
*/
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the optional YAML file path.
const FileEnv = "PAWTRIAGE_CONFIG"

// Config is the full application configuration.
type Config struct {
	Port     int            `yaml:"port"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Overpass OverpassConfig `yaml:"overpass"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Schema   string `yaml:"schema"`
}

// DSN returns the pgx connection string.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {"disable"}, "search_path": {d.Schema}}.Encode(),
	}
	return u.String()
}

// LLMConfig selects and configures the text generation provider.
type LLMConfig struct {
	Provider          string `yaml:"provider"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	GeminiModel       string `yaml:"gemini_model"`
	GeminiAPIURL      string `yaml:"gemini_api_url"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIModel       string `yaml:"openai_model"`
	OpenAIBaseURL     string `yaml:"openai_base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// OverpassConfig configures the clinic lookup.
type OverpassConfig struct {
	URL       string        `yaml:"url"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// AuthConfig holds the bearer token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port: 8080,
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   "5432",
			Schema: "public",
		},
		LLM: LLMConfig{
			Provider:          "gemini",
			GeminiModel:       "gemini-2.5-flash",
			GeminiAPIURL:      "https://generativelanguage.googleapis.com/v1beta",
			OpenAIModel:       "gpt-4o-mini",
			RequestsPerMinute: 30,
		},
		Overpass: OverpassConfig{
			URL:       "https://overpass-api.de/api/interpreter",
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the
// environment, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	if err := num("PORT", &cfg.Port); err != nil {
		return err
	}

	str("BLUEPRINT_DB_HOST", &cfg.Database.Host)
	str("BLUEPRINT_DB_PORT", &cfg.Database.Port)
	str("BLUEPRINT_DB_DATABASE", &cfg.Database.Database)
	str("BLUEPRINT_DB_USERNAME", &cfg.Database.Username)
	str("BLUEPRINT_DB_PASSWORD", &cfg.Database.Password)
	str("BLUEPRINT_DB_SCHEMA", &cfg.Database.Schema)

	str("LLM_PROVIDER", &cfg.LLM.Provider)
	str("GEMINI_API_KEY", &cfg.LLM.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.LLM.GeminiModel)
	str("GEMINI_API_URL", &cfg.LLM.GeminiAPIURL)
	str("OPENAI_API_KEY", &cfg.LLM.OpenAIAPIKey)
	str("OPENAI_MODEL", &cfg.LLM.OpenAIModel)
	str("OPENAI_BASE_URL", &cfg.LLM.OpenAIBaseURL)
	if err := num("AI_REQUESTS_PER_MINUTE", &cfg.LLM.RequestsPerMinute); err != nil {
		return err
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)

	str("OVERPASS_URL", &cfg.Overpass.URL)
	str("JWT_SECRET", &cfg.Auth.JWTSecret)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	return nil
}
