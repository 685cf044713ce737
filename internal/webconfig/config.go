// Package webconfig loads the server configuration from
// ~/.krishimitra/config.json, creating it with defaults on first run.
// KRISHIMITRA_* environment variables override the file.
package webconfig

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"KrishiMitra/internal/database"
	"KrishiMitra/internal/logger"
)

type ServerConfig struct {
	Port        int      `json:"port"`
	Bind        string   `json:"bind"`
	CORSOrigins []string `json:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

type DetectionConfig struct {
	LinguaHint bool `json:"lingua_hint"`
}

type RefetchConfig struct {
	DebounceMS int  `json:"debounce_ms"`
	Debug      bool `json:"debug"`
}

type WorkspaceConfig struct {
	IdleMinutes int `json:"idle_minutes"`
}

type ChatProviderConfig struct {
	URL        string `json:"url"`
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	TimeoutSec int    `json:"timeout_sec"`
}

type WeatherProviderConfig struct {
	URL         string `json:"url"`
	APIKey      string `json:"api_key"`
	TimeoutSec  int    `json:"timeout_sec"`
	DefaultCity string `json:"default_city"`
}

type ProvidersConfig struct {
	Chat    ChatProviderConfig    `json:"chat"`
	Weather WeatherProviderConfig `json:"weather"`
}

type RateLimitConfig struct {
	ChatPerMinute int `json:"chat_per_minute"`
}

type Config struct {
	Server    ServerConfig    `json:"server"`
	Auth      AuthConfig      `json:"auth"`
	Log       logger.Settings `json:"log"`
	Database  database.Config `json:"database"`
	Detection DetectionConfig `json:"detection"`
	Refetch   RefetchConfig   `json:"refetch"`
	Workspace WorkspaceConfig `json:"workspace"`
	Providers ProvidersConfig `json:"providers"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// DataDir is where config, database and logs live.
func DataDir() string {
	if dir := os.Getenv("KRISHIMITRA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".krishimitra"
	}
	return filepath.Join(home, ".krishimitra")
}

func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Default returns the built-in configuration.
func Default() Config {
	dir := DataDir()
	return Config{
		Server: ServerConfig{
			Port: 8090,
			Bind: "127.0.0.1",
		},
		Auth: AuthConfig{TokenTTLHours: 24 * 30},
		Log: logger.Settings{
			Mode:       "production",
			Level:      "info",
			File:       filepath.Join(dir, "logs", "krishimitra.log"),
			MaxSizeMB:  20,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Database: database.Config{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(dir, "data", "krishimitra.db"),
		},
		Refetch:   RefetchConfig{DebounceMS: 300},
		Workspace: WorkspaceConfig{IdleMinutes: 60},
		Providers: ProvidersConfig{
			Chat: ChatProviderConfig{
				URL:        "https://api.perplexity.ai/chat/completions",
				Model:      "sonar",
				TimeoutSec: 30,
			},
			Weather: WeatherProviderConfig{
				URL:        "https://api.openweathermap.org/data/2.5/weather",
				TimeoutSec: 10,
			},
		},
		RateLimit: RateLimitConfig{ChatPerMinute: 20},
	}
}

// Load reads the config file, writing defaults if it does not exist yet,
// then applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg.Auth.JWTSecret = randomSecret()
		if err := SaveTo(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = randomSecret()
		if err := SaveTo(path, cfg); err != nil {
			logger.Config.Warn().Err(err).Msg("could not persist generated jwt secret")
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KRISHIMITRA_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("KRISHIMITRA_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("KRISHIMITRA_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("KRISHIMITRA_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		cfg.SetDebug()
	}
	if v := os.Getenv("KRISHIMITRA_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("KRISHIMITRA_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("KRISHIMITRA_DB_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("KRISHIMITRA_CHAT_API_KEY"); v != "" {
		cfg.Providers.Chat.APIKey = v
	}
	if v := os.Getenv("KRISHIMITRA_WEATHER_API_KEY"); v != "" {
		cfg.Providers.Weather.APIKey = v
	}
}

// SetDebug switches logging to debug mode.
func (c *Config) SetDebug() {
	c.Log.Mode = "debug"
	c.Log.Level = "debug"
}

func (c Config) IsDebug() bool {
	return strings.EqualFold(c.Log.Mode, "debug")
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
