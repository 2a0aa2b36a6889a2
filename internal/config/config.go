// Package config loads vibecam settings from flags, environment, .env and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aretw0/vibecam/internal/logging"
)

const EnvPrefix = "VIBECAM"

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the resolved application configuration.
type Config struct {
	LogLevel      string         `mapstructure:"log_level"`
	Provider      string         `mapstructure:"provider"`
	Gemini        ProviderConfig `mapstructure:"gemini"`
	OpenAI        ProviderConfig `mapstructure:"openai"`
	Store         StoreConfig    `mapstructure:"store"`
	Server        ServerConfig   `mapstructure:"server"`
	Fetch         FetchConfig    `mapstructure:"fetch"`
	CatalogFile   string         `mapstructure:"catalog_file"`
	ReadyMessage  string         `mapstructure:"ready_message"`
	AtomicPatches bool           `mapstructure:"atomic_patches"`
	// MaxListIndex caps list indexes in agent patches; 0 leaves them unbounded.
	MaxListIndex int `mapstructure:"max_list_index"`
	// MaxInputSize bounds a chat message in bytes.
	MaxInputSize int `mapstructure:"max_input_size"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	TextModel  string `mapstructure:"text_model"`
	ImageModel string `mapstructure:"image_model"`
}

type StoreConfig struct {
	Type  string      `mapstructure:"type"`
	Dir   string      `mapstructure:"dir"`
	Redis RedisConfig `mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key sealing stored sessions.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// RedactKeys are regular expressions of document keys masked on save.
	RedactKeys []string `mapstructure:"redact_keys"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Lock     bool          `mapstructure:"lock"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Metrics bool   `mapstructure:"metrics"`
}

// FetchConfig tunes the asset fetcher used when developing photos.
type FetchConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Defaults mirrors the values NewViper registers.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Provider: ProviderGemini,
		Store: StoreConfig{
			Type: StoreMemory,
			Dir:  ".vibecam/sessions",
			Redis: RedisConfig{
				Addr: "localhost:6379",
				TTL:  24 * time.Hour,
				Lock: true,
			},
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Metrics: true,
		},
		Fetch: FetchConfig{
			Attempts: 3,
			Timeout:  120 * time.Second,
		},
		MaxInputSize: 4096,
	}
}

// NewViper returns a viper instance with defaults and environment bindings.
// Keys map to VIBECAM_<KEY> with dots replaced by underscores; provider keys
// also honor GEMINI_API_KEY and OPENAI_API_KEY.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("provider", d.Provider)
	for _, p := range []string{ProviderGemini, ProviderOpenAI} {
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".base_url", "")
		v.SetDefault(p+".text_model", "")
		v.SetDefault(p+".image_model", "")
	}
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL)
	v.SetDefault("store.redis.lock", d.Store.Redis.Lock)
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.redact_keys", []string{})
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("fetch.attempts", d.Fetch.Attempts)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("catalog_file", "")
	v.SetDefault("ready_message", "")
	v.SetDefault("atomic_patches", false)
	v.SetDefault("max_list_index", d.MaxListIndex)
	v.SetDefault("max_input_size", d.MaxInputSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	return v
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped and existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads cfgFile (or searches for vibecam.yaml when empty) and decodes
// the merged settings. A missing searched file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("vibecam")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.vibecam")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings. API keys are checked when
// a provider is built, so commands that never call a model run without them.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI))
	}
	switch c.Store.Type {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store type %q", c.Store.Type))
	}
	if c.Store.Type == StoreFile && c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir is required for the file store"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Fetch.Attempts < 1 {
		errs = append(errs, fmt.Errorf("fetch.attempts must be at least 1, got %d", c.Fetch.Attempts))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}
	if c.MaxListIndex < 0 {
		errs = append(errs, fmt.Errorf("max_list_index must not be negative, got %d", c.MaxListIndex))
	}
	if c.MaxInputSize < 1 {
		errs = append(errs, fmt.Errorf("max_input_size must be at least 1, got %d", c.MaxInputSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ActiveProvider returns the settings of the selected provider.
func (c *Config) ActiveProvider() ProviderConfig {
	if c.Provider == ProviderOpenAI {
		return c.OpenAI
	}
	return c.Gemini
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
