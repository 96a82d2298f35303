package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" mapstructure:"basic_config"`
	Providers   map[string]ProviderConfig `json:"providers" mapstructure:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases" mapstructure:"databases"`
	Redis       RedisConfig               `json:"redis" mapstructure:"redis"`
	Auth        AuthConfig                `json:"auth" mapstructure:"auth"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	Model   string `json:"model" mapstructure:"model"`
	APIKey  string `json:"api_key" mapstructure:"api_key"`
}

type DatabaseConfig struct {
	// Driver defaults to the map key (sqlite3, mysql, postgres).
	Driver   string `json:"driver" mapstructure:"driver"`
	DSN      string `json:"dsn" mapstructure:"dsn"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	DBName   string `json:"db_name" mapstructure:"db_name"`
	Params   string `json:"params" mapstructure:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

type AuthConfig struct {
	Secret string `json:"secret" mapstructure:"secret"`
	Issuer string `json:"issuer" mapstructure:"issuer"`
}

type BasicConfig struct {
	Env           string `json:"env" mapstructure:"env"`
	LogLevel      string `json:"log_level" mapstructure:"log_level"`
	ServerAddress string `json:"server_address" mapstructure:"server_address"`
	// Processor selects the dialogue backend: "mock" or "llm".
	Processor string `json:"processor" mapstructure:"processor"`
	// Provider names the entry of Providers used by the llm processor.
	Provider              string `json:"provider" mapstructure:"provider"`
	PacingIntervalMS      int    `json:"pacing_interval_ms" mapstructure:"pacing_interval_ms"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	ProductAware          bool   `json:"product_aware" mapstructure:"product_aware"`
	// Database names the entry of Databases backing the product catalog; empty
	// keeps the in-memory catalog.
	Database string `json:"database" mapstructure:"database"`
	MockSeed int64  `json:"mock_seed" mapstructure:"mock_seed"`
}

// PacingInterval is the minimum gap between two provider calls.
func (b BasicConfig) PacingInterval() time.Duration {
	if b.PacingIntervalMS < 0 {
		return 0
	}
	return time.Duration(b.PacingIntervalMS) * time.Millisecond
}

// RequestTimeout bounds a single provider call.
func (b BasicConfig) RequestTimeout() time.Duration {
	if b.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(b.RequestTimeoutSeconds) * time.Second
}

const (
	EnvConfigPath = "HSERVICE_CONFIG"
	envPrefix     = "HSERVICE"
)

// ProviderNames and DatabaseNames are the map keys that can be configured
// from the environment alone, e.g. HSERVICE_PROVIDERS_GEMINI_API_KEY.
var (
	ProviderNames = []string{"gemini", "mistral", "openai", "claude"}
	DatabaseNames = []string{"sqlite3", "mysql", "postgres"}
)

// bindMapEnv registers the nested map keys with viper. AutomaticEnv only
// consults keys viper already knows, and map entries are unknown until a
// file declares them.
func bindMapEnv(v *viper.Viper) error {
	var keys []string
	for _, name := range ProviderNames {
		for _, field := range []string{"base_url", "model", "api_key"} {
			keys = append(keys, "providers."+name+"."+field)
		}
	}
	for _, name := range DatabaseNames {
		for _, field := range []string{"driver", "dsn", "host", "port", "username", "password", "db_name", "params"} {
			keys = append(keys, "databases."+name+"."+field)
		}
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("basic_config.env", "development")
	v.SetDefault("basic_config.log_level", "info")
	v.SetDefault("basic_config.server_address", ":8000")
	v.SetDefault("basic_config.processor", "mock")
	v.SetDefault("basic_config.provider", "gemini")
	v.SetDefault("basic_config.pacing_interval_ms", 1000)
	v.SetDefault("basic_config.request_timeout_seconds", 60)
	v.SetDefault("basic_config.product_aware", false)
	v.SetDefault("basic_config.database", "")
	v.SetDefault("basic_config.mock_seed", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "hservice")
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing default file is not an error: defaults and HSERVICE_* environment
// variables are enough to run the mock processor.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindMapEnv(v); err != nil {
		return nil, err
	}

	v.SetConfigFile(absPath)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)):
		default:
			return nil, fmt.Errorf("read config %s: %w", absPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// relative sqlite paths resolve against the config file directory
	for name, db := range cfg.Databases {
		if db.Driver == "" {
			db.Driver = strings.ToLower(name)
			cfg.Databases[name] = db
		}
		if isSQLite(db.Driver) && db.DSN != "" && db.DSN != ":memory:" && !strings.HasPrefix(db.DSN, "file:") && !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.BasicConfig.Processor) {
	case "mock":
	case "llm":
		if c.BasicConfig.Provider == "" {
			return errors.New("basic_config.provider must be configured for the llm processor")
		}
		if _, ok := c.Providers[strings.ToLower(c.BasicConfig.Provider)]; !ok {
			return fmt.Errorf("provider %s not configured", c.BasicConfig.Provider)
		}
	default:
		return fmt.Errorf("unknown processor %q", c.BasicConfig.Processor)
	}
	if name := c.BasicConfig.Database; name != "" {
		if _, ok := c.Databases[strings.ToLower(name)]; !ok {
			return fmt.Errorf("database config for %s not found", name)
		}
	}
	return nil
}

func isSQLite(name string) bool {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return true
	}
	return false
}
