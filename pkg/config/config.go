// Package config loads qtsctl settings from defaults, <state dir>/config.yaml,
// QTS_* environment variables and command-line flags (bound by the caller),
// later sources taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/environment"
	"github.com/spf13/viper"
)

const (
	DefaultStateDir = ".qts"
	ConfigName      = "config"
	StateFileName   = "state.yaml"
	EnvPrefix       = "QTS"
)

// Config is the resolved runtime configuration.
type Config struct {
	StateDir     string                       `mapstructure:"state_dir"`
	Hostname     string                       `mapstructure:"hostname"`
	Timeout      time.Duration                `mapstructure:"timeout"`
	RateLimit    float64                      `mapstructure:"rate_limit"`
	RateBurst    int                          `mapstructure:"rate_burst"`
	LoginPath    string                       `mapstructure:"login_path"`
	Whitelist    []string                     `mapstructure:"whitelist"`
	LogLevel     string                       `mapstructure:"log_level"`
	Environments map[string]EnvironmentConfig `mapstructure:"environments"`
}

// EnvironmentConfig overrides the display name or URL of a known
// environment, or adds a new one.
type EnvironmentConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("state_dir", DefaultStateDir)
	v.SetDefault("hostname", defaultHostname())
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 1)
	v.SetDefault("login_path", "/login")
	v.SetDefault("whitelist", []string{"/login"})
	v.SetDefault("log_level", "warn")
}

// BindEnv makes QTS_* environment variables visible through v. Call it
// before reading any key, state_dir included.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration into a Config. configFile overrides the default
// <state dir>/config.yaml lookup; a missing default file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	BindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(v.GetString("state_dir"))
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later and far away.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("login_path must start with '/'")
	}
	for key, env := range c.Environments {
		if env.URL != "" && !environment.ValidBaseURL(env.URL) {
			return fmt.Errorf("environments.%s.url: %q is not a valid http(s) URL", key, env.URL)
		}
	}
	return nil
}

// StateFile is where the base-URL override and token are persisted.
func (c *Config) StateFile() string {
	return filepath.Join(c.StateDir, StateFileName)
}

// Registry merges configured environments over the built-in ones.
func (c *Config) Registry() *environment.Registry {
	defaults := environment.DefaultEnvironments()
	envs := make([]environment.Environment, 0, len(defaults)+len(c.Environments))
	envs = append(envs, defaults...)

	keys := make([]string, 0, len(c.Environments))
	for key := range c.Environments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		override := c.Environments[key]
		env := environment.Environment{Key: environment.Key(strings.ToUpper(key))}
		for _, d := range defaults {
			if d.Key == env.Key {
				env = d
			}
		}
		if override.Name != "" {
			env.Name = override.Name
		}
		if override.URL != "" {
			env.URL = override.URL
		}
		if env.URL == "" {
			continue
		}
		envs = append(envs, env)
	}

	return environment.NewRegistry(envs...)
}

func defaultHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}
