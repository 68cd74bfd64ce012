package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Session     SessionConfig     `mapstructure:"session"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Development DevelopmentConfig `mapstructure:"development"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type SessionConfig struct {
	// ReconnectDeadlineSeconds is how long a dropped seat is held before the
	// opponent may claim the win.
	ReconnectDeadlineSeconds int `mapstructure:"reconnect_deadline_seconds"`
	// SendBuffer is the per-client outbound message queue length.
	SendBuffer int `mapstructure:"send_buffer"`
}

type AuthConfig struct {
	// TokenSecret signs seat tokens. Must be set in production.
	TokenSecret string `mapstructure:"token_secret"`
	// TokenTTLHours bounds how long a seat token stays reusable.
	TokenTTLHours int `mapstructure:"token_ttl_hours"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variables
	viper.SetEnvPrefix("NETCHESS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("session.reconnect_deadline_seconds", 60)
	viper.SetDefault("session.send_buffer", 64)
	viper.SetDefault("auth.token_secret", "dev-only-secret")
	viper.SetDefault("auth.token_ttl_hours", 24)
	viper.SetDefault("development.debug", false)
	viper.SetDefault("development.log_level", "info")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			return loadDefaults(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func loadDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Session: SessionConfig{
			ReconnectDeadlineSeconds: 60,
			SendBuffer:               64,
		},
		Auth: AuthConfig{
			TokenSecret:   "dev-only-secret",
			TokenTTLHours: 24,
		},
		Development: DevelopmentConfig{
			Debug:    false,
			LogLevel: "info",
		},
	}
}
