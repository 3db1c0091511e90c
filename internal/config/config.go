// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Duel      DuelConfig      `mapstructure:"duel"`
	Roulette  RouletteConfig  `mapstructure:"roulette"`
	Silence   SilenceConfig   `mapstructure:"silence"`
	Images    ImagesConfig    `mapstructure:"images"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// DuelConfig holds duel timing and penalty configuration.
type DuelConfig struct {
	ConfirmWindow time.Duration `mapstructure:"confirm_window"`
	Countdown     time.Duration `mapstructure:"countdown"`
	ShotWindow    time.Duration `mapstructure:"shot_window"`
	FoulMute      time.Duration `mapstructure:"foul_mute"`
	LoseMute      time.Duration `mapstructure:"lose_mute"`
}

// RouletteConfig holds russian roulette configuration.
type RouletteConfig struct {
	MaxBullets int           `mapstructure:"max_bullets"`
	HitMute    time.Duration `mapstructure:"hit_mute"`
}

// SilenceConfig holds the temporary-unmute configuration.
type SilenceConfig struct {
	UnmuteGrace  time.Duration `mapstructure:"unmute_grace"`
	RemuteLength time.Duration `mapstructure:"remute_length"`
}

// ImagesConfig holds image catalog configuration.
type ImagesConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, DATABASE_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "duelbot")
	v.SetDefault("database.name", "duelbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Duel defaults
	v.SetDefault("duel.confirm_window", "30s")
	v.SetDefault("duel.countdown", "5s")
	v.SetDefault("duel.shot_window", "30s")
	v.SetDefault("duel.foul_mute", "2m")
	v.SetDefault("duel.lose_mute", "1m")

	// Roulette defaults
	v.SetDefault("roulette.max_bullets", 5)
	v.SetDefault("roulette.hit_mute", "1m")

	// Silence defaults
	v.SetDefault("silence.unmute_grace", "30m")
	v.SetDefault("silence.remute_length", "240h")

	// Images defaults
	v.SetDefault("images.base_dir", "data/images")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
