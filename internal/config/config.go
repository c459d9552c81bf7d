package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Log     LogConfig     `mapstructure:"log"`
}

// LLMConfig holds the generation provider configuration
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig holds the sqlite storage configuration
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// AgentConfig holds per-agent behavior knobs.
type AgentConfig struct {
	// HistoryLimit bounds how many messages are loaded on transcript restore.
	HistoryLimit int `mapstructure:"history_limit"`
	// MaxTurns bounds the LLM/tool interaction loop per chat turn.
	MaxTurns int `mapstructure:"max_turns"`
	// DefaultOpen, when set, includes an integration's tools on registry
	// lookup failure instead of excluding them.
	DefaultOpen bool `mapstructure:"default_open"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from config.yaml (or the file named by
// CONFIG_PATH), with environment variables taking precedence.
func Load() (*Config, error) {
	v := viper.New()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("storage.path", "agent.db")
	v.SetDefault("agent.history_limit", 50)
	v.SetDefault("agent.max_turns", 5)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("AGENT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
