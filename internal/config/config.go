// Package config resolves where traetodo keeps its data and how it talks to
// the chat endpoint. Values come from defaults, an optional config.yaml,
// a .env file and TRAETODO_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sadopc/traetodo/internal/chat"
)

const (
	appName    = "traetodo"
	envPrefix  = "TRAETODO"
	configName = "config"
)

type Config struct {
	DataDir  string `mapstructure:"data_dir" validate:"required"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint" validate:"required,url"`
	Model    string `mapstructure:"model" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// Options are the command line overrides.
type Options struct {
	ConfigFile string
	DataDir    string
	// EnvFile defaults to .env in the working directory.
	EnvFile string
}

var validate = validator.New()

// Load builds the configuration. A missing .env or config file is not an
// error; an explicit --config that cannot be read is.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// It's okay if the .env file doesn't exist.
	_ = godotenv.Load(envFile)

	defaultDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", defaultDir)
	v.SetDefault("api_key", "")
	v.SetDefault("endpoint", chat.DefaultEndpoint)
	v.SetDefault("model", chat.DefaultModel)
	v.SetDefault("log_level", "warn")

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// DefaultDataDir returns <user config dir>/traetodo.
func DefaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

func (c *Config) TasksPath() string    { return filepath.Join(c.DataDir, "tasks.json") }
func (c *Config) MessagesPath() string { return filepath.Join(c.DataDir, "messages.json") }
func (c *Config) DBPath() string       { return filepath.Join(c.DataDir, "traetodo.db") }
func (c *Config) LogPath() string      { return filepath.Join(c.DataDir, "traetodo.log") }
