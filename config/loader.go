package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "VOICEKIT"

// LoaderOption customizes Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path, skipping the search.
func WithConfigFile(path string) LoaderOption {
	return func(lo *loaderOptions) { lo.configFile = path }
}

// WithEnvFile sets an explicit .env file path, skipping the search.
func WithEnvFile(path string) LoaderOption {
	return func(lo *loaderOptions) { lo.envFile = path }
}

// Load reads configuration from the first config file found, overlays
// VOICEKIT_* environment variables, applies defaults, and validates the
// result. A missing config file is not an error; defaults apply.
func Load(opts ...LoaderOption) (*Config, error) {
	var lo loaderOptions
	for _, opt := range opts {
		opt(&lo)
	}

	envFile := lo.envFile
	if envFile == "" {
		envFile = findFirst(envSearchPaths())
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %q: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKnownKeys(v)

	configFile := lo.configFile
	if configFile == "" {
		configFile = findFirst(configSearchPaths())
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindKnownKeys registers every config key with viper so AutomaticEnv
// resolves VOICEKIT_CHATGPT_TIMEOUT_SECS and friends even when no config
// file supplies the key.
func bindKnownKeys(v *viper.Viper) {
	keys := []string{
		"provider",
		"data_dir",
		"logging.level",
		"logging.format",
		"logging.output",
		"logging.no_color",
		"logging.timestamp",
		"chatgpt.endpoint",
		"chatgpt.timeout_secs",
		"whisper.url",
		"whisper.model",
		"whisper.timeout_secs",
		"oauth.token_endpoint",
		"oauth.client_id",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func configSearchPaths() []string {
	paths := []string{}
	if explicit := os.Getenv(envPrefix + "_CONFIG"); explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, "./config.yml", "./config.yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "voicekit", "config.yml"),
			filepath.Join(dir, "voicekit", "config.yaml"),
		)
	}
	return paths
}

func envSearchPaths() []string {
	return []string{"./.env"}
}

func findFirst(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
