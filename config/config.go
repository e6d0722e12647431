package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/voicekit/logger"
)

// Config is the full voicekit configuration.
type Config struct {
	// Provider selects the active transcription backend.
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=chatgpt chatgpt-bridge whisper"`

	// DataDir holds history, stats, and credential files.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	ChatGPT ChatGPTConfig `yaml:"chatgpt" mapstructure:"chatgpt"`
	Whisper WhisperConfig `yaml:"whisper" mapstructure:"whisper"`
	OAuth   OAuthConfig   `yaml:"oauth" mapstructure:"oauth"`
}

// ChatGPTConfig configures the ChatGPT transcription backends.
type ChatGPTConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=0"`
}

// WhisperConfig configures the local Whisper server backend.
type WhisperConfig struct {
	URL         string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=0"`
}

// OAuthConfig configures the ChatGPT OAuth token manager.
type OAuthConfig struct {
	TokenEndpoint string `yaml:"token_endpoint" mapstructure:"token_endpoint" validate:"omitempty,url"`
	ClientID      string `yaml:"client_id" mapstructure:"client_id"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "chatgpt"
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir()
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("config validation failed: %w", err)
		}
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, fmt.Sprintf("%s: failed %q rule", e.Namespace(), e.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "voicekit")
	}
	return ".voicekit"
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report mapstructure key names rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
