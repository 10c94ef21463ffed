package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	fileMode   = 0o644
	dirMode    = 0o755
)

type Config struct {
	DataDir    string
	DBPath     string
	ReportsDir string

	HTTPAddr    string   `env:"MINDTRACK_HTTP_ADDR"`
	LogLevel    string   `env:"MINDTRACK_LOG_LEVEL"`
	Debug       bool     `env:"MINDTRACK_DEBUG"`
	CORSOrigins []string `env:"MINDTRACK_CORS_ORIGINS" envSeparator:","`

	OllamaBaseURL    string        `env:"OLLAMA_BASE_URL"`
	OllamaModel      string        `env:"OLLAMA_MODEL"`
	AllocatorTimeout time.Duration `env:"MINDTRACK_ALLOCATOR_TIMEOUT"`

	EmotionDetectionEnabled bool          `env:"MINDTRACK_EMOTION_DETECTION_ENABLED"`
	EmotionBufferSize       int           `env:"MINDTRACK_EMOTION_BUFFER_SIZE"`
	NegativeEmotions        []string      `env:"MINDTRACK_NEGATIVE_EMOTIONS" envSeparator:","`
	ClassifierTimeout       time.Duration `env:"MINDTRACK_CLASSIFIER_TIMEOUT"`
}

// Default returns the built-in configuration rooted at dataDir.
func Default(dataDir string) Config {
	cfg := Config{
		DataDir:                 dataDir,
		HTTPAddr:                ":8000",
		LogLevel:                "info",
		CORSOrigins:             []string{"http://localhost:3000", "http://localhost:5173"},
		OllamaBaseURL:           "http://localhost:11434",
		OllamaModel:             "qwen2.5:7b",
		AllocatorTimeout:        30 * time.Second,
		EmotionDetectionEnabled: true,
		EmotionBufferSize:       3,
		NegativeEmotions:        []string{"sad", "tired"},
		ClassifierTimeout:       5 * time.Second,
	}
	cfg.derive()
	return cfg
}

// Load layers <dataDir>/config.toml and then the environment over Default.
func Load(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Default(dataDir)

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dataDir)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("cors_origins", cfg.CORSOrigins)
	v.SetDefault("ollama_base_url", cfg.OllamaBaseURL)
	v.SetDefault("ollama_model", cfg.OllamaModel)
	v.SetDefault("allocator_timeout", cfg.AllocatorTimeout)
	v.SetDefault("emotion_detection_enabled", cfg.EmotionDetectionEnabled)
	v.SetDefault("emotion_buffer_size", cfg.EmotionBufferSize)
	v.SetDefault("negative_emotions", cfg.NegativeEmotions)
	v.SetDefault("classifier_timeout", cfg.ClassifierTimeout)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.HTTPAddr = v.GetString("http_addr")
	cfg.LogLevel = v.GetString("log_level")
	cfg.Debug = v.GetBool("debug")
	cfg.CORSOrigins = splitList(v.GetStringSlice("cors_origins"))
	cfg.OllamaBaseURL = v.GetString("ollama_base_url")
	cfg.OllamaModel = v.GetString("ollama_model")
	cfg.AllocatorTimeout = v.GetDuration("allocator_timeout")
	cfg.EmotionDetectionEnabled = v.GetBool("emotion_detection_enabled")
	cfg.EmotionBufferSize = v.GetInt("emotion_buffer_size")
	cfg.NegativeEmotions = splitList(v.GetStringSlice("negative_emotions"))
	cfg.ClassifierTimeout = v.GetDuration("classifier_timeout")

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.derive()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	if c.EmotionBufferSize < 1 {
		return fmt.Errorf("emotion_buffer_size must be at least 1, got %d", c.EmotionBufferSize)
	}
	if len(c.NegativeEmotions) == 0 {
		return fmt.Errorf("negative_emotions must not be empty")
	}
	if c.AllocatorTimeout <= 0 {
		return fmt.Errorf("allocator_timeout must be positive")
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("classifier_timeout must be positive")
	}
	if strings.TrimSpace(c.OllamaBaseURL) == "" {
		return fmt.Errorf("ollama_base_url is required")
	}
	return nil
}

// File returns the path of the config file for this data dir.
func (c Config) File() string {
	return filepath.Join(c.DataDir, configName+"."+configType)
}

type fileConfig struct {
	HTTPAddr                string   `toml:"http_addr"`
	LogLevel                string   `toml:"log_level"`
	Debug                   bool     `toml:"debug"`
	CORSOrigins             []string `toml:"cors_origins"`
	OllamaBaseURL           string   `toml:"ollama_base_url"`
	OllamaModel             string   `toml:"ollama_model"`
	AllocatorTimeout        string   `toml:"allocator_timeout"`
	EmotionDetectionEnabled bool     `toml:"emotion_detection_enabled"`
	EmotionBufferSize       int      `toml:"emotion_buffer_size"`
	NegativeEmotions        []string `toml:"negative_emotions"`
	ClassifierTimeout       string   `toml:"classifier_timeout"`
}

// WriteFile renders c as TOML to path, creating parent directories.
func (c Config) WriteFile(path string) error {
	payload, err := toml.Marshal(fileConfig{
		HTTPAddr:                c.HTTPAddr,
		LogLevel:                c.LogLevel,
		Debug:                   c.Debug,
		CORSOrigins:             c.CORSOrigins,
		OllamaBaseURL:           c.OllamaBaseURL,
		OllamaModel:             c.OllamaModel,
		AllocatorTimeout:        c.AllocatorTimeout.String(),
		EmotionDetectionEnabled: c.EmotionDetectionEnabled,
		EmotionBufferSize:       c.EmotionBufferSize,
		NegativeEmotions:        c.NegativeEmotions,
		ClassifierTimeout:       c.ClassifierTimeout.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, payload, fileMode); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) derive() {
	c.DBPath = filepath.Join(c.DataDir, "mindtrack.db")
	c.ReportsDir = filepath.Join(c.DataDir, "reports")
}

// splitList accepts both TOML arrays and comma separated strings.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
