package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"cardiocheck/logging"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		StaticDir      string        `yaml:"static_dir"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log logging.Config `yaml:"log"`
	ML  struct {
		ModelType        string        `yaml:"model_type"`
		ModelPath        string        `yaml:"model_path"`
		FeaturesPath     string        `yaml:"features_path"`
		StrictVocabulary bool          `yaml:"strict_vocabulary"`
		CacheSize        int           `yaml:"cache_size"`
		Watch            bool          `yaml:"watch"`
		WatchDebounce    time.Duration `yaml:"watch_debounce"`
	} `yaml:"ml"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	c := &Config{}
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.StaticDir = "frontend"
	c.Http.MaxBodyBytes = 64 << 10
	c.Log = logging.Config{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
	c.ML.ModelType = "logistic_regression"
	c.ML.ModelPath = filepath.Join("models", "heart_disease_model.json")
	c.ML.FeaturesPath = filepath.Join("models", "model_columns.json")
	c.ML.CacheSize = 1024
	c.ML.WatchDebounce = 500 * time.Millisecond
	return c
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	if err := applyEnv(config, os.Getenv); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// Resolve finds the config file next to the binary's working directory or
// one level up, so the service can be started from cmd/.
func Resolve(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		parent := filepath.Join("..", path)
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
	}
	return path
}

func applyEnv(c *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("PORT must be a number")
		}
		c.Http.Port = port
	}
	if v := getenv("FRONTEND_URL"); v != "" {
		c.Http.AllowedOrigins = strings.Split(v, ",")
	}
	if v := getenv("CARDIOCHECK_MODEL_PATH"); v != "" {
		c.ML.ModelPath = v
	}
	if v := getenv("CARDIOCHECK_FEATURES_PATH"); v != "" {
		c.ML.FeaturesPath = v
	}
	if v := getenv("CARDIOCHECK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return errors.New("http.port out of range")
	}
	if c.ML.ModelPath == "" || c.ML.FeaturesPath == "" {
		return errors.New("ml.model_path and ml.features_path are required")
	}
	if c.Http.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
