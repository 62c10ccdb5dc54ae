package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "genbench.yaml"

type Config struct {
	Dataset Dataset `yaml:"dataset"`
	Metrics Metrics `yaml:"metrics"`
	Run     Run     `yaml:"run"`
	Results Results `yaml:"results"`
	Secrets Secrets `yaml:"secrets"`
	History History `yaml:"history"`
}

type Dataset struct {
	BasePath string `yaml:"base_path"`
	Frames   int    `yaml:"frames"`
}

type Metrics struct {
	Image          string        `yaml:"image"`
	ModelPath      string        `yaml:"model_path"`
	MaxDistance    float64       `yaml:"max_distance"`
	Timeout        time.Duration `yaml:"timeout"`
	CPULimit       float64       `yaml:"cpu_limit"`
	MemoryLimit    int64         `yaml:"memory_limit"`
	GPUs           bool          `yaml:"gpus"`
	Embedder       string        `yaml:"embedder"`
	GeminiModel    string        `yaml:"gemini_model"`
	GeminiProject  string        `yaml:"gemini_project"`
	GeminiLocation string        `yaml:"gemini_location"`
}

type Run struct {
	Parallel int    `yaml:"parallel"`
	WorkDir  string `yaml:"work_dir"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

type Secrets struct {
	EnvFile string `yaml:"env_file"`
}

type History struct {
	DatabaseURL string `yaml:"database_url"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault falls back to defaults when path is the default config
// file and it does not exist. An explicitly named file must exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == DefaultPath && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

func Default() *Config {
	var cfg Config
	validate(&cfg)
	return &cfg
}

func validate(cfg *Config) error {
	if cfg.Dataset.Frames == 0 {
		cfg.Dataset.Frames = 16
	}
	if cfg.Dataset.Frames < 1 {
		return fmt.Errorf("dataset.frames must be at least 1")
	}
	if cfg.Metrics.Image == "" {
		cfg.Metrics.Image = "genbench/metrics:latest"
	}
	if cfg.Metrics.MaxDistance == 0 {
		cfg.Metrics.MaxDistance = 1000
	}
	if cfg.Metrics.MaxDistance < 0 {
		return fmt.Errorf("metrics.max_distance must be positive")
	}
	if cfg.Metrics.Timeout == 0 {
		cfg.Metrics.Timeout = 10 * time.Minute
	}
	switch cfg.Metrics.Embedder {
	case "":
		cfg.Metrics.Embedder = "container"
	case "container":
	case "gemini":
		if cfg.Metrics.GeminiModel == "" {
			cfg.Metrics.GeminiModel = "multimodalembedding@001"
		}
		if cfg.Metrics.GeminiLocation == "" {
			cfg.Metrics.GeminiLocation = "us-central1"
		}
	default:
		return fmt.Errorf("metrics.embedder must be container or gemini, got %q", cfg.Metrics.Embedder)
	}
	if cfg.Run.Parallel == 0 {
		cfg.Run.Parallel = 1
	}
	if cfg.Run.Parallel < 1 {
		return fmt.Errorf("run.parallel must be at least 1")
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	return nil
}

// LoadSecrets exports the variables of the configured env file without
// overriding ones already set.
func (c *Config) LoadSecrets() error {
	if c.Secrets.EnvFile == "" {
		return nil
	}
	if err := godotenv.Load(c.Secrets.EnvFile); err != nil {
		return fmt.Errorf("loading secrets %s: %w", c.Secrets.EnvFile, err)
	}
	return nil
}

// DatabaseURL is history.database_url, or GENBENCH_DATABASE_URL when unset.
func (c *Config) DatabaseURL() string {
	if c.History.DatabaseURL != "" {
		return os.ExpandEnv(c.History.DatabaseURL)
	}
	return os.Getenv("GENBENCH_DATABASE_URL")
}
