package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	// loads .env from the working directory, if present
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
)

const (
	DefaultListenAddr = ":3000"
	DefaultOrdering   = "arrival"
	DefaultLogLevel   = "info"
	DefaultLogStyle   = "json"
)

type Config struct {
	ListenAddr     string        `yaml:"listen_addr"`
	BaseURL        string        `yaml:"api_base_url"`
	Ordering       string        `yaml:"ordering"`        // "arrival" | "latest"
	RequestTimeout time.Duration `yaml:"request_timeout"` // 0 = none
	DatabaseURL    string        `yaml:"database_url"`    // empty disables the attempt log
	Logs           LogConfig     `yaml:"logs"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Style string `yaml:"style"` // "json" | "console"
}

func Default() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		BaseURL:    apiclient.DefaultBaseURL,
		Ordering:   DefaultOrdering,
		Logs: LogConfig{
			Level: DefaultLogLevel,
			Style: DefaultLogStyle,
		},
	}
}

// Load resolves configuration as flag > env > YAML file > default and returns
// the positional arguments left after flags.
func Load(name string, args []string) (Config, []string, error) {
	var (
		file    string
		fromCLI Config
	)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&file, "config", "", "YAML config file (env CONFIG_FILE)")
	fs.StringVar(&fromCLI.ListenAddr, "addr", "", "listen address (env LISTEN_ADDR)")
	fs.StringVar(&fromCLI.BaseURL, "api", "", "API base URL (env API_BASE_URL)")
	fs.StringVar(&fromCLI.Ordering, "ordering", "", "arrival | latest (env ORDERING)")
	fs.DurationVar(&fromCLI.RequestTimeout, "timeout", 0, "request timeout, 0 = none (env REQUEST_TIMEOUT)")
	fs.StringVar(&fromCLI.DatabaseURL, "db", "", "attempt log database URL (env DATABASE_URL)")
	fs.StringVar(&fromCLI.Logs.Level, "log-level", "", "debug | info | warn | error (env LOG_LEVEL)")
	fs.StringVar(&fromCLI.Logs.Style, "log-style", "", "json | console (env LOG_STYLE)")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := Default()

	// YAML file
	if file == "" {
		file = os.Getenv("CONFIG_FILE")
	}
	if file != "" {
		if err := loadFile(file, &cfg); err != nil {
			return Config{}, nil, err
		}
	}

	// Environment
	if err := applyEnv(&cfg); err != nil {
		return Config{}, nil, err
	}

	// Flags, only the ones actually passed
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.ListenAddr = fromCLI.ListenAddr
		case "api":
			cfg.BaseURL = fromCLI.BaseURL
		case "ordering":
			cfg.Ordering = fromCLI.Ordering
		case "timeout":
			cfg.RequestTimeout = fromCLI.RequestTimeout
		case "db":
			cfg.DatabaseURL = fromCLI.DatabaseURL
		case "log-level":
			cfg.Logs.Level = fromCLI.Logs.Level
		case "log-style":
			cfg.Logs.Style = fromCLI.Logs.Style
		}
	})

	if err := Validate(&cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("LISTEN_ADDR", &cfg.ListenAddr)
	str("API_BASE_URL", &cfg.BaseURL)
	str("ORDERING", &cfg.Ordering)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("LOG_LEVEL", &cfg.Logs.Level)
	str("LOG_STYLE", &cfg.Logs.Style)

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid REQUEST_TIMEOUT env variable")
		}
		cfg.RequestTimeout = d
	}
	return nil
}
