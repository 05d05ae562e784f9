package config

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrBadOrdering = errors.New("ordering must be \"arrival\" or \"latest\"")
	ErrBadBaseURL  = errors.New("api base URL must be an absolute http(s) URL")
	ErrBadTimeout  = errors.New("request timeout must not be negative")
	ErrBadLogStyle = errors.New("log style must be \"json\" or \"console\"")
	ErrBadLogLevel = errors.New("log level must be debug, info, warn or error")
)

// Validate checks configuration correctness. It does not fill in defaults.
func Validate(cfg *Config) error {
	switch cfg.Ordering {
	case "arrival", "latest":
	default:
		return fmt.Errorf("%w, got %q", ErrBadOrdering, cfg.Ordering)
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w, got %q", ErrBadBaseURL, cfg.BaseURL)
	}

	if cfg.RequestTimeout < 0 {
		return ErrBadTimeout
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen address required")
	}

	switch cfg.Logs.Style {
	case "json", "console":
	default:
		return fmt.Errorf("%w, got %q", ErrBadLogStyle, cfg.Logs.Style)
	}
	switch cfg.Logs.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w, got %q", ErrBadLogLevel, cfg.Logs.Level)
	}
	return nil
}
