// Package config loads the cohort client configuration. Values come from
// ~/.config/cohort/config.toml, then a .env file in the working directory,
// then COHORT_* environment variables, each layer overriding the last.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings the cohort client needs.
type Config struct {
	BaseURL     string
	SessionPath string
	LogLevel    string
}

const (
	defaultConfigPath  = "~/.config/cohort/config.toml"
	defaultBaseURL     = "http://localhost:4000"
	defaultSessionPath = "~/.config/cohort/session.toml"
	defaultLogLevel    = "info"
)

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseURL:     defaultBaseURL,
		SessionPath: defaultSessionPath,
		LogLevel:    defaultLogLevel,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL      string `toml:"api_url"`
		SessionPath string `toml:"session_path"`
		LogLevel    string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}

	return applyEnv(cfg), nil
}

// applyEnv layers .env and process environment overrides on top of cfg.
func applyEnv(cfg Config) Config {
	// A .env in the working directory is a developer convenience; absence is
	// not an error and existing environment variables win over its contents.
	_ = godotenv.Load()

	if v := strings.TrimSpace(os.Getenv("COHORT_API_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("COHORT_SESSION_PATH")); v != "" {
		cfg.SessionPath = v
	}
	if v := strings.TrimSpace(os.Getenv("COHORT_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
