package config

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ssh-vom/booksearch/internal/catalog"
)

const (
	defaultCountry        = "US"
	defaultProvider       = "google"
	defaultTimeoutSeconds = 20
	configDirName         = "booksearch"
	configFileName        = "config.json"
	envFileName           = ".env"
)

type Config struct {
	GraphQLEndpoint       string `json:"graphql_endpoint"`
	Country               string `json:"country"`
	DefaultProvider       string `json:"default_provider"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	Verbose               bool   `json:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		Country:               defaultCountry,
		DefaultProvider:       defaultProvider,
		RequestTimeoutSeconds: defaultTimeoutSeconds,
	}
}

func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to resolve config dir: %w", err)
	}

	return filepath.Join(configDir, configDirName), nil
}

func ConfigPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, configFileName), nil
}

func EnvPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, envFileName), nil
}

// LoadEnv reads KEY=value pairs from the .env file next to the config.
// Variables already present in the environment win.
func LoadEnv() error {
	envPath, err := EnvPath()
	if err != nil {
		return err
	}

	return loadEnvFile(envPath)
}

func loadEnvFile(envPath string) error {
	file, err := os.Open(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to read env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("unable to parse env file: %w", err)
	}

	return nil
}

func LoadConfig() (Config, error) {
	if err := LoadEnv(); err != nil {
		return DefaultConfig(), err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	return LoadFile(configPath)
}

// LoadFile reads the JSON config at path. A missing file is not an error;
// defaults and environment fallbacks still apply.
func LoadFile(configPath string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ApplyDefaults(ApplyEnvDefaults(cfg)), nil
		}
		return DefaultConfig(), fmt.Errorf("unable to read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("unable to parse config: %w", err)
	}

	return ApplyDefaults(ApplyEnvDefaults(cfg)), nil
}

func SaveConfig(cfg Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("unable to write config: %w", err)
	}

	return nil
}

func ApplyEnvDefaults(cfg Config) Config {
	if cfg.GraphQLEndpoint == "" {
		if value := strings.TrimSpace(os.Getenv("BOOKSEARCH_GRAPHQL_ENDPOINT")); value != "" {
			cfg.GraphQLEndpoint = value
		}
	}
	if cfg.Country == "" {
		if value := strings.TrimSpace(os.Getenv("BOOKSEARCH_COUNTRY")); value != "" {
			cfg.Country = value
		}
	}
	if cfg.DefaultProvider == "" {
		if value := strings.TrimSpace(os.Getenv("BOOKSEARCH_PROVIDER")); value != "" {
			cfg.DefaultProvider = value
		}
	}
	if cfg.RequestTimeoutSeconds == 0 {
		if value := strings.TrimSpace(os.Getenv("BOOKSEARCH_TIMEOUT")); value != "" {
			if seconds, err := strconv.Atoi(value); err == nil {
				cfg.RequestTimeoutSeconds = seconds
			}
		}
	}
	if !cfg.Verbose {
		if value := strings.TrimSpace(os.Getenv("BOOKSEARCH_VERBOSE")); value != "" {
			cfg.Verbose = value == "1" || strings.EqualFold(value, "true")
		}
	}

	return cfg
}

func ApplyDefaults(cfg Config) Config {
	if cfg.Country == "" {
		cfg.Country = defaultCountry
	}
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = defaultProvider
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = defaultTimeoutSeconds
	}
	return cfg
}

func (cfg Config) Endpoint() (string, error) {
	trimmed := strings.TrimSpace(cfg.GraphQLEndpoint)
	if trimmed == "" {
		return "", errors.New("graphql endpoint not configured")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid graphql endpoint: %w", err)
	}
	if parsed.Host == "" {
		return "", errors.New("graphql endpoint missing host")
	}

	return parsed.String(), nil
}

func (cfg Config) Provider() (catalog.Provider, error) {
	if strings.TrimSpace(cfg.DefaultProvider) == "" {
		return catalog.GoogleBooks, nil
	}
	return catalog.ParseProvider(cfg.DefaultProvider)
}

func (cfg Config) RequestTimeout() time.Duration {
	if cfg.RequestTimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

func (cfg Config) Validate() error {
	if _, err := cfg.Endpoint(); err != nil {
		return err
	}
	if _, err := cfg.Provider(); err != nil {
		return err
	}
	return nil
}
