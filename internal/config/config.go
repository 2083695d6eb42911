package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configFileName      = "match_config.yaml"
	oauthClientFileName = "oauthClient.json"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL string          `yaml:"databaseURL" validate:"required"`
	Matching    MatchingConfig  `yaml:"matching"`
	Email       EmailConfig     `yaml:"email"`
	ViewCache   ViewCacheConfig `yaml:"viewCache"`
}

// MatchingConfig tunes the match finder and system matching
type MatchingConfig struct {
	PoolSize            int `yaml:"poolSize" validate:"gte=1"`
	DefaultLimit        int `yaml:"defaultLimit" validate:"gte=1,lte=100"`
	DefaultMinScore     int `yaml:"defaultMinScore" validate:"gte=0,lte=100"`
	SystemMatchMinScore int `yaml:"systemMatchMinScore" validate:"gte=50,lte=100"`
	MaxSystemMatches    int `yaml:"maxSystemMatches" validate:"gte=1"`
}

// EmailConfig controls best-effort email through Gmail
type EmailConfig struct {
	Enabled     bool   `yaml:"enabled"`
	GmailUserID string `yaml:"gmailUserID" validate:"required_if=Enabled true"`
	Sender      string `yaml:"sender" validate:"omitempty,email"`
	PerMinute   int    `yaml:"perMinute" validate:"gte=1"`
}

// ViewCacheConfig bounds the opportunity view de-duplication cache
type ViewCacheConfig struct {
	TTL        time.Duration `yaml:"ttl" validate:"gt=0"`
	MaxEntries int           `yaml:"maxEntries" validate:"gte=1"`
}

// OAuthClientConfig represents the OAuth client configuration
type OAuthClientConfig struct {
	Installed struct {
		ClientID                string   `json:"client_id" validate:"required"`
		ProjectID               string   `json:"project_id"`
		AuthURI                 string   `json:"auth_uri" validate:"required,url"`
		TokenURI                string   `json:"token_uri" validate:"required,url"`
		AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url"`
		ClientSecret            string   `json:"client_secret" validate:"required"`
		RedirectURIs            []string `json:"redirect_uris"`
	} `json:"installed" validate:"required"`
}

// Default returns a config holding every default value
func Default() *Config {
	return &Config{
		Matching: MatchingConfig{
			PoolSize:            500,
			DefaultLimit:        10,
			DefaultMinScore:     30,
			SystemMatchMinScore: 50,
			MaxSystemMatches:    10,
		},
		Email: EmailConfig{
			PerMinute: 20,
		},
		ViewCache: ViewCacheConfig{
			TTL:        time.Hour,
			MaxEntries: 10000,
		},
	}
}

// Load reads the default config file
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv reads match_config.yaml, or match_config.<env>.yaml when env is set,
// from the working directory or the home directory
func LoadWithEnv(env string) (*Config, error) {
	path, err := findConfigFile(envFileName(configFileName, env))
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads, defaults and validates the config file at path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if cfg.Matching.SystemMatchMinScore < cfg.Matching.DefaultMinScore {
		return fmt.Errorf("validation failed: matching.systemMatchMinScore (%d) is below matching.defaultMinScore (%d)",
			cfg.Matching.SystemMatchMinScore, cfg.Matching.DefaultMinScore)
	}

	return nil
}

// envFileName inserts env before the extension: match_config.yaml -> match_config.test.yaml
func envFileName(name, env string) string {
	if env == "" {
		return name
	}
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + "." + env + ext
}

// findConfigFile looks for name in the working directory, then the home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(homeDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("config file %s not found in the working directory or %s", name, homeDir)
}
