package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.DatabaseURL = "postgres://localhost:5432/match"
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Email = EmailConfig{
		Enabled:     true,
		GmailUserID: "me",
		Sender:      "matches@charity.example",
		PerMinute:   10,
	}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"zero pool size", func(c *Config) { c.Matching.PoolSize = 0 }},
		{"min score above 100", func(c *Config) { c.Matching.DefaultMinScore = 101 }},
		{"system match threshold below default", func(c *Config) { c.Matching.SystemMatchMinScore = 10 }},
		{"system match threshold below 50", func(c *Config) {
			c.Matching.DefaultMinScore = 0
			c.Matching.SystemMatchMinScore = 40
		}},
		{"email enabled without gmail user", func(c *Config) { c.Email.Enabled = true }},
		{"bad sender address", func(c *Config) { c.Email.Sender = "not-an-address" }},
		{"zero view cache ttl", func(c *Config) { c.ViewCache.TTL = 0 }},
		{"zero view cache size", func(c *Config) { c.ViewCache.MaxEntries = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	path := writeFile(t, "match_config.yaml", `
databaseURL: "postgres://localhost:5432/match"
matching:
  poolSize: 200
  defaultLimit: 5
  defaultMinScore: 40
  systemMatchMinScore: 70
  maxSystemMatches: 3
email:
  enabled: true
  gmailUserID: "me"
  sender: "matches@charity.example"
  perMinute: 30
viewCache:
  ttl: 30m
  maxEntries: 500
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/match", cfg.DatabaseURL)
	assert.Equal(t, MatchingConfig{
		PoolSize:            200,
		DefaultLimit:        5,
		DefaultMinScore:     40,
		SystemMatchMinScore: 70,
		MaxSystemMatches:    3,
	}, cfg.Matching)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "me", cfg.Email.GmailUserID)
	assert.Equal(t, 30, cfg.Email.PerMinute)
	assert.Equal(t, 30*time.Minute, cfg.ViewCache.TTL)
	assert.Equal(t, 500, cfg.ViewCache.MaxEntries)
}

func TestLoadFromPath_MinimalConfigUsesDefaults(t *testing.T) {
	path := writeFile(t, "match_config.yaml", `databaseURL: "postgres://localhost/match"`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.Matching, cfg.Matching)
	assert.Equal(t, defaults.ViewCache, cfg.ViewCache)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, 20, cfg.Email.PerMinute)
}

func TestLoadFromPath_PartialSectionKeepsOtherDefaults(t *testing.T) {
	path := writeFile(t, "match_config.yaml", `
databaseURL: "postgres://localhost/match"
matching:
  poolSize: 50
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Matching.PoolSize)
	assert.Equal(t, 10, cfg.Matching.DefaultLimit)
	assert.Equal(t, 50, cfg.Matching.SystemMatchMinScore)
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	path := writeFile(t, "match_config.yaml", `
matching:
  poolSize: 50
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeFile(t, "match_config.yaml", `
databaseURL: "postgres://localhost/match"
  invalid indentation
matching: 1
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_FindsEnvFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "match_config.staging.yaml"),
		[]byte(`databaseURL: "postgres://staging/match"`), 0644))
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadWithEnv("staging")
	require.NoError(t, err)
	assert.Equal(t, "postgres://staging/match", cfg.DatabaseURL)

	_, err = LoadWithEnv("production")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "match_config.production.yaml not found")
}

func TestEnvFileName(t *testing.T) {
	assert.Equal(t, "match_config.yaml", envFileName("match_config.yaml", ""))
	assert.Equal(t, "match_config.test.yaml", envFileName("match_config.yaml", "test"))
	assert.Equal(t, "oauthClient.test.json", envFileName("oauthClient.json", "test"))
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := writeFile(t, "oauthClient.json", `{
  "installed": {
    "client_id": "client.apps.googleusercontent.com",
    "project_id": "match",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost"]
  }
}`)

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "client.apps.googleusercontent.com", cfg.Installed.ClientID)
	assert.Equal(t, "secret", cfg.Installed.ClientSecret)
}

func TestLoadOAuthClientFromPath_MissingSecret(t *testing.T) {
	path := writeFile(t, "oauthClient.json", `{
  "installed": {
    "client_id": "client.apps.googleusercontent.com",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token"
  }
}`)

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
