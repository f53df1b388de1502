package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WEBSITE_HOSTNAME", "TWITTER_BASE_URL", "TWITTER_USERNAME",
		"TWITTER_PASSWORD", "TWITTER_PHONE_NUMBER", "PORT", "HEADLESS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://x.com", cfg.Twitter.BaseURL)
	assert.Equal(t, 5, cfg.Scraper.MaxPosts)
	assert.Equal(t, 10, cfg.Scraper.ElementTimeout)
	assert.Equal(t, 3, cfg.Scraper.ShortTimeout)
	assert.Equal(t, 180, cfg.Scraper.OperationTimeout)
	assert.Equal(t, 3600, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.Cache.MaxEntries)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Scraper.Headless)
	assert.False(t, cfg.Hosted)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  headless: true
  max_posts: 8
server:
  port: "9090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Scraper.Headless)
	assert.Equal(t, 8, cfg.Scraper.MaxPosts)
	assert.Equal(t, "9090", cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://x.com", cfg.Twitter.BaseURL)
}

func TestMaxPostsCapped(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  max_posts: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Scraper.MaxPosts)
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scraper: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TWITTER_BASE_URL", "https://example.test")
	t.Setenv("TWITTER_USERNAME", "user")
	t.Setenv("TWITTER_PASSWORD", "pass")
	t.Setenv("TWITTER_PHONE_NUMBER", "555")
	t.Setenv("PORT", "3000")
	t.Setenv("HEADLESS", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://example.test", cfg.Twitter.BaseURL)
	assert.Equal(t, "user", cfg.Twitter.Username)
	assert.Equal(t, "pass", cfg.Twitter.Password)
	assert.Equal(t, "555", cfg.Twitter.PhoneNumber)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.True(t, cfg.Scraper.Headless)
}

func TestHostedEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBSITE_HOSTNAME", "timehealer.azurewebsites.net")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Hosted)
	assert.True(t, cfg.Scraper.Headless)
	assert.Equal(t, "/home/chrome-profiles", cfg.Scraper.ProfileDir)
	assert.Equal(t, "/home/LogFiles/app.log", cfg.Logging.File)
}
