package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	content := `
server:
  listen: ":9090"
  timeout: 45s
cache:
  ttl: 15m
tmdb:
  api_key: test-key
  max_results: 25
eztv:
  feed_url: https://example.com/feed
trakt:
  enabled: true
  client_id: trakt-id
match:
  high_threshold: 0.9
  year_tolerance: 2
catalogs:
  page_size: 10
`
	path := writeConfig(t, content)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "test-key", cfg.TMDB.APIKey)
	assert.Equal(t, 25, cfg.TMDB.MaxResults)
	assert.Equal(t, "https://example.com/feed", cfg.EZTV.FeedURL)
	assert.Equal(t, "trakt-id", cfg.Trakt.ClientID)
	assert.InDelta(t, 0.9, cfg.Match.HighThreshold, 0.001)
	assert.Equal(t, 2, cfg.Match.YearTolerance)
	assert.Equal(t, 10, cfg.Catalogs.PageSize)
}

func TestLoad_Defaults(t *testing.T) {
	content := `
tmdb:
  api_key: k
eztv:
  feed_url: https://example.com/feed
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, "en-US", cfg.TMDB.Language)
	assert.Equal(t, 3, cfg.TMDB.Retries)
	assert.Equal(t, 100, cfg.EZTV.MaxItems)
	assert.InDelta(t, 0.8, cfg.Match.HighThreshold, 0.001)
	assert.InDelta(t, 0.5, cfg.Match.LowThreshold, 0.001)
	assert.Equal(t, 1, cfg.Match.YearTolerance)
	assert.Equal(t, 20, cfg.Catalogs.PageSize)
	assert.Equal(t, 20, cfg.Catalogs.TrendingLimit)
	assert.Equal(t, 90, cfg.Catalogs.LatestWindowDays)
	assert.Equal(t, "Animation", cfg.Catalogs.AnimeGenre)
	assert.Equal(t, "ja", cfg.Catalogs.AnimeLanguage)
	assert.False(t, cfg.Warmer.Enabled)
	assert.Equal(t, 25*time.Minute, cfg.Warmer.Interval)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_TMDB_KEY", "secret-from-env")
	content := `
tmdb:
  api_key: ${TEST_TMDB_KEY}
eztv:
  feed_url: https://example.com/feed
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.TMDB.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing api key", "eztv:\n  feed_url: https://x\n", "tmdb.api_key is required"},
		{"missing feed url", "tmdb:\n  api_key: k\n", "eztv.feed_url is required"},
		{"trakt without client id", "tmdb:\n  api_key: k\neztv:\n  feed_url: https://x\ntrakt:\n  enabled: true\n", "trakt.client_id is required"},
		{"bad threshold", "tmdb:\n  api_key: k\neztv:\n  feed_url: https://x\nmatch:\n  high_threshold: 1.5\n", "high_threshold"},
		{"low above high", "tmdb:\n  api_key: k\neztv:\n  feed_url: https://x\nmatch:\n  high_threshold: 0.6\n  low_threshold: 0.7\n", "low_threshold"},
		{"bad yaml", "tmdb: [broken", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
