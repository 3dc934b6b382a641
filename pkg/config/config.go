package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Cache struct {
		TTL time.Duration `yaml:"ttl" json:"ttl" jsonschema:"default=30m,description=Catalog cache time to live"`
	} `yaml:"cache" json:"cache" jsonschema:"description=Catalog cache configuration"`

	Warmer struct {
		Enabled  bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable background catalog pre-warming"`
		Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"default=25m,description=Pre-warm interval"`
		Catalogs []string      `yaml:"catalogs" json:"catalogs" jsonschema:"description=Catalog ids to keep warm"`
	} `yaml:"warmer" json:"warmer" jsonschema:"description=Cache warmer configuration"`

	TMDB struct {
		APIKey     string        `yaml:"api_key" json:"api_key" jsonschema:"required,description=TMDB API key (can use environment variable)"`
		BaseURL    string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://api.themoviedb.org/3,description=TMDB API base URL"`
		Language   string        `yaml:"language" json:"language" jsonschema:"default=en-US,description=TMDB response language"`
		Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Request timeout"`
		Retries    int           `yaml:"retries" json:"retries" jsonschema:"default=3,description=Retry attempts per request"`
		MaxResults int           `yaml:"max_results" json:"max_results" jsonschema:"default=50,description=Maximum records taken from one response"`
	} `yaml:"tmdb" json:"tmdb" jsonschema:"description=Metadata provider configuration"`

	EZTV struct {
		FeedURL  string        `yaml:"feed_url" json:"feed_url" jsonschema:"required,description=TV release RSS feed URL"`
		Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=15s,description=Fetch timeout"`
		Retries  int           `yaml:"retries" json:"retries" jsonschema:"default=3,description=Retry attempts per fetch"`
		MaxItems int           `yaml:"max_items" json:"max_items" jsonschema:"default=100,description=Maximum feed items taken per fetch"`
	} `yaml:"eztv" json:"eztv" jsonschema:"description=Release feed configuration"`

	Trakt struct {
		Enabled  bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Merge Trakt trending into trending catalogs"`
		ClientID string        `yaml:"client_id" json:"client_id" jsonschema:"description=Trakt client id (can use environment variable)"`
		BaseURL  string        `yaml:"base_url" json:"base_url" jsonschema:"default=https://api.trakt.tv,description=Trakt API base URL"`
		Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=10s,description=Request timeout"`
		MaxItems int           `yaml:"max_items" json:"max_items" jsonschema:"default=20,description=Maximum trending items taken per fetch"`
	} `yaml:"trakt" json:"trakt" jsonschema:"description=Trending provider configuration"`

	Match MatchConfig `yaml:"match" json:"match" jsonschema:"description=Cross-source matching thresholds"`

	Catalogs CatalogsConfig `yaml:"catalogs" json:"catalogs" jsonschema:"description=Catalog assembly configuration"`
}

// MatchConfig holds matching thresholds, tunable without code changes
type MatchConfig struct {
	HighThreshold float64 `yaml:"high_threshold" json:"high_threshold" jsonschema:"default=0.8,minimum=0,maximum=1,description=Score at or above which a candidate is accepted"`
	LowThreshold  float64 `yaml:"low_threshold" json:"low_threshold" jsonschema:"default=0.5,minimum=0,maximum=1,description=Score below which an item is unmatched"`
	YearTolerance int     `yaml:"year_tolerance" json:"year_tolerance" jsonschema:"default=1,description=Maximum year distance before a candidate is disqualified"`
	YearBonus     float64 `yaml:"year_bonus" json:"year_bonus" jsonschema:"default=0.1,description=Score bonus on exact year agreement"`
}

// CatalogsConfig holds per-variant assembly settings
type CatalogsConfig struct {
	PageSize            int `yaml:"page_size" json:"page_size" jsonschema:"default=20,description=Entries per catalog page"`
	TrendingLimit       int `yaml:"trending_limit" json:"trending_limit" jsonschema:"default=20,description=Cap on trending catalogs"`
	LatestWindowDays    int `yaml:"latest_window_days" json:"latest_window_days" jsonschema:"default=90,description=Release window for the latest movies catalog"`
	LatestMinVotes      int `yaml:"latest_min_votes" json:"latest_min_votes" jsonschema:"default=100,description=Minimum vote count for latest movies"`
	AnimeMinVotes       int `yaml:"anime_min_votes" json:"anime_min_votes" jsonschema:"default=100,description=Minimum vote count for the anime catalog"`
	AnimeGenre          string `yaml:"anime_genre" json:"anime_genre" jsonschema:"default=Animation,description=Provider genre marking likely-dubbed titles"`
	AnimeLanguage       string `yaml:"anime_language" json:"anime_language" jsonschema:"default=ja,description=Original language filter for the anime catalog"`
	RecommendedMinVotes int `yaml:"recommended_min_votes" json:"recommended_min_votes" jsonschema:"default=500,description=Minimum vote count for recommended titles"`
	FeedScanLimit       int `yaml:"feed_scan_limit" json:"feed_scan_limit" jsonschema:"default=50,description=Feed entries scanned per latest-tv build"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables, credentials usually come via env
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 30 * time.Minute
	}
	if cfg.Warmer.Interval == 0 {
		cfg.Warmer.Interval = 25 * time.Minute
	}

	if cfg.TMDB.BaseURL == "" {
		cfg.TMDB.BaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.TMDB.Language == "" {
		cfg.TMDB.Language = "en-US"
	}
	if cfg.TMDB.Timeout == 0 {
		cfg.TMDB.Timeout = 10 * time.Second
	}
	if cfg.TMDB.Retries == 0 {
		cfg.TMDB.Retries = 3
	}
	if cfg.TMDB.MaxResults == 0 {
		cfg.TMDB.MaxResults = 50
	}

	if cfg.EZTV.Timeout == 0 {
		cfg.EZTV.Timeout = 15 * time.Second
	}
	if cfg.EZTV.Retries == 0 {
		cfg.EZTV.Retries = 3
	}
	if cfg.EZTV.MaxItems == 0 {
		cfg.EZTV.MaxItems = 100
	}

	if cfg.Trakt.BaseURL == "" {
		cfg.Trakt.BaseURL = "https://api.trakt.tv"
	}
	if cfg.Trakt.Timeout == 0 {
		cfg.Trakt.Timeout = 10 * time.Second
	}
	if cfg.Trakt.MaxItems == 0 {
		cfg.Trakt.MaxItems = 20
	}

	if cfg.Match.HighThreshold == 0 {
		cfg.Match.HighThreshold = 0.8
	}
	if cfg.Match.LowThreshold == 0 {
		cfg.Match.LowThreshold = 0.5
	}
	if cfg.Match.YearTolerance == 0 {
		cfg.Match.YearTolerance = 1
	}
	if cfg.Match.YearBonus == 0 {
		cfg.Match.YearBonus = 0.1
	}

	if cfg.Catalogs.PageSize == 0 {
		cfg.Catalogs.PageSize = 20
	}
	if cfg.Catalogs.TrendingLimit == 0 {
		cfg.Catalogs.TrendingLimit = 20
	}
	if cfg.Catalogs.LatestWindowDays == 0 {
		cfg.Catalogs.LatestWindowDays = 90
	}
	if cfg.Catalogs.LatestMinVotes == 0 {
		cfg.Catalogs.LatestMinVotes = 100
	}
	if cfg.Catalogs.AnimeMinVotes == 0 {
		cfg.Catalogs.AnimeMinVotes = 100
	}
	if cfg.Catalogs.AnimeGenre == "" {
		cfg.Catalogs.AnimeGenre = "Animation"
	}
	if cfg.Catalogs.AnimeLanguage == "" {
		cfg.Catalogs.AnimeLanguage = "ja"
	}
	if cfg.Catalogs.RecommendedMinVotes == 0 {
		cfg.Catalogs.RecommendedMinVotes = 500
	}
	if cfg.Catalogs.FeedScanLimit == 0 {
		cfg.Catalogs.FeedScanLimit = 50
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.TMDB.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if cfg.EZTV.FeedURL == "" {
		return fmt.Errorf("eztv.feed_url is required")
	}
	if cfg.Trakt.Enabled && cfg.Trakt.ClientID == "" {
		return fmt.Errorf("trakt.client_id is required when trakt is enabled")
	}

	if cfg.Match.HighThreshold <= 0 || cfg.Match.HighThreshold > 1 {
		return fmt.Errorf("match.high_threshold must be in (0, 1]")
	}
	if cfg.Match.LowThreshold < 0 || cfg.Match.LowThreshold > cfg.Match.HighThreshold {
		return fmt.Errorf("match.low_threshold must be in [0, high_threshold]")
	}
	if cfg.Match.YearTolerance < 0 {
		return fmt.Errorf("match.year_tolerance must be non-negative")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Cache.TTL < time.Second {
		return fmt.Errorf("cache ttl must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetCacheTTL returns the catalog cache ttl
func (c *Config) GetCacheTTL() time.Duration {
	return c.Cache.TTL
}
