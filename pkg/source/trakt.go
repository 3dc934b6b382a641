package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/tidwall/gjson"

	"github.com/umputun/mediascope/pkg/domain"
)

// Trakt is the trending provider client. Trending responses carry imdb ids
// directly, so items from here never need matching.
type Trakt struct {
	client   *http.Client
	baseURL  string
	clientID string
	maxItems int
}

// TraktParams configures the Trakt client
type TraktParams struct {
	BaseURL  string
	ClientID string // opaque credential from the config loader
	Timeout  time.Duration
	MaxItems int
}

// NewTrakt creates a Trakt client
func NewTrakt(p TraktParams) *Trakt {
	if p.BaseURL == "" {
		p.BaseURL = "https://api.trakt.tv"
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.MaxItems == 0 {
		p.MaxItems = 20
	}
	return &Trakt{
		client:   &http.Client{Timeout: p.Timeout},
		baseURL:  p.BaseURL,
		clientID: p.ClientID,
		maxItems: p.MaxItems,
	}
}

// TrendingMovies returns currently trending movies ordered by watchers.
// Malformed entries are skipped and counted.
func (t *Trakt) TrendingMovies(ctx context.Context) ([]domain.RawItem, int, error) {
	body, err := t.get(ctx, "/movies/trending")
	if err != nil {
		return nil, 0, err
	}

	items := make([]domain.RawItem, 0, t.maxItems)
	skipped := 0
	for _, entry := range gjson.ParseBytes(body).Array() {
		title := entry.Get("movie.title").String()
		traktID := entry.Get("movie.ids.trakt").String()
		if title == "" || traktID == "" {
			skipped++
			continue
		}

		items = append(items, domain.RawItem{
			SourceID:   traktID,
			Source:     domain.SourceTrakt,
			Title:      title,
			Year:       int(entry.Get("movie.year").Int()),
			Kind:       domain.KindMovie,
			IMDBID:     entry.Get("movie.ids.imdb").String(),
			Popularity: entry.Get("watchers").Float(),
		})
		if len(items) >= t.maxItems {
			break
		}
	}

	if skipped > 0 {
		lgr.Printf("[WARN] skipped %d malformed entries from trakt trending", skipped)
	}
	return items, skipped, nil
}

func (t *Trakt) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", t.clientID)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: trakt %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: trakt %s", domain.ErrUpstreamRateLimited, path)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: trakt %s: status %d", domain.ErrUpstreamUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: read trakt %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: trakt %s: invalid json", domain.ErrUpstreamUnavailable, path)
	}
	return body, nil
}
