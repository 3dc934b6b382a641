package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/umputun/mediascope/pkg/domain"
)

// image base URLs, fixed by the provider CDN
const (
	posterBase   = "https://image.tmdb.org/t/p/w500"
	backdropBase = "https://image.tmdb.org/t/p/w1280"
)

// TMDB is the metadata provider client. All methods return provider-neutral
// records; malformed entries in a response are skipped and logged, never fatal.
type TMDB struct {
	client     *retryablehttp.Client
	baseURL    string
	apiKey     string
	language   string
	maxResults int
}

// TMDBParams configures the TMDB client
type TMDBParams struct {
	BaseURL    string
	APIKey     string // opaque credential from the config loader
	Language   string
	Timeout    time.Duration
	Retries    int
	MaxResults int // bound on records returned per call
}

// NewTMDB creates a TMDB client with bounded retries and response size
func NewTMDB(p TMDBParams) *TMDB {
	if p.BaseURL == "" {
		p.BaseURL = "https://api.themoviedb.org/3"
	}
	if p.Language == "" {
		p.Language = "en-US"
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Retries == 0 {
		p.Retries = 3
	}
	if p.MaxResults == 0 {
		p.MaxResults = 50
	}

	client := retryablehttp.NewClient()
	client.RetryMax = p.Retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = p.Timeout
	client.Logger = nil
	// keep the last response so rate limiting stays distinguishable after retries
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &TMDB{
		client:     client,
		baseURL:    p.BaseURL,
		apiKey:     p.APIKey,
		language:   p.Language,
		maxResults: p.MaxResults,
	}
}

// DiscoverQuery holds discover endpoint filters
type DiscoverQuery struct {
	SortBy       string
	GenreIDs     []int
	Year         int    // primary release year filter
	ReleaseAfter string // YYYY-MM-DD lower bound on release date
	MinVotes     int
	Language     string // original language filter, e.g. "ja"
	Page         int
}

// DiscoverMovies queries discover/movie
func (t *TMDB) DiscoverMovies(ctx context.Context, q DiscoverQuery) ([]domain.ProviderRecord, error) {
	params := q.values()
	if q.ReleaseAfter != "" {
		params.Set("primary_release_date.gte", q.ReleaseAfter)
	}
	if q.Year != 0 {
		params.Set("primary_release_year", strconv.Itoa(q.Year))
	}
	return t.records(ctx, "discover/movie", params, domain.KindMovie)
}

// DiscoverSeries queries discover/tv
func (t *TMDB) DiscoverSeries(ctx context.Context, q DiscoverQuery) ([]domain.ProviderRecord, error) {
	params := q.values()
	if q.Year != 0 {
		params.Set("first_air_date_year", strconv.Itoa(q.Year))
	}
	return t.records(ctx, "discover/tv", params, domain.KindSeries)
}

// TrendingMovies returns this week's trending movies in provider order
func (t *TMDB) TrendingMovies(ctx context.Context) ([]domain.ProviderRecord, error) {
	return t.records(ctx, "trending/movie/week", url.Values{}, domain.KindMovie)
}

// TrendingSeries returns this week's trending series in provider order
func (t *TMDB) TrendingSeries(ctx context.Context) ([]domain.ProviderRecord, error) {
	return t.records(ctx, "trending/tv/week", url.Values{}, domain.KindSeries)
}

// SearchSeries returns candidate records for a series title query
func (t *TMDB) SearchSeries(ctx context.Context, query string) ([]domain.ProviderRecord, error) {
	params := url.Values{}
	params.Set("query", query)
	return t.records(ctx, "search/tv", params, domain.KindSeries)
}

// SeriesExternalIDs resolves a series tmdb id to its imdb id, empty when unknown
func (t *TMDB) SeriesExternalIDs(ctx context.Context, seriesID string) (string, error) {
	body, err := t.get(ctx, "tv/"+seriesID+"/external_ids", url.Values{})
	if err != nil {
		return "", err
	}
	var resp struct {
		IMDBID string `json:"imdb_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode external ids: %v", domain.ErrUpstreamUnavailable, err)
	}
	return resp.IMDBID, nil
}

// records fetches an endpoint returning a results array and converts entries,
// skipping malformed ones
func (t *TMDB) records(ctx context.Context, endpoint string, params url.Values, kind domain.Kind) ([]domain.ProviderRecord, error) {
	body, err := t.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []tmdbResult `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}

	records := make([]domain.ProviderRecord, 0, len(resp.Results))
	skipped := 0
	for _, r := range resp.Results {
		rec, ok := r.record(kind)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
		if len(records) >= t.maxResults {
			break
		}
	}
	if skipped > 0 {
		lgr.Printf("[WARN] skipped %d malformed records from %s", skipped, endpoint)
	}
	return records, nil
}

// get performs one API request with retries and maps failures to the
// upstream error taxonomy
func (t *TMDB) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("api_key", t.apiKey)
	params.Set("language", t.language)
	reqURL := t.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamRateLimited, endpoint)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrUpstreamUnavailable, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024)) // misbehaving upstream guard
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}
	return body, nil
}

// tmdbResult is the wire shape shared by discover, trending and search responses
type tmdbResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`            // movies
	Name             string  `json:"name"`             // series
	ReleaseDate      string  `json:"release_date"`     // movies
	FirstAirDate     string  `json:"first_air_date"`   // series
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
	PosterPath       string  `json:"poster_path"`
	Overview         string  `json:"overview"`
}

func (r tmdbResult) record(kind domain.Kind) (domain.ProviderRecord, bool) {
	title := r.Title
	date := r.ReleaseDate
	if kind != domain.KindMovie {
		title = r.Name
		date = r.FirstAirDate
	}
	if r.ID == 0 || title == "" {
		return domain.ProviderRecord{}, false
	}
	released, _ := time.Parse("2006-01-02", date)
	return domain.ProviderRecord{
		ID:          strconv.Itoa(r.ID),
		Title:       title,
		Year:        yearOf(date),
		Released:    released,
		Popularity:  r.Popularity,
		Rating:      r.VoteAverage,
		Votes:       r.VoteCount,
		GenreIDs:    r.GenreIDs,
		PosterPath:  r.PosterPath,
		Description: r.Overview,
		Language:    r.OriginalLanguage,
	}, true
}

// yearOf extracts the year from a YYYY-MM-DD provider date
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// PosterURL builds the CDN url for a poster path, empty for no path
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBase + path
}

// BackdropURL builds the CDN url for a backdrop path, empty for no path
func BackdropURL(path string) string {
	if path == "" {
		return ""
	}
	return backdropBase + path
}

func (q DiscoverQuery) values() url.Values {
	params := url.Values{}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if len(q.GenreIDs) > 0 {
		ids := make([]string, len(q.GenreIDs))
		for i, id := range q.GenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	if q.MinVotes > 0 {
		params.Set("vote_count.gte", strconv.Itoa(q.MinVotes))
	}
	if q.Language != "" {
		params.Set("with_original_language", q.Language)
	}
	if q.Page > 1 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	return params
}
