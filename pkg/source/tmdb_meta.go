package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/umputun/mediascope/pkg/domain"
)

// FindByIMDB resolves an imdb id (tt...) to the provider's own id for the
// given kind. Returns empty string when the provider doesn't know the id.
func (t *TMDB) FindByIMDB(ctx context.Context, imdbID string, kind domain.Kind) (string, error) {
	params := url.Values{}
	params.Set("external_source", "imdb_id")
	body, err := t.get(ctx, "find/"+imdbID, params)
	if err != nil {
		return "", err
	}

	var resp struct {
		MovieResults []struct {
			ID int `json:"id"`
		} `json:"movie_results"`
		TVResults []struct {
			ID int `json:"id"`
		} `json:"tv_results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode find response: %v", domain.ErrUpstreamUnavailable, err)
	}

	if kind == domain.KindMovie && len(resp.MovieResults) > 0 {
		return strconv.Itoa(resp.MovieResults[0].ID), nil
	}
	if kind != domain.KindMovie && len(resp.TVResults) > 0 {
		return strconv.Itoa(resp.TVResults[0].ID), nil
	}
	return "", nil
}

// MovieMeta fetches detailed movie metadata by provider id
func (t *TMDB) MovieMeta(ctx context.Context, tmdbID string) (*domain.Meta, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits")
	body, err := t.get(ctx, "movie/"+tmdbID, params)
	if err != nil {
		return nil, err
	}

	var d tmdbDetails
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("%w: decode movie details: %v", domain.ErrUpstreamUnavailable, err)
	}

	meta := d.meta(domain.KindMovie)
	meta.ID = preferIMDB(d.IMDBID, tmdbID)
	meta.Name = d.Title
	if len(d.ReleaseDate) >= 4 {
		meta.ReleaseInfo = d.ReleaseDate[:4]
	}
	if d.Runtime > 0 {
		meta.Runtime = fmt.Sprintf("%d min", d.Runtime)
	}
	meta.Director = d.director()
	return meta, nil
}

// SeriesMeta fetches detailed series metadata by provider id
func (t *TMDB) SeriesMeta(ctx context.Context, tmdbID string) (*domain.Meta, error) {
	params := url.Values{}
	params.Set("append_to_response", "external_ids")
	body, err := t.get(ctx, "tv/"+tmdbID, params)
	if err != nil {
		return nil, err
	}

	var d tmdbDetails
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("%w: decode series details: %v", domain.ErrUpstreamUnavailable, err)
	}

	meta := d.meta(domain.KindSeries)
	meta.ID = preferIMDB(d.ExternalIDs.IMDBID, tmdbID)
	meta.Name = d.Name
	meta.Status = d.Status
	meta.TotalSeasons = d.NumberOfSeasons
	if len(d.OriginCountry) > 0 {
		meta.Country = d.OriginCountry[0]
	}
	if len(d.FirstAirDate) >= 4 {
		last := ""
		if !d.InProduction && len(d.LastAirDate) >= 4 {
			last = d.LastAirDate[:4]
		}
		meta.ReleaseInfo = fmt.Sprintf("%s - %s", d.FirstAirDate[:4], last)
	}
	if len(d.EpisodeRunTime) > 0 {
		meta.Runtime = fmt.Sprintf("%d min", d.EpisodeRunTime[0])
	}
	return meta, nil
}

// tmdbDetails is the wire shape of movie/{id} and tv/{id} responses
type tmdbDetails struct {
	ID              int     `json:"id"`
	IMDBID          string  `json:"imdb_id"`
	Title           string  `json:"title"`
	Name            string  `json:"name"`
	Overview        string  `json:"overview"`
	PosterPath      string  `json:"poster_path"`
	BackdropPath    string  `json:"backdrop_path"`
	ReleaseDate     string  `json:"release_date"`
	FirstAirDate    string  `json:"first_air_date"`
	LastAirDate     string  `json:"last_air_date"`
	InProduction    bool    `json:"in_production"`
	VoteAverage     float64 `json:"vote_average"`
	Runtime         int     `json:"runtime"`
	EpisodeRunTime  []int   `json:"episode_run_time"`
	NumberOfSeasons int     `json:"number_of_seasons"`
	Status          string  `json:"status"`
	OriginCountry   []string `json:"origin_country"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	ExternalIDs struct {
		IMDBID string `json:"imdb_id"`
	} `json:"external_ids"`
}

func (d tmdbDetails) meta(kind domain.Kind) *domain.Meta {
	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}
	meta := &domain.Meta{
		Kind:        kind,
		PosterShape: "regular",
		PosterURL:   PosterURL(d.PosterPath),
		Background:  BackdropURL(d.BackdropPath),
		Description: d.Overview,
		Genres:      genres,
	}
	if d.VoteAverage > 0 {
		meta.IMDBRating = fmt.Sprintf("%.1f", d.VoteAverage)
	}
	return meta
}

func (d tmdbDetails) director() string {
	for _, c := range d.Credits.Crew {
		if c.Job == "Director" {
			return c.Name
		}
	}
	return ""
}

// preferIMDB picks the imdb id when known, else a provider-qualified fallback
func preferIMDB(imdbID, tmdbID string) string {
	if imdbID != "" {
		return imdbID
	}
	return "tmdb:" + tmdbID
}
