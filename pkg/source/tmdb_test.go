package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/mediascope/pkg/domain"
)

func TestTMDB_DiscoverMovies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "popularity.desc", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "28,12", r.URL.Query().Get("with_genres"))
		assert.Equal(t, "100", r.URL.Query().Get("vote_count.gte"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results": [
			{"id": 603, "title": "The Matrix", "release_date": "1999-03-31", "original_language": "en",
			 "popularity": 85.5, "vote_average": 8.2, "vote_count": 25000, "genre_ids": [28, 878],
			 "poster_path": "/matrix.jpg", "overview": "A hacker learns the truth."},
			{"id": 0, "title": "Broken Entry"},
			{"id": 604, "title": "", "release_date": "2003-05-15"}
		]}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})
	recs, err := client.DiscoverMovies(context.Background(), DiscoverQuery{
		SortBy:   "popularity.desc",
		GenreIDs: []int{28, 12},
		MinVotes: 100,
	})
	require.NoError(t, err)

	// malformed entries skipped, valid one converted fully
	require.Len(t, recs, 1)
	assert.Equal(t, "603", recs[0].ID)
	assert.Equal(t, "The Matrix", recs[0].Title)
	assert.Equal(t, 1999, recs[0].Year)
	assert.Equal(t, time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC), recs[0].Released)
	assert.Equal(t, "en", recs[0].Language)
	assert.InDelta(t, 8.2, recs[0].Rating, 0.001)
	assert.Equal(t, 25000, recs[0].Votes)
}

func TestTMDB_SearchSeries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "silo", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"results": [{"id": 125988, "name": "Silo", "first_air_date": "2023-05-04"}]}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})
	recs, err := client.SearchSeries(context.Background(), "silo")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Silo", recs[0].Title)
	assert.Equal(t, 2023, recs[0].Year)
}

func TestTMDB_RateLimited(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key", Retries: 1})
	_, err := client.TrendingMovies(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamRateLimited)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2)) // retried before giving up
}

func TestTMDB_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key", Retries: 1})
	_, err := client.TrendingMovies(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestTMDB_RetryOnTransientFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"results": [{"id": 1, "title": "Recovered", "release_date": "2024-01-01"}]}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key", Retries: 2})
	recs, err := client.TrendingMovies(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Recovered", recs[0].Title)
}

func TestTMDB_MaxResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": [
			{"id": 1, "title": "One", "release_date": "2024-01-01"},
			{"id": 2, "title": "Two", "release_date": "2024-01-02"},
			{"id": 3, "title": "Three", "release_date": "2024-01-03"}
		]}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key", MaxResults: 2})
	recs, err := client.TrendingMovies(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestTMDB_SeriesExternalIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/125988/external_ids", r.URL.Path)
		fmt.Fprint(w, `{"imdb_id": "tt14688458"}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})
	imdbID, err := client.SeriesExternalIDs(context.Background(), "125988")
	require.NoError(t, err)
	assert.Equal(t, "tt14688458", imdbID)
}

func TestTMDB_FindByIMDB(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/find/tt0133093", r.URL.Path)
		assert.Equal(t, "imdb_id", r.URL.Query().Get("external_source"))
		fmt.Fprint(w, `{"movie_results": [{"id": 603}], "tv_results": []}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})

	id, err := client.FindByIMDB(context.Background(), "tt0133093", domain.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, "603", id)

	// same response has no tv results
	id, err = client.FindByIMDB(context.Background(), "tt0133093", domain.KindSeries)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestTMDB_MovieMeta(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "credits", r.URL.Query().Get("append_to_response"))
		fmt.Fprint(w, `{
			"id": 603, "imdb_id": "tt0133093", "title": "The Matrix",
			"overview": "A hacker learns the truth.", "poster_path": "/matrix.jpg",
			"backdrop_path": "/matrix-bg.jpg", "release_date": "1999-03-31",
			"vote_average": 8.2, "runtime": 136,
			"genres": [{"name": "Action"}, {"name": "Science Fiction"}],
			"credits": {"crew": [
				{"name": "Lana Wachowski", "job": "Director"},
				{"name": "Someone Else", "job": "Producer"}
			]}
		}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})
	meta, err := client.MovieMeta(context.Background(), "603")
	require.NoError(t, err)

	assert.Equal(t, "tt0133093", meta.ID)
	assert.Equal(t, "The Matrix", meta.Name)
	assert.Equal(t, "1999", meta.ReleaseInfo)
	assert.Equal(t, "136 min", meta.Runtime)
	assert.Equal(t, "Lana Wachowski", meta.Director)
	assert.Equal(t, "8.2", meta.IMDBRating)
	assert.Equal(t, []string{"Action", "Science Fiction"}, meta.Genres)
	assert.Contains(t, meta.PosterURL, "/matrix.jpg")
	assert.Contains(t, meta.Background, "/matrix-bg.jpg")
}

func TestTMDB_SeriesMeta(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/125988", r.URL.Path)
		fmt.Fprint(w, `{
			"id": 125988, "name": "Silo", "first_air_date": "2023-05-04",
			"last_air_date": "2024-12-15", "in_production": true,
			"number_of_seasons": 2, "status": "Returning Series",
			"origin_country": ["US"], "episode_run_time": [55],
			"external_ids": {"imdb_id": "tt14688458"}
		}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})
	meta, err := client.SeriesMeta(context.Background(), "125988")
	require.NoError(t, err)

	assert.Equal(t, "tt14688458", meta.ID)
	assert.Equal(t, "Silo", meta.Name)
	assert.Equal(t, "2023 - ", meta.ReleaseInfo) // still in production, open range
	assert.Equal(t, 2, meta.TotalSeasons)
	assert.Equal(t, "US", meta.Country)
	assert.Equal(t, "55 min", meta.Runtime)
}

func TestTMDB_MetaFallbackID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 999, "title": "No IMDB Entry", "release_date": "2024-06-01"}`)
	}))
	defer ts.Close()

	client := NewTMDB(TMDBParams{BaseURL: ts.URL, APIKey: "test-key"})
	meta, err := client.MovieMeta(context.Background(), "999")
	require.NoError(t, err)
	assert.Equal(t, "tmdb:999", meta.ID)
}
