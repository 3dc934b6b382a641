package catalog

import "github.com/umputun/mediascope/pkg/domain"

// catalog variant ids, part of the addon's public surface
const (
	CatalogLatestTV       = "latest_tv_shows"
	CatalogLatestMovies   = "latest_movie_releases"
	CatalogDubbedAnime    = "latest_dubbed_anime"
	CatalogTrendingMovies = "top_trending_movies"
	CatalogTrendingSeries = "top_trending_tv_shows"
	CatalogRecommended    = "recommended_content"
)

// Variant describes one catalog for the manifest
type Variant struct {
	ID     string
	Kind   domain.Kind
	Name   string
	Genres []string // selectable genre filter values, empty disables the filter
}

// genre filter values offered per media kind, fixed by the provider taxonomy
var (
	movieGenreList = []string{
		"Action", "Adventure", "Animation", "Comedy", "Crime", "Documentary",
		"Drama", "Family", "Fantasy", "History", "Horror", "Music", "Mystery",
		"Romance", "Science Fiction", "TV Movie", "Thriller", "War", "Western",
	}
	tvGenreList = []string{
		"Action & Adventure", "Animation", "Comedy", "Crime", "Documentary",
		"Drama", "Family", "Kids", "Mystery", "News", "Reality",
		"Sci-Fi & Fantasy", "Soap", "Talk", "War & Politics", "Western",
	}
	animeGenreList = []string{
		"Action", "Adventure", "Comedy", "Drama", "Fantasy", "Mecha", "Music",
		"Mystery", "Romance", "Sci-Fi", "Slice of Life", "Sports", "Supernatural", "Thriller",
	}
)

// Variants lists all catalogs in manifest order
func Variants() []Variant {
	return []Variant{
		{ID: CatalogLatestTV, Kind: domain.KindSeries, Name: "Latest TV Shows", Genres: tvGenreList},
		{ID: CatalogLatestMovies, Kind: domain.KindMovie, Name: "Latest Movie Releases", Genres: movieGenreList},
		{ID: CatalogDubbedAnime, Kind: domain.KindAnime, Name: "Latest Dubbed Anime", Genres: animeGenreList},
		{ID: CatalogTrendingMovies, Kind: domain.KindMovie, Name: "Top Trending Movies", Genres: movieGenreList},
		{ID: CatalogTrendingSeries, Kind: domain.KindSeries, Name: "Top Trending TV Shows", Genres: tvGenreList},
		{ID: CatalogRecommended, Kind: domain.KindMovie, Name: "Recommended Content", Genres: movieGenreList},
	}
}

// Lookup finds a variant by id
func Lookup(id string) (Variant, bool) {
	for _, v := range Variants() {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}
