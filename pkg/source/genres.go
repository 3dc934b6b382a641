package source

import "github.com/umputun/mediascope/pkg/domain"

// provider genre ids are stable but differ between movie and tv catalogs
var movieGenres = map[string]int{
	"Action": 28, "Adventure": 12, "Animation": 16, "Comedy": 35, "Crime": 80,
	"Documentary": 99, "Drama": 18, "Family": 10751, "Fantasy": 14,
	"History": 36, "Horror": 27, "Music": 10402, "Mystery": 9648,
	"Romance": 10749, "Science Fiction": 878, "TV Movie": 10770, "Thriller": 53,
	"War": 10752, "Western": 37,
}

var seriesGenres = map[string]int{
	"Action & Adventure": 10759, "Animation": 16, "Comedy": 35, "Crime": 80,
	"Documentary": 99, "Drama": 18, "Family": 10751, "Kids": 10762,
	"Mystery": 9648, "News": 10763, "Reality": 10764, "Sci-Fi & Fantasy": 10765,
	"Soap": 10766, "Talk": 10767, "War & Politics": 10768, "Western": 37,
}

var movieGenreNames = invert(movieGenres)
var seriesGenreNames = invert(seriesGenres)

// GenreID maps a genre name to its provider id for the given kind
func GenreID(name string, kind domain.Kind) (int, bool) {
	if kind == domain.KindMovie {
		id, ok := movieGenres[name]
		return id, ok
	}
	id, ok := seriesGenres[name]
	return id, ok
}

// GenreNames maps provider genre ids to names, dropping unknown ids
func GenreNames(ids []int, kind domain.Kind) []string {
	lookup := seriesGenreNames
	if kind == domain.KindMovie {
		lookup = movieGenreNames
	}
	var names []string
	for _, id := range ids {
		if name, ok := lookup[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func invert(m map[string]int) map[int]string {
	out := make(map[int]string, len(m))
	for name, id := range m {
		out[id] = name
	}
	return out
}
