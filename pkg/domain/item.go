package domain

import "time"

// Kind is the media type of an item
type Kind string

// media kinds, matching the addon protocol type names
const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
	KindAnime  Kind = "anime"
)

// Source identifies the upstream an item came from
type Source string

// known upstreams
const (
	SourceTMDB  Source = "tmdb"
	SourceEZTV  Source = "eztv"
	SourceTrakt Source = "trakt"
)

// RawItem is an unreconciled record as received from one upstream.
// Immutable once fetched, source-specific shapes never leak past the client.
type RawItem struct {
	SourceID    string // unique within its source
	Source      Source
	Title       string // as published by the upstream
	Year        int    // 0 when unknown
	Kind        Kind
	Description string
	Published   time.Time // for feed-sourced items
	IMDBID      string    // set when the upstream knows it (e.g. trakt)
	Popularity  float64   // provider-native popularity, 0 when unknown
}

// CatalogEntry is the externally-visible unit of a catalog response,
// read-only after assembly.
type CatalogEntry struct {
	ID             string   `json:"id"`
	Kind           Kind     `json:"type"`
	Title          string   `json:"name"`
	Year           int      `json:"-"`
	ReleaseInfo    string   `json:"releaseInfo,omitempty"`
	PosterURL      string   `json:"poster,omitempty"`
	Description    string   `json:"description,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Rating         float64   `json:"-"`
	Popularity     float64   `json:"-"`      // provider-native popularity value
	PopularityRank int       `json:"-"`      // position in provider order, 1-based
	Published      time.Time `json:"-"`
}

// Catalog is an assembled catalog page
type Catalog struct {
	Entries  []CatalogEntry
	Degraded bool     // some required sources failed
	Skipped  int      // malformed upstream records dropped during assembly
	Errors   []string // per-source failure messages, for diagnostics
}
