package domain

import "time"

// ProviderRecord is a candidate from the metadata provider's index,
// used by the matcher to reconcile feed-sourced items.
type ProviderRecord struct {
	ID          string // provider-native id, e.g. tmdb numeric id as string
	IMDBID      string // set when known
	Title       string
	Year        int       // 0 when unknown
	Released    time.Time // release or first-air date, zero when unknown
	Popularity  float64
	Rating      float64
	Votes       int
	GenreIDs    []int
	PosterPath  string
	Description string
	Language    string // original language code
}

// Decision is the outcome of one matching pass
type Decision string

// match decisions
const (
	DecisionMatched   Decision = "matched"
	DecisionUnmatched Decision = "unmatched"
	DecisionAmbiguous Decision = "ambiguous" // retained for diagnostics, excluded from catalogs
)

// MatchResult ties a raw item to the best provider candidate. Created once
// per item per matching pass, never mutated afterward.
type MatchResult struct {
	Raw        RawItem
	Matched    *ProviderRecord // nil unless Decision is DecisionMatched
	Confidence float64         // in [0,1]
	Decision   Decision
}
