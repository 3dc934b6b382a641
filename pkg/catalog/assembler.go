// Package catalog assembles filterable catalog listings from the upstream
// sources: provider-native variants map discover/trending responses directly,
// the feed-backed variant reconciles release feed items against the metadata
// provider through the matcher.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/mediascope/pkg/domain"
	"github.com/umputun/mediascope/pkg/normalize"
	"github.com/umputun/mediascope/pkg/source"
)

// MetadataClient is the metadata provider side of the assembler
type MetadataClient interface {
	DiscoverMovies(ctx context.Context, q source.DiscoverQuery) ([]domain.ProviderRecord, error)
	DiscoverSeries(ctx context.Context, q source.DiscoverQuery) ([]domain.ProviderRecord, error)
	TrendingMovies(ctx context.Context) ([]domain.ProviderRecord, error)
	TrendingSeries(ctx context.Context) ([]domain.ProviderRecord, error)
	SearchSeries(ctx context.Context, query string) ([]domain.ProviderRecord, error)
	SeriesExternalIDs(ctx context.Context, seriesID string) (string, error)
}

// ReleaseClient supplies raw items from the TV release feed
type ReleaseClient interface {
	Fetch(ctx context.Context) ([]domain.RawItem, int, error)
}

// TrendingClient supplies raw items from the trending provider
type TrendingClient interface {
	TrendingMovies(ctx context.Context) ([]domain.RawItem, int, error)
}

// Matcher reconciles a raw item against provider candidates
type Matcher interface {
	Match(raw domain.RawItem, candidates []domain.ProviderRecord) (domain.MatchResult, error)
}

// Filters narrows a catalog request
type Filters struct {
	Genre string
	Year  int
	Skip  int
}

// Params holds assembler dependencies and limits
type Params struct {
	Metadata MetadataClient
	Releases ReleaseClient
	Trending TrendingClient // optional, nil disables the trakt merge

	Matcher Matcher

	PageSize            int
	TrendingLimit       int
	LatestWindowDays    int
	LatestMinVotes      int
	AnimeMinVotes       int
	AnimeGenre          string // provider genre marking likely-dubbed titles
	AnimeLanguage       string // original language filter for the anime variant
	RecommendedMinVotes int
	FeedScanLimit       int
}

// Assembler builds catalog variants. It holds no mutable state, all methods
// are safe for concurrent use.
type Assembler struct {
	metadata MetadataClient
	releases ReleaseClient
	trending TrendingClient
	matcher  Matcher

	pageSize            int
	trendingLimit       int
	latestWindow        time.Duration
	latestMinVotes      int
	animeMinVotes       int
	animeGenre          string
	animeLanguage       string
	recommendedMinVotes int
	feedScanLimit       int

	now func() time.Time
}

// New creates an assembler, filling zero limits with defaults
func New(p Params) *Assembler {
	if p.PageSize == 0 {
		p.PageSize = 20
	}
	if p.TrendingLimit == 0 {
		p.TrendingLimit = 20
	}
	if p.LatestWindowDays == 0 {
		p.LatestWindowDays = 90
	}
	if p.LatestMinVotes == 0 {
		p.LatestMinVotes = 100
	}
	if p.AnimeMinVotes == 0 {
		p.AnimeMinVotes = 100
	}
	if p.AnimeGenre == "" {
		p.AnimeGenre = "Animation"
	}
	if p.AnimeLanguage == "" {
		p.AnimeLanguage = "ja"
	}
	if p.RecommendedMinVotes == 0 {
		p.RecommendedMinVotes = 500
	}
	if p.FeedScanLimit == 0 {
		p.FeedScanLimit = 50
	}
	return &Assembler{
		metadata:            p.Metadata,
		releases:            p.Releases,
		trending:            p.Trending,
		matcher:             p.Matcher,
		pageSize:            p.PageSize,
		trendingLimit:       p.TrendingLimit,
		latestWindow:        time.Duration(p.LatestWindowDays) * 24 * time.Hour,
		latestMinVotes:      p.LatestMinVotes,
		animeMinVotes:       p.AnimeMinVotes,
		animeGenre:          p.AnimeGenre,
		animeLanguage:       p.AnimeLanguage,
		recommendedMinVotes: p.RecommendedMinVotes,
		feedScanLimit:       p.FeedScanLimit,
		now:                 time.Now,
	}
}

// Build assembles one catalog variant. On partial source failure it returns a
// degraded catalog; only when every required source fails does it return
// ErrCatalogUnavailable.
func (a *Assembler) Build(ctx context.Context, catalogID string, f Filters) (*domain.Catalog, error) {
	switch catalogID {
	case CatalogLatestTV:
		return a.buildLatestTV(ctx, f)
	case CatalogLatestMovies:
		return a.buildLatestMovies(ctx, f)
	case CatalogDubbedAnime:
		return a.buildAnime(ctx, f)
	case CatalogTrendingMovies:
		return a.buildTrendingMovies(ctx, f)
	case CatalogTrendingSeries:
		return a.buildTrendingSeries(ctx, f)
	case CatalogRecommended:
		return a.buildRecommended(ctx, f)
	default:
		return nil, fmt.Errorf("unknown catalog %q", catalogID)
	}
}

// buildLatestTV reconciles release feed items against the metadata provider.
// Unmatched items are kept with minimal fields (explicit variant policy), so
// the catalog degrades to feed-only data when the provider is unreachable.
func (a *Assembler) buildLatestTV(ctx context.Context, f Filters) (*domain.Catalog, error) {
	items, skipped, err := a.releases.Fetch(ctx)
	if err != nil {
		// the feed is the only supplier of raw items for this variant
		return nil, fmt.Errorf("%w: release feed failed: %v", domain.ErrCatalogUnavailable, err)
	}

	cat := &domain.Catalog{Skipped: skipped}
	seen := map[string]bool{}
	scanned := 0

	for _, raw := range items {
		if scanned >= a.feedScanLimit+f.Skip {
			break
		}
		if !likelyEnglish(raw.Title) {
			continue
		}

		norm := normalize.Normalize(raw.Title)
		if norm.Canonical == "" || seen[norm.Canonical] {
			continue
		}
		seen[norm.Canonical] = true
		scanned++

		candidates, searchErr := a.metadata.SearchSeries(ctx, norm.Canonical)
		if searchErr != nil {
			if !cat.Degraded {
				lgr.Printf("[WARN] series search failed, continuing with feed data only: %v", searchErr)
			}
			cat.Degraded = true
			cat.Errors = append(cat.Errors, searchErr.Error())
			candidates = nil
		}

		res, matchErr := a.matcher.Match(raw, candidates)
		if matchErr != nil {
			cat.Skipped++
			continue
		}

		switch res.Decision {
		case domain.DecisionMatched:
			entry := a.entryFromRecord(*res.Matched, domain.KindSeries)
			if imdb, idErr := a.metadata.SeriesExternalIDs(ctx, res.Matched.ID); idErr == nil && imdb != "" {
				entry.ID = imdb
			}
			entry.Published = raw.Published
			cat.Entries = append(cat.Entries, entry)
		case domain.DecisionAmbiguous:
			lgr.Printf("[DEBUG] ambiguous match for %q (confidence %.2f), dropped", raw.Title, res.Confidence)
		case domain.DecisionUnmatched:
			cat.Entries = append(cat.Entries, minimalEntry(raw, norm))
		}
	}

	cat.Entries = applyFilters(cat.Entries, f)
	cat.Entries = dedupe(cat.Entries)
	sortLatest(cat.Entries)
	cat.Entries = paginate(cat.Entries, f.Skip, a.pageSize)
	return cat, nil
}

// buildLatestMovies serves recent popular movies straight from the provider
func (a *Assembler) buildLatestMovies(ctx context.Context, f Filters) (*domain.Catalog, error) {
	q := source.DiscoverQuery{
		SortBy:       "popularity.desc",
		ReleaseAfter: a.now().Add(-a.latestWindow).Format("2006-01-02"),
		MinVotes:     a.latestMinVotes,
		Year:         f.Year,
		Page:         a.page(f.Skip),
	}
	if id, ok := source.GenreID(f.Genre, domain.KindMovie); ok {
		q.GenreIDs = []int{id}
	}

	recs, err := a.metadata.DiscoverMovies(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: discover movies failed: %v", domain.ErrCatalogUnavailable, err)
	}

	cat := &domain.Catalog{}
	for i, rec := range recs {
		if rec.Language != "en" { // english-released only, as the variant defines
			continue
		}
		entry := a.entryFromRecord(rec, domain.KindMovie)
		entry.PopularityRank = i + 1
		cat.Entries = append(cat.Entries, entry)
	}

	cat.Entries = applyFilters(cat.Entries, f)
	cat.Entries = dedupe(cat.Entries)
	sortLatest(cat.Entries)
	cat.Entries = truncate(cat.Entries, a.pageSize)
	return cat, nil
}

// buildAnime serves recent series passing the likely-dubbed predicate:
// the configured genre plus original-language filter
func (a *Assembler) buildAnime(ctx context.Context, f Filters) (*domain.Catalog, error) {
	genreIDs := []int{}
	if id, ok := source.GenreID(a.animeGenre, domain.KindSeries); ok {
		genreIDs = append(genreIDs, id)
	}
	if id, ok := source.GenreID(f.Genre, domain.KindSeries); ok {
		genreIDs = append(genreIDs, id)
	}

	q := source.DiscoverQuery{
		SortBy:   "first_air_date.desc",
		GenreIDs: genreIDs,
		Language: a.animeLanguage,
		Year:     f.Year,
		Page:     a.page(f.Skip),
	}
	recs, err := a.metadata.DiscoverSeries(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: discover anime failed: %v", domain.ErrCatalogUnavailable, err)
	}

	cat := &domain.Catalog{}
	for i, rec := range recs {
		if rec.Votes <= a.animeMinVotes {
			continue
		}
		entry := a.entryFromRecord(rec, domain.KindAnime)
		entry.Title += " (Dub)"
		entry.PopularityRank = i + 1
		cat.Entries = append(cat.Entries, entry)
	}

	cat.Entries = dedupe(cat.Entries)
	sortLatest(cat.Entries)
	cat.Entries = truncate(cat.Entries, a.pageSize)
	return cat, nil
}

// buildTrendingMovies merges provider trending with the trending feed when
// configured. One source failing degrades the catalog, both failing kills it.
func (a *Assembler) buildTrendingMovies(ctx context.Context, f Filters) (*domain.Catalog, error) {
	var (
		provRecs  []domain.ProviderRecord
		feedItems []domain.RawItem
		provErr   error
		feedErr   error
		feedSkip  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		provRecs, provErr = a.metadata.TrendingMovies(gctx)
		return nil
	})
	if a.trending != nil {
		g.Go(func() error {
			feedItems, feedSkip, feedErr = a.trending.TrendingMovies(gctx)
			return nil
		})
	}
	_ = g.Wait() // fetch errors collected per source, never propagated here

	if provErr != nil && (a.trending == nil || feedErr != nil) {
		return nil, fmt.Errorf("%w: all trending sources failed: %v", domain.ErrCatalogUnavailable, errors.Join(provErr, feedErr))
	}

	cat := &domain.Catalog{Skipped: feedSkip}
	for _, err := range []error{provErr, feedErr} {
		if err != nil {
			cat.Degraded = true
			cat.Errors = append(cat.Errors, err.Error())
			lgr.Printf("[WARN] trending source failed, serving partial catalog: %v", err)
		}
	}

	rank := 0
	for _, rec := range provRecs {
		if rec.Language != "en" {
			continue
		}
		rank++
		entry := a.entryFromRecord(rec, domain.KindMovie)
		entry.PopularityRank = rank
		cat.Entries = append(cat.Entries, entry)
	}
	for _, raw := range feedItems {
		rank++
		entry := minimalEntry(raw, normalize.Normalize(raw.Title))
		entry.PopularityRank = rank
		cat.Entries = append(cat.Entries, entry)
	}

	cat.Entries = applyFilters(cat.Entries, f)
	cat.Entries = dedupe(cat.Entries)
	sortTrending(cat.Entries)
	cat.Entries = truncate(cat.Entries, a.trendingLimit)
	return cat, nil
}

// buildTrendingSeries serves provider trending series
func (a *Assembler) buildTrendingSeries(ctx context.Context, f Filters) (*domain.Catalog, error) {
	recs, err := a.metadata.TrendingSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: trending series failed: %v", domain.ErrCatalogUnavailable, err)
	}

	cat := &domain.Catalog{}
	rank := 0
	for _, rec := range recs {
		if rec.Language != "en" {
			continue
		}
		rank++
		entry := a.entryFromRecord(rec, domain.KindSeries)
		entry.PopularityRank = rank
		cat.Entries = append(cat.Entries, entry)
	}

	cat.Entries = applyFilters(cat.Entries, f)
	cat.Entries = dedupe(cat.Entries)
	sortTrending(cat.Entries)
	cat.Entries = truncate(cat.Entries, a.trendingLimit)
	return cat, nil
}

// buildRecommended serves highly-rated popular movies
func (a *Assembler) buildRecommended(ctx context.Context, f Filters) (*domain.Catalog, error) {
	q := source.DiscoverQuery{
		SortBy:   "vote_average.desc",
		MinVotes: a.recommendedMinVotes,
		Language: "en",
		Year:     f.Year,
		Page:     a.page(f.Skip),
	}
	if id, ok := source.GenreID(f.Genre, domain.KindMovie); ok {
		q.GenreIDs = []int{id}
	}

	recs, err := a.metadata.DiscoverMovies(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: discover recommended failed: %v", domain.ErrCatalogUnavailable, err)
	}

	cat := &domain.Catalog{}
	for i, rec := range recs {
		entry := a.entryFromRecord(rec, domain.KindMovie)
		entry.PopularityRank = i + 1
		cat.Entries = append(cat.Entries, entry)
	}

	cat.Entries = applyFilters(cat.Entries, f)
	cat.Entries = dedupe(cat.Entries)
	sortRecommended(cat.Entries)
	cat.Entries = truncate(cat.Entries, a.pageSize)
	return cat, nil
}

// entryFromRecord converts a provider record into a catalog entry. The id
// prefers the provider's imdb id, falling back to a provider-qualified id.
func (a *Assembler) entryFromRecord(rec domain.ProviderRecord, kind domain.Kind) domain.CatalogEntry {
	id := "tmdb:" + rec.ID
	if rec.IMDBID != "" {
		id = rec.IMDBID
	}
	genreKind := kind
	if kind == domain.KindAnime {
		genreKind = domain.KindSeries // anime shares the tv genre id space
	}
	entry := domain.CatalogEntry{
		ID:          id,
		Kind:        kind,
		Title:       rec.Title,
		Year:        rec.Year,
		PosterURL:   source.PosterURL(rec.PosterPath),
		Description: rec.Description,
		Genres:      source.GenreNames(rec.GenreIDs, genreKind),
		Rating:      rec.Rating,
		Popularity:  rec.Popularity,
		Published:   rec.Released,
	}
	if rec.Year != 0 {
		entry.ReleaseInfo = fmt.Sprintf("%d", rec.Year)
	}
	return entry
}

// minimalEntry builds the reduced entry emitted for unmatched feed items:
// title and year only, under a source-qualified id
func minimalEntry(raw domain.RawItem, norm normalize.Title) domain.CatalogEntry {
	year := raw.Year
	if year == 0 {
		year = norm.Year
	}
	id := raw.IMDBID
	if id == "" {
		id = string(raw.Source) + ":" + raw.SourceID
	}
	entry := domain.CatalogEntry{
		ID:          id,
		Kind:        raw.Kind,
		Title:       normalize.Display(raw.Title),
		Year:        year,
		Description: raw.Description,
		Popularity:  raw.Popularity,
		Published:   raw.Published,
	}
	if year != 0 {
		entry.ReleaseInfo = fmt.Sprintf("%d", year)
	}
	return entry
}

// applyFilters keeps entries matching the requested genre and year
func applyFilters(entries []domain.CatalogEntry, f Filters) []domain.CatalogEntry {
	if f.Genre == "" && f.Year == 0 {
		return entries
	}
	out := entries[:0]
	for _, e := range entries {
		if f.Year != 0 && e.Year != f.Year {
			continue
		}
		if f.Genre != "" && !hasGenre(e, f.Genre) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasGenre(e domain.CatalogEntry, genre string) bool {
	for _, g := range e.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

// dedupe drops repeated entries. The key prefers the entry id; entries that
// share a normalized title and year are also considered duplicates, which
// catches the same title arriving under different id schemes.
func dedupe(entries []domain.CatalogEntry) []domain.CatalogEntry {
	seenID := map[string]bool{}
	seenTitle := map[string]bool{}
	out := entries[:0]
	for _, e := range entries {
		titleKey := fmt.Sprintf("%s|%d", normalize.Normalize(e.Title).Canonical, e.Year)
		if seenID[e.ID] || seenTitle[titleKey] {
			continue
		}
		seenID[e.ID] = true
		seenTitle[titleKey] = true
		out = append(out, e)
	}
	return out
}

// sortLatest orders by publish date descending, ties by popularity rank
// ascending with unranked entries last
func sortLatest(entries []domain.CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Published.Equal(entries[j].Published) {
			return entries[i].Published.After(entries[j].Published)
		}
		ri, rj := rankOrLast(entries[i].PopularityRank), rankOrLast(entries[j].PopularityRank)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Popularity > entries[j].Popularity
	})
}

func rankOrLast(rank int) int {
	if rank == 0 {
		return math.MaxInt
	}
	return rank
}

// sortTrending orders by popularity rank ascending, rank 1 first
func sortTrending(entries []domain.CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PopularityRank < entries[j].PopularityRank
	})
}

// sortRecommended orders by rating descending, ties by popularity rank ascending
func sortRecommended(entries []domain.CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].PopularityRank < entries[j].PopularityRank
	})
}

// paginate applies skip and page size, after sort and dedup
func paginate(entries []domain.CatalogEntry, skip, size int) []domain.CatalogEntry {
	if skip >= len(entries) {
		return nil
	}
	return truncate(entries[skip:], size)
}

func truncate(entries []domain.CatalogEntry, limit int) []domain.CatalogEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

// page maps an absolute skip offset to a provider page number
func (a *Assembler) page(skip int) int {
	return skip/a.pageSize + 1
}

var nonEnglishRe = regexp.MustCompile(`(?i)\b(spanish|french|german|italian|russian|korean|japanese)\b`)

// likelyEnglish applies the feed language heuristic: explicit "english" tag
// always passes, otherwise any other language tag fails the item
func likelyEnglish(title string) bool {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "english") {
		return true
	}
	return !nonEnglishRe.MatchString(title)
}
