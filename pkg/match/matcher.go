// Package match reconciles feed-sourced items against metadata provider
// candidates with a scored, reproducible selection instead of a "first search
// result wins" guess.
package match

import (
	"errors"
	"math"
	"strings"

	"github.com/umputun/mediascope/pkg/domain"
	"github.com/umputun/mediascope/pkg/normalize"
)

// ErrNoTitle indicates the raw item is missing its title, a programmer error
// at the call site rather than a bad upstream record.
var ErrNoTitle = errors.New("raw item has no title")

// Config holds matching thresholds. Values are tunable, not constants: raising
// High trades recall for precision without touching the algorithm.
type Config struct {
	High          float64 // score at or above which a candidate is accepted
	Low           float64 // score below which the item is unmatched
	YearTolerance int     // max year distance before a candidate is disqualified
	YearBonus     float64 // added on exact year agreement, capped at 1.0
}

// Matcher selects the best provider candidate for a raw item
type Matcher struct {
	cfg Config
}

// New creates a matcher, filling zero config fields with defaults
func New(cfg Config) *Matcher {
	if cfg.High == 0 {
		cfg.High = 0.8
	}
	if cfg.Low == 0 {
		cfg.Low = 0.5
	}
	if cfg.YearTolerance == 0 {
		cfg.YearTolerance = 1
	}
	if cfg.YearBonus == 0 {
		cfg.YearBonus = 0.1
	}
	return &Matcher{cfg: cfg}
}

// Match scores every candidate against the raw item and returns a decision.
// "No good candidate" is the unmatched decision, not an error. The result is
// deterministic for a given item and candidate slice.
func (m *Matcher) Match(raw domain.RawItem, candidates []domain.ProviderRecord) (domain.MatchResult, error) {
	if strings.TrimSpace(raw.Title) == "" {
		return domain.MatchResult{}, ErrNoTitle
	}

	norm := normalize.Normalize(raw.Title)
	rawYear := raw.Year
	if rawYear == 0 {
		rawYear = norm.Year
	}

	var best *domain.ProviderRecord
	bestScore := 0.0

	for i := range candidates {
		cand := &candidates[i]
		candNorm := normalize.Normalize(cand.Title)
		candYear := cand.Year
		if candYear == 0 {
			candYear = candNorm.Year
		}

		// a year mismatch beyond tolerance disqualifies regardless of text
		if rawYear != 0 && candYear != 0 && abs(rawYear-candYear) > m.cfg.YearTolerance {
			continue
		}

		score := similarity(norm.Canonical, candNorm.Canonical)
		if rawYear != 0 && rawYear == candYear {
			score = math.Min(1.0, score+m.cfg.YearBonus)
		}

		switch {
		case best == nil || score > bestScore:
			best, bestScore = cand, score
		case score == bestScore:
			if m.preferOnTie(cand, best, rawYear) {
				best = cand
			}
		}
	}

	res := domain.MatchResult{Raw: raw, Confidence: bestScore}
	switch {
	case best == nil || bestScore < m.cfg.Low:
		res.Decision = domain.DecisionUnmatched
		res.Confidence = bestScore
	case bestScore < m.cfg.High:
		res.Decision = domain.DecisionAmbiguous
	default:
		res.Decision = domain.DecisionMatched
		res.Matched = best
	}
	return res, nil
}

// preferOnTie breaks equal scores: closer year first, then higher popularity
func (m *Matcher) preferOnTie(cand, best *domain.ProviderRecord, rawYear int) bool {
	if rawYear != 0 {
		candDist, bestDist := yearDistance(rawYear, cand.Year), yearDistance(rawYear, best.Year)
		if candDist != bestDist {
			return candDist < bestDist
		}
	}
	return cand.Popularity > best.Popularity
}

// similarity is the Sørensen–Dice coefficient over title tokens, in [0,1]
func similarity(a, b string) float64 {
	aTokens, bTokens := tokenSet(a), tokenSet(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	common := 0
	for tok := range aTokens {
		if bTokens[tok] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(aTokens)+len(bTokens))
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func yearDistance(from, to int) int {
	if to == 0 {
		return math.MaxInt // unknown year loses to any known year
	}
	return abs(from - to)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
