// Package normalize reduces raw media titles to a canonical comparable form.
// Feed-published titles carry episode markers, release tags and years; the
// metadata provider's titles carry articles and punctuation. Both sides go
// through the same normalization so the matcher compares like with like.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.English)

// Title is the canonical form of a raw title string
type Title struct {
	Canonical string
	Year      int // 0 when no year token found
}

var (
	episodeRe  = regexp.MustCompile(`(?i)\b(?:s\d{1,2}e\d{1,2}|\d{1,2}x\d{2}|season\s+\d{1,2}(?:\s+episode\s+\d{1,2})?)\b`)
	bracketRe  = regexp.MustCompile(`\[[^\]]*\]`)
	yearRe     = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	punctRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spacesRe   = regexp.MustCompile(`\s+`)
	releaseRe  = regexp.MustCompile(`(?i)\b(?:480p|576p|720p|1080p|2160p|4k|uhd|x264|x265|h264|h265|hevc|xvid|divx|av1|bluray|blu-ray|bdrip|brrip|remux|web-dl|webdl|webrip|hdtv|dvdrip|camrip|hdrip|proper|repack|internal|limited|unrated|extended|remastered)\b`)
	deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize produces the canonical form of a title. It is pure, total and
// idempotent: normalizing a canonical text yields the same canonical text.
func Normalize(title string) Title {
	s := strings.ToLower(strings.TrimSpace(title))
	if s == "" {
		return Title{}
	}
	fallback := s

	// diacritics fold, so "Pokémon" and "Pokemon" compare equal
	if folded, _, err := transform.String(deaccenter, s); err == nil {
		s = folded
	}

	// feed titles append episode and release junk after the show name
	if loc := episodeRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = bracketRe.ReplaceAllString(s, " ")
	s = releaseRe.ReplaceAllString(s, " ")

	s, year := extractYear(s)

	s = punctRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = stripArticles(s)

	if s == "" {
		// never return an empty canonical form for a non-empty title
		return Title{Canonical: fallback, Year: year}
	}
	return Title{Canonical: s, Year: year}
}

// extractYear removes every plausible year token and returns the last one.
// Years beyond next year are kept in the text, they are part of the title
// ("Blade Runner 2049") rather than a release year.
func extractYear(s string) (string, int) {
	maxYear := time.Now().Year() + 1
	year := 0
	out := yearRe.ReplaceAllStringFunc(s, func(tok string) string {
		y, err := strconv.Atoi(tok)
		if err != nil || y > maxYear {
			return tok
		}
		year = y
		return " "
	})
	return out, year
}

// Display produces a presentable show name from a feed title: episode markers
// and release junk removed, title-cased. Articles and years are kept.
func Display(title string) string {
	s := strings.TrimSpace(title)
	if loc := episodeRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = bracketRe.ReplaceAllString(s, " ")
	s = releaseRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.Trim(strings.TrimSpace(s), "-. ")
	if s == "" {
		return strings.TrimSpace(title)
	}
	return titleCaser.String(s)
}

// stripArticles removes leading "the", "a" and "an" until none remain
func stripArticles(s string) string {
	for {
		trimmed := s
		for _, art := range []string{"the ", "a ", "an "} {
			if strings.HasPrefix(trimmed, art) {
				trimmed = strings.TrimSpace(trimmed[len(art):])
				break
			}
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
