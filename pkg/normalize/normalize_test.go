package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		canonical string
		year      int
	}{
		{"plain title", "Breaking Bad", "breaking bad", 0},
		{"leading article", "The Wire", "wire", 0},
		{"indefinite article", "A Quiet Place", "quiet place", 0},
		{"year in parens", "Heat (1995)", "heat", 1995},
		{"feed episode marker", "Silo S02E04 1080p WEB h264-SuccessfulCrab", "silo", 0},
		{"season episode words", "Slow Horses Season 4 Episode 2", "slow horses", 0},
		{"bracketed junk", "Dan Da Dan [1080p][HEVC]", "dan da dan", 0},
		{"release tags", "Dune Part Two 2024 2160p WEB-DL HEVC REMUX", "dune part two", 2024},
		{"diacritics", "Amélie", "amelie", 0},
		{"punctuation", "Don't Look Up", "don t look up", 0},
		{"future year kept in title", "Blade Runner 2049", "blade runner 2049", 0},
		{"title year plus release year", "Blade Runner 2049 (2017)", "blade runner 2049", 2017},
		{"empty", "", "", 0},
		{"article only falls back", "The", "the", 0},
		{"whitespace collapse", "  The   Office  ", "office", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.canonical, got.Canonical)
			assert.Equal(t, tt.year, got.Year)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"The Wire", "Heat (1995)", "Silo S02E04 1080p WEB h264-GROUP",
		"Blade Runner 2049", "Amélie", "Don't Look Up", "The", "a", "2020",
		"Dan Da Dan [1080p][HEVC]", "An American Werewolf in London (1981)",
	}
	for _, in := range inputs {
		first := Normalize(in)
		second := Normalize(first.Canonical)
		assert.Equal(t, first.Canonical, second.Canonical, "input %q", in)
	}
}
