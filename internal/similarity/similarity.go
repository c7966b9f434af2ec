// Package similarity scores how likely two field names refer to the same
// concept. Scores are deterministic and fall in [0,1].
package similarity

import (
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
)

// domainKeywords are tokens that make two otherwise-different field names
// likely related (e.g. "customer_email" vs "email_address").
var domainKeywords = []string{
	"id", "name", "email", "phone", "address",
	"date", "time", "user", "customer", "order",
}

// Normalize lowercases a field name via Unicode case folding and strips the
// separators that vary between naming conventions.
func Normalize(s string) string {
	s = cases.Fold().String(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.TrimSpace(s)
}

// Score computes a 0..1 similarity between two field names. Tiers, first
// match wins: normalized equality (1.0), containment (0.8), shared domain
// keyword (0.6), then normalized Levenshtein distance.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	// Separator-only names normalize to nothing; they match only when both
	// inputs were empty to begin with.
	if na == "" || nb == "" {
		if a == "" && b == "" {
			return 1.0
		}
		return 0
	}

	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}
	if sharedKeyword(na, nb) {
		return 0.6
	}

	dist := levenshtein.Distance(na, nb, levenshtein.NewParams())
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	score := 1 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// EditDistance returns the Levenshtein distance between normalized names.
// Used by the parser's did-you-mean candidate collection.
func EditDistance(a, b string) int {
	return levenshtein.Distance(Normalize(a), Normalize(b), levenshtein.NewParams())
}

// BestMatch returns the candidate with the highest similarity to field.
// Ties break toward the earlier candidate. An empty candidate list returns
// ("", 0).
func BestMatch(field string, candidates []string) (string, float64) {
	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		s := Score(field, c)
		if !found || s > bestScore {
			best = c
			bestScore = s
			found = true
		}
	}
	if !found {
		return "", 0
	}
	return best, bestScore
}

func sharedKeyword(a, b string) bool {
	for _, kw := range domainKeywords {
		if strings.Contains(a, kw) && strings.Contains(b, kw) {
			return true
		}
	}
	return false
}
