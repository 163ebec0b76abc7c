package domain

import (
	"cmp"
	"slices"
	"strings"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Earlier substring matches get up to this much on top
	ScorePositionBonus = 10.0

	// Below this share of matching characters a name is not suggested
	fuzzyThreshold = 0.5
)

// Suggestion is a sport name with its match score
type Suggestion struct {
	Name  string
	Score float64
}

// Suggest ranks the names in sports by closeness to query, best first, and
// returns at most limit of them. Names that do not match at all are dropped.
func Suggest(sports []Sport, query string, limit int) []string {
	ranked := RankNames(sports, query)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.Name
	}
	return names
}

// RankNames scores every distinct name against query, case-insensitively.
// Ties keep collection order.
func RankNames(sports []Sport, query string) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	seen := make(map[string]struct{}, len(sports))
	ranked := make([]Suggestion, 0, len(sports))
	for _, s := range sports {
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}

		if score := scoreName(q, strings.ToLower(s.Name)); score > 0 {
			ranked = append(ranked, Suggestion{Name: s.Name, Score: score})
		}
	}

	slices.SortStableFunc(ranked, func(a, b Suggestion) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// scoreName scores a lowercased query against a lowercased name
func scoreName(query, name string) float64 {
	if query == "" || name == "" {
		return 0.0
	}

	if query == name {
		return ScoreExactMatch
	}
	if strings.HasPrefix(name, query) {
		return ScorePrefixMatch
	}
	if index := strings.Index(name, query); index >= 0 {
		return ScoreSubstringMatch + ScorePositionBonus*(1.0-float64(index)/float64(len(name)))
	}

	if similarity := calculateSimilarity(query, name); similarity > fuzzyThreshold {
		return ScoreFuzzyMatch * similarity
	}
	return 0.0
}

// calculateSimilarity is the share of runes of s1 that also appear in s2
func calculateSimilarity(s1, s2 string) float64 {
	runes := []rune(s1)
	if len(runes) == 0 || s2 == "" {
		return 0.0
	}

	matches := 0
	for _, c := range runes {
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	return float64(matches) / float64(len(runes))
}
