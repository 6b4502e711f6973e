package note

import (
	"sort"
	"strings"
)

// RelevanceScore scores one note against a lowercased query term: a title
// hit outweighs a content hit, and each matching tag sits in between.
func RelevanceScore(n Note, term string) int {
	score := 0
	if n.Title != nil && strings.Contains(strings.ToLower(*n.Title), term) {
		score += 3
	}
	if strings.Contains(strings.ToLower(n.Content), term) {
		score++
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			score += 2
		}
	}
	return score
}

// RankByRelevance reorders a search result set by descending relevance
// score. The sort is stable: ties keep their prior relative order.
func RankByRelevance(notes []Note, term string) []Note {
	term = strings.ToLower(term)
	out := make([]Note, len(notes))
	copy(out, notes)
	sort.SliceStable(out, func(i, j int) bool {
		return RelevanceScore(out[i], term) > RelevanceScore(out[j], term)
	})
	return out
}

// SortByDate reorders a result set newest-first, ignoring pin state and
// relevance.
func SortByDate(notes []Note) []Note {
	out := make([]Note, len(notes))
	copy(out, notes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
