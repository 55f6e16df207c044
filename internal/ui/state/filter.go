package state

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MatchIndexes returns the indexes of labels matching query, preserving the
// original order. An empty query matches every label. When the fuzzy pass
// matches nothing the query falls back to a case-insensitive substring scan.
func MatchIndexes(labels []string, query string) []int {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		all := make([]int, len(labels))
		for i := range labels {
			all[i] = i
		}
		return all
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels)
	if len(ranks) > 0 {
		matched := make(map[int]struct{}, len(ranks))
		for _, rank := range ranks {
			matched[rank.OriginalIndex] = struct{}{}
		}
		idxs := make([]int, 0, len(matched))
		for i := range labels {
			if _, ok := matched[i]; ok {
				idxs = append(idxs, i)
			}
		}
		if len(idxs) > 0 {
			return idxs
		}
	}
	lower := strings.ToLower(trimmed)
	var idxs []int
	for i, label := range labels {
		if strings.Contains(strings.ToLower(label), lower) {
			idxs = append(idxs, i)
		}
	}
	return idxs
}
