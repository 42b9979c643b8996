package vaultindex

import (
	"sort"
	"strings"
)

// Search performs the weighted fuzzy search: the lowercased query is
// matched against title (weight 3), path (weight 1), and each tag
// (weight 2, the max across tags), scores are summed, zero-score hits are
// dropped, and the top 50 by descending score are returned.
func (idx *Index) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	docs := idx.All()
	results := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		titleScore := fuzzyScore(q, doc.Title)
		pathScore := fuzzyScore(q, doc.Path)
		tagScore := 0
		for _, tag := range doc.Tags {
			if s := fuzzyScore(q, tag); s > tagScore {
				tagScore = s
			}
		}

		total := titleScore*3 + pathScore*1 + tagScore*2
		if total <= 0 {
			continue
		}
		results = append(results, SearchResult{Document: doc, Score: total})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > 50 {
		results = results[:50]
	}
	return results
}

// fuzzyScore scores target against an already-lowercased query. An exact
// substring match scores higher than a subsequence match; no match scores
// zero.
func fuzzyScore(query, target string) int {
	if query == "" {
		return 0
	}
	target = strings.ToLower(target)

	if idx := strings.Index(target, query); idx >= 0 {
		score := 100 - idx
		if idx == 0 {
			score += 50
		}
		return score
	}

	qi := 0
	score := 0
	lastMatch := -2
	for ti, c := range target {
		if qi >= len(query) {
			break
		}
		if rune(query[qi]) == c {
			score += 10
			if lastMatch == ti-1 {
				score += 5
			}
			lastMatch = ti
			qi++
		}
	}
	if qi == len(query) {
		return score
	}
	return 0
}
