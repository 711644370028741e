package history

import (
	"sort"
	"strings"

	"github.com/doeshing/fabsh/internal/domain"
)

// score rates how similar an entry's task text is to the query. Token
// overlap dominates; a whole-substring match adds a flat bonus. The scale
// is arbitrary but deterministic.
func score(query, task string) int {
	queryLower := strings.ToLower(query)
	taskLower := strings.ToLower(task)

	points := 0
	if strings.Contains(taskLower, queryLower) || strings.Contains(queryLower, taskLower) {
		points += 10
	}

	taskTokens := make(map[string]bool)
	for _, token := range strings.Fields(taskLower) {
		taskTokens[token] = true
	}
	for _, token := range strings.Fields(queryLower) {
		if taskTokens[token] {
			points += 2
		}
	}
	return points
}

// rank orders confirmed-success entries by similarity to the query,
// breaking ties by recency (newest first). Entries that share nothing with
// the query are dropped.
func rank(entries []domain.HistoryEntry, query string, limit int) []domain.HistoryEntry {
	type scored struct {
		entry  domain.HistoryEntry
		points int
	}

	var ranked []scored
	for _, entry := range entries {
		if entry.Outcome != domain.OutcomeConfirmedSuccess {
			continue
		}
		if points := score(query, entry.Task); points > 0 {
			ranked = append(ranked, scored{entry: entry, points: points})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].points != ranked[j].points {
			return ranked[i].points > ranked[j].points
		}
		return ranked[i].entry.Timestamp.After(ranked[j].entry.Timestamp)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result := make([]domain.HistoryEntry, 0, len(ranked))
	for _, s := range ranked {
		result = append(result, s.entry)
	}
	return result
}
