package stats

import (
	"sort"

	"quiz-analytics-service/internal/domain"
)

// Index is a derived, read-only partition of all stored results by
// participant name. It is rebuilt on every read; at single-user data sizes a
// linear pass is cheaper than maintaining an incremental index. Identity is
// the exact name string: participants who type their name differently are
// distinct series on purpose.
type Index struct {
	results []domain.QuizResult
}

// NewIndex builds an index over a snapshot of results.
func NewIndex(results []domain.QuizResult) *Index {
	return &Index{results: results}
}

// ByParticipant returns the named participant's attempts in chronological
// order (by submission instant, start time as tie-break).
func (ix *Index) ByParticipant(name string) []domain.QuizResult {
	var own []domain.QuizResult
	for _, r := range ix.results {
		if r.Participant.Name == name {
			own = append(own, r)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		if !own[i].EndTime.Equal(own[j].EndTime) {
			return own[i].EndTime.Before(own[j].EndTime)
		}
		return own[i].StartTime.Before(own[j].StartTime)
	})
	return own
}

// Others returns every attempt not belonging to the named participant.
// Order is unspecified; percentile math does not need one.
func (ix *Index) Others(name string) []domain.QuizResult {
	var others []domain.QuizResult
	for _, r := range ix.results {
		if r.Participant.Name != name {
			others = append(others, r)
		}
	}
	return others
}

// Participants lists the distinct participant names, sorted.
func (ix *Index) Participants() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range ix.results {
		if _, ok := seen[r.Participant.Name]; !ok {
			seen[r.Participant.Name] = struct{}{}
			names = append(names, r.Participant.Name)
		}
	}
	sort.Strings(names)
	return names
}
