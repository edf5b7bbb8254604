package app

import (
	"time"

	"ranczo-quiz/internal/domain"

	"github.com/google/uuid"
)

// HistoryStats aggregates the history log for the results screen.
type HistoryStats struct {
	TotalGames     int `json:"totalGames"`
	BestPercent    int `json:"bestPercent"`
	AveragePercent int `json:"averagePercent"`
}

// NewHistoryEntry snapshots a finished session. Ids are UUIDv7, so they sort
// by creation time.
func NewHistoryEntry(kind domain.SessionKind, result domain.Result, questions []domain.Question, answers domain.Answers, at time.Time) domain.HistoryEntry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return domain.HistoryEntry{
		ID:        id.String(),
		Kind:      kind,
		Result:    result,
		Date:      at.UTC(),
		Questions: questions,
		Answers:   answers,
	}
}

// FilterHistory keeps entries of the given mode; an empty mode keeps all.
func FilterHistory(entries []domain.HistoryEntry, mode domain.Mode) []domain.HistoryEntry {
	if mode == "" {
		return entries
	}
	out := make([]domain.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind != nil && e.Kind.Mode() == mode {
			out = append(out, e)
		}
	}
	return out
}

// ComputeHistoryStats summarizes entries; zero values for an empty log.
func ComputeHistoryStats(entries []domain.HistoryEntry) HistoryStats {
	stats := HistoryStats{TotalGames: len(entries)}
	if len(entries) == 0 {
		return stats
	}
	sum := 0
	for _, e := range entries {
		sum += e.Result.Percent
		if e.Result.Percent > stats.BestPercent {
			stats.BestPercent = e.Result.Percent
		}
	}
	stats.AveragePercent = roundHalfUp(float64(sum) / float64(len(entries)))
	return stats
}
