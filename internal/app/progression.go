package app

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"ranczo-quiz/internal/domain"

	"github.com/sirupsen/logrus"
)

// Persistence keys.
const (
	KeyBestScores = "ranczo_best_scores"
	KeyDaily      = "ranczo_daily"
	KeyFanPoints  = "ranczo_fan_points"
	KeyHistory    = "ranczo_history"
	KeySettings   = "ranczo_settings"
)

// HistoryLimit caps the stored history log.
const HistoryLimit = 100

const dateLayout = "2006-01-02"

// LoadReport lists the keys whose stored value could not be read or parsed
// and were replaced by defaults.
type LoadReport struct {
	Degraded []string
}

// OK reports whether every slice loaded cleanly.
func (r LoadReport) OK() bool { return len(r.Degraded) == 0 }

// ProgressionStore holds cross-session progress: best scores, the daily
// completion marker, fan points and history. Every mutation updates memory
// first and then queues a write-through to the gateway.
type ProgressionStore struct {
	gateway Gateway
	writer  *WriteBehind
	now     func() time.Time
	loc     *time.Location
	log     logrus.FieldLogger

	mu             sync.RWMutex
	bestScores     map[string]int
	dailyCompleted string
	fanPoints      int
	history        []domain.HistoryEntry
}

// ProgressionOption configures a ProgressionStore.
type ProgressionOption func(*ProgressionStore)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) ProgressionOption {
	return func(s *ProgressionStore) { s.now = now }
}

// WithLocation sets the time zone that decides what "today" is. UTC by default.
func WithLocation(loc *time.Location) ProgressionOption {
	return func(s *ProgressionStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewProgressionStore(gateway Gateway, writer *WriteBehind, log logrus.FieldLogger, opts ...ProgressionOption) *ProgressionStore {
	s := &ProgressionStore{
		gateway:    gateway,
		writer:     writer,
		now:        time.Now,
		loc:        time.UTC,
		log:        log.WithField("component", "progression"),
		bestScores: map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every slice from the gateway. A missing key means "empty"; an
// unreadable or corrupt one is defaulted and reported, never returned.
func (s *ProgressionStore) Load(ctx context.Context) LoadReport {
	var report LoadReport
	degrade := func(key string, err error) {
		report.Degraded = append(report.Degraded, key)
		s.log.WithError(err).WithField("key", key).Warn("stored progress unreadable; using default")
	}

	bestScores := map[string]int{}
	if raw, ok, err := s.read(ctx, KeyBestScores); err != nil {
		degrade(KeyBestScores, err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &bestScores); err != nil {
			degrade(KeyBestScores, err)
			bestScores = map[string]int{}
		}
	}

	daily := ""
	if raw, ok, err := s.read(ctx, KeyDaily); err != nil {
		degrade(KeyDaily, err)
	} else if ok {
		if _, err := time.Parse(dateLayout, raw); err != nil {
			degrade(KeyDaily, err)
		} else {
			daily = raw
		}
	}

	fanPoints := 0
	if raw, ok, err := s.read(ctx, KeyFanPoints); err != nil {
		degrade(KeyFanPoints, err)
	} else if ok {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			degrade(KeyFanPoints, err)
		case n < 0:
			degrade(KeyFanPoints, domain.ErrNegativePoints)
		default:
			fanPoints = n
		}
	}

	var history []domain.HistoryEntry
	if raw, ok, err := s.read(ctx, KeyHistory); err != nil {
		degrade(KeyHistory, err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			degrade(KeyHistory, err)
			history = nil
		}
	}
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}

	s.mu.Lock()
	s.bestScores = bestScores
	s.dailyCompleted = daily
	s.fanPoints = fanPoints
	s.history = history
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"fan_points": fanPoints,
		"history":    len(history),
		"degraded":   len(report.Degraded),
	}).Info("progress loaded")
	return report
}

func (s *ProgressionStore) read(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.gateway.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

// UpdateBestScore stores score for key only when it beats the current best.
func (s *ProgressionStore) UpdateBestScore(key string, score int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if score <= s.bestScores[key] {
		return false
	}
	updated := make(map[string]int, len(s.bestScores)+1)
	for k, v := range s.bestScores {
		updated[k] = v
	}
	updated[key] = score
	s.bestScores = updated
	s.persistJSON(KeyBestScores, updated)
	return true
}

// BestScore returns the best score for key, 0 if none.
func (s *ProgressionStore) BestScore(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestScores[key]
}

// BestScores returns a copy of all best scores.
func (s *ProgressionStore) BestScores() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.bestScores))
	for k, v := range s.bestScores {
		out[k] = v
	}
	return out
}

// Today is the current calendar date in the store's location.
func (s *ProgressionStore) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// CompleteDaily marks today's daily challenge as done.
func (s *ProgressionStore) CompleteDaily() {
	today := s.Today()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyCompleted = today
	s.writer.Set(KeyDaily, today)
}

// IsDailyCompleted reports whether the stored marker equals today.
func (s *ProgressionStore) IsDailyCompleted() bool {
	today := s.Today()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dailyCompleted == today
}

// LastDailyCompleted returns the stored marker, empty if never completed.
func (s *ProgressionStore) LastDailyCompleted() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dailyCompleted
}

// AddFanPoints adds amount to the cumulative total and returns the new total.
func (s *ProgressionStore) AddFanPoints(amount int) (int, error) {
	if amount < 0 {
		return 0, domain.ErrNegativePoints
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fanPoints += amount
	s.writer.Set(KeyFanPoints, strconv.Itoa(s.fanPoints))
	return s.fanPoints, nil
}

// FanPoints returns the cumulative total.
func (s *ProgressionStore) FanPoints() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fanPoints
}

// RecordHistory prepends entry and drops anything beyond HistoryLimit.
func (s *ProgressionStore) RecordHistory(entry domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history) + 1
	if n > HistoryLimit {
		n = HistoryLimit
	}
	updated := make([]domain.HistoryEntry, 0, n)
	updated = append(updated, entry)
	for _, e := range s.history {
		if len(updated) == HistoryLimit {
			break
		}
		updated = append(updated, e)
	}
	s.history = updated
	s.persistJSON(KeyHistory, updated)
}

// History returns the log newest first.
func (s *ProgressionStore) History() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.HistoryEntry(nil), s.history...)
}

// HistoryEntry looks up a stored entry by id.
func (s *ProgressionStore) HistoryEntry(id string) (domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.history {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrHistoryEntryNotFound
}

// ClearAll wipes progress. Settings are stored separately and survive.
func (s *ProgressionStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bestScores = map[string]int{}
	s.dailyCompleted = ""
	s.fanPoints = 0
	s.history = nil
	for _, key := range []string{KeyBestScores, KeyDaily, KeyFanPoints, KeyHistory} {
		s.writer.Remove(key)
	}
	s.log.Info("progress cleared")
}

// persistJSON is called with s.mu held so queued snapshots follow the
// in-memory mutation order.
func (s *ProgressionStore) persistJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("encode progress")
		return
	}
	s.writer.Set(key, string(data))
}
