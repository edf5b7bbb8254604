package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ranczo-quiz/internal/domain"

	"github.com/sirupsen/logrus"
)

// DailyQuestionCount is fixed so every player gets the same daily quiz.
const DailyQuestionCount = 10

// StartOptions tune a random or category session.
type StartOptions struct {
	// Count overrides the persisted questions-per-quiz setting when > 0.
	Count    int
	FansOnly bool
}

// Outcome is what Finish reports after reconciling a session into progress.
type Outcome struct {
	Result          domain.Result `json:"result"`
	Mode            domain.Mode   `json:"mode"`
	Title           Title         `json:"title"`
	ScoreKey        string        `json:"scoreKey"`
	NewBest         bool          `json:"newBest"`
	FanPointsEarned int           `json:"fanPointsEarned"`
	FanPointsTotal  int           `json:"fanPointsTotal"`
	RankBefore      domain.Rank   `json:"rankBefore"`
	RankAfter       domain.Rank   `json:"rankAfter"`
	RankedUp        bool          `json:"rankedUp"`
	EntryID         string        `json:"entryId"`
}

// Snapshot is a read-only view of the engine for UIs.
type Snapshot struct {
	Status       string            `json:"status"`
	Mode         domain.Mode       `json:"mode,omitempty"`
	Category     domain.Category   `json:"category,omitempty"`
	Review       bool              `json:"review"`
	Pointer      int               `json:"pointer"`
	Total        int               `json:"total"`
	Current      *domain.Question  `json:"current,omitempty"`
	Selected     []int             `json:"selected,omitempty"`
	IsLast       bool              `json:"isLast"`
	RunningScore int               `json:"runningScore"`
	Questions    []domain.Question `json:"questions,omitempty"`
	Answers      domain.Answers    `json:"answers,omitempty"`
	Result       *domain.Result    `json:"result,omitempty"`
}

// Progress summarizes cross-session state for menus.
type Progress struct {
	FanPoints        int            `json:"fanPoints"`
	Rank             domain.Rank    `json:"rank"`
	NextRank         *domain.Rank   `json:"nextRank,omitempty"`
	PointsToNextRank int            `json:"pointsToNextRank"`
	ProgressPercent  int            `json:"progressPercent"`
	BestScores       map[string]int `json:"bestScores"`
	DailyCompleted   bool           `json:"dailyCompleted"`
	LastDaily        string         `json:"lastDaily,omitempty"`
	Stats            HistoryStats   `json:"stats"`
}

// CategorySummary is one entry of the category menu.
type CategorySummary struct {
	Category  domain.Category `json:"category"`
	Questions int             `json:"questions"`
	BestScore int             `json:"bestScore"`
}

// Health reports whether persistence is degraded. The engine keeps running
// either way; state lives in memory.
type Health struct {
	LoadDegraded  []string `json:"loadDegraded,omitempty"`
	WriteFailures int64    `json:"writeFailures"`
}

func (h Health) Degraded() bool { return len(h.LoadDegraded) > 0 || h.WriteFailures > 0 }

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRand fixes the random source used for sampling and share texts.
func WithRand(rnd *rand.Rand) EngineOption {
	return func(e *Engine) { e.rnd = rnd }
}

// Engine is the context object tying the bank, the active session and the
// persisted stores together.
type Engine struct {
	bank     BankRepository
	progress *ProgressionStore
	settings *SettingsStore
	writer   *WriteBehind
	rnd      *rand.Rand
	log      logrus.FieldLogger

	mu          sync.Mutex
	session     *Session
	report      LoadReport
	subscribers map[chan Snapshot]struct{}
}

func NewEngine(bank BankRepository, progress *ProgressionStore, settings *SettingsStore, writer *WriteBehind, log logrus.FieldLogger, opts ...EngineOption) *Engine {
	e := &Engine{
		bank:        bank,
		progress:    progress,
		settings:    settings,
		writer:      writer,
		log:         log.WithField("component", "engine"),
		session:     NewSession(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Init loads persisted progress and settings. It never fails; unreadable
// keys are defaulted and listed in the report.
func (e *Engine) Init(ctx context.Context) LoadReport {
	report := e.progress.Load(ctx)
	if !e.settings.Load(ctx) {
		report.Degraded = append(report.Degraded, KeySettings)
	}
	e.mu.Lock()
	e.report = report
	e.mu.Unlock()
	return report
}

// Close drains queued writes and drops subscribers.
func (e *Engine) Close(ctx context.Context) error {
	err := e.writer.Close(ctx)
	e.mu.Lock()
	for ch := range e.subscribers {
		delete(e.subscribers, ch)
		close(ch)
	}
	e.mu.Unlock()
	return err
}

// StartDaily starts today's challenge unless it was already completed.
func (e *Engine) StartDaily(ctx context.Context) (Snapshot, error) {
	if e.progress.IsDailyCompleted() {
		return Snapshot{}, domain.ErrDailyAlreadyCompleted
	}
	bank, err := e.bank.Questions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load bank: %w", err)
	}
	return e.start(SampleDaily(bank, e.progress.Today(), DailyQuestionCount), domain.DailyKind{})
}

// StartRandom samples from the whole bank.
func (e *Engine) StartRandom(ctx context.Context, opts StartOptions) (Snapshot, error) {
	return e.startSampled(ctx, domain.RandomKind{}, Filter{FansOnly: opts.FansOnly}, opts.Count)
}

// StartCategory samples from one category.
func (e *Engine) StartCategory(ctx context.Context, category domain.Category, opts StartOptions) (Snapshot, error) {
	if !category.Valid() {
		return Snapshot{}, domain.ErrInvalidCategory
	}
	kind := domain.CategoryKind{Category: category}
	return e.startSampled(ctx, kind, Filter{Category: category, FansOnly: opts.FansOnly}, opts.Count)
}

func (e *Engine) startSampled(ctx context.Context, kind domain.SessionKind, filter Filter, count int) (Snapshot, error) {
	if count <= 0 {
		count = e.settings.Get().QuestionsPerQuiz
	}
	bank, err := e.bank.Questions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load bank: %w", err)
	}
	e.mu.Lock()
	questions := NewSampler(e.rnd).SampleRandom(bank, count, filter)
	e.mu.Unlock()
	return e.start(questions, kind)
}

func (e *Engine) start(questions []domain.Question, kind domain.SessionKind) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session := NewSession()
	if err := session.Start(questions, kind); err != nil {
		return Snapshot{}, err
	}
	e.session = session
	e.log.WithFields(logrus.Fields{
		"mode":      kind.Mode(),
		"questions": len(questions),
	}).Info("session started")
	return e.broadcastLocked(), nil
}

// Answer records a selection for a question of the active session.
func (e *Engine) Answer(questionID string, selected []int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	correct, err := e.session.SubmitAnswer(questionID, selected)
	if err != nil {
		return false, err
	}
	e.broadcastLocked()
	return correct, nil
}

// Next advances to the following question.
func (e *Engine) Next() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.session.Advance(); err != nil {
		return Snapshot{}, err
	}
	return e.broadcastLocked(), nil
}

// Finish closes the active session and reconciles it into progress: best
// score for its kind, the daily marker, fan points and a history entry.
func (e *Engine) Finish(_ context.Context) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.session.Finish()
	if err != nil {
		return Outcome{}, err
	}
	kind := e.session.Kind()

	out := Outcome{
		Result:   result,
		Mode:     kind.Mode(),
		Title:    ResultTitle(result.Percent),
		ScoreKey: BestScoreKey(kind, e.session.Questions()),
	}
	out.NewBest = e.progress.UpdateBestScore(out.ScoreKey, result.EarnedPoints)
	if kind.Mode() == domain.ModeDaily {
		e.progress.CompleteDaily()
	}

	before := e.progress.FanPoints()
	out.FanPointsEarned = SessionFanPoints(result.EarnedPoints, kind.Mode())
	total, err := e.progress.AddFanPoints(out.FanPointsEarned)
	if err != nil {
		return Outcome{}, err
	}
	out.FanPointsTotal = total
	out.RankBefore = CurrentRank(before)
	out.RankAfter = CurrentRank(total)
	out.RankedUp = RankedUp(before, total)

	entry := NewHistoryEntry(kind, result, e.session.Questions(), e.session.Answers(), e.progress.now())
	e.progress.RecordHistory(entry)
	out.EntryID = entry.ID

	e.log.WithFields(logrus.Fields{
		"mode":      kind.Mode(),
		"percent":   result.Percent,
		"fan_total": total,
		"ranked_up": out.RankedUp,
	}).Info("session finished")
	e.broadcastLocked()
	return out, nil
}

// BestScoreKey names the best-score slot a finished session competes for:
// its category, or the first question's category for daily and random
// sessions.
func BestScoreKey(kind domain.SessionKind, questions []domain.Question) string {
	if c, ok := kind.(domain.CategoryKind); ok {
		return string(c.Category)
	}
	if len(questions) == 0 {
		return ""
	}
	return string(questions[0].Category)
}

// Review replaces the active session with a read-only copy of a history entry.
func (e *Engine) Review(entryID string) (Snapshot, error) {
	entry, err := e.progress.HistoryEntry(entryID)
	if err != nil {
		return Snapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = NewReviewSession(entry)
	return e.broadcastLocked(), nil
}

// Reset abandons the active session. Nothing is persisted.
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Reset()
	return e.broadcastLocked()
}

// Snapshot returns the current session view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Progress returns the cross-session view.
func (e *Engine) Progress() Progress {
	points := e.progress.FanPoints()
	p := Progress{
		FanPoints:        points,
		Rank:             CurrentRank(points),
		PointsToNextRank: PointsToNextRank(points),
		ProgressPercent:  ProgressPercent(points),
		BestScores:       e.progress.BestScores(),
		DailyCompleted:   e.progress.IsDailyCompleted(),
		LastDaily:        e.progress.LastDailyCompleted(),
		Stats:            ComputeHistoryStats(e.progress.History()),
	}
	if next, ok := NextRank(points); ok {
		p.NextRank = &next
	}
	return p
}

// Categories lists every category in menu order with its question count
// and best score.
func (e *Engine) Categories(ctx context.Context) ([]CategorySummary, error) {
	bank, err := e.bank.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	out := make([]CategorySummary, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, CategorySummary{
			Category:  c,
			Questions: CategoryQuestionCount(bank, c),
			BestScore: e.progress.BestScore(string(c)),
		})
	}
	return out, nil
}

// History lists past sessions newest first, optionally for one mode.
func (e *Engine) History(mode domain.Mode) []domain.HistoryEntry {
	return FilterHistory(e.progress.History(), mode)
}

// ClearProgress wipes progress and abandons the active session.
func (e *Engine) ClearProgress() {
	e.progress.ClearAll()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Reset()
	e.broadcastLocked()
}

// Settings exposes the preferences store.
func (e *Engine) Settings() *SettingsStore { return e.settings }

// ShareText picks a share message for a finished session outcome.
func (e *Engine) ShareText(out Outcome, daily bool) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ShareText(out.Result.Percent, daily, e.rnd)
}

// Health reports load and write degradation.
func (e *Engine) Health() Health {
	e.mu.Lock()
	degraded := append([]string(nil), e.report.Degraded...)
	e.mu.Unlock()
	return Health{LoadDegraded: degraded, WriteFailures: e.writer.Failures()}
}

// Degraded is true once any persisted slice failed to load or any write failed.
func (e *Engine) Degraded() bool { return e.Health().Degraded() }

// Flush waits for queued writes.
func (e *Engine) Flush(ctx context.Context) error { return e.writer.Flush(ctx) }

// Subscribe returns a channel receiving a snapshot after every change. The
// caller must invoke cancel to release it.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	// ch is empty, so this cannot block and no broadcast can overtake it.
	ch <- e.snapshotLocked()
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) broadcastLocked() Snapshot {
	snap := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow reader: replace its oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (e *Engine) snapshotLocked() Snapshot {
	s := e.session
	snap := Snapshot{
		Status:       s.Status().String(),
		Review:       s.IsReview(),
		Pointer:      s.Pointer(),
		Total:        len(s.questions),
		IsLast:       s.IsLastQuestion(),
		RunningScore: s.RunningScore(),
	}
	if kind := s.Kind(); kind != nil {
		snap.Mode = kind.Mode()
		if c, ok := kind.(domain.CategoryKind); ok {
			snap.Category = c.Category
		}
	}
	switch s.Status() {
	case StatusInProgress:
		if q, ok := s.Current(); ok {
			snap.Current = &q
			if sel, answered := s.answers[q.ID]; answered {
				snap.Selected = append([]int(nil), sel...)
			}
		}
	case StatusFinished:
		res := s.Result()
		snap.Result = &res
		snap.Questions = s.Questions()
		snap.Answers = s.Answers()
	}
	return snap
}
