package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressionLoadEmpty(t *testing.T) {
	f := newFixture(t)
	report := f.progress.Load(context.Background())
	assert.True(t, report.OK())
	assert.Empty(t, f.progress.BestScores())
	assert.Zero(t, f.progress.FanPoints())
	assert.Empty(t, f.progress.History())
	assert.False(t, f.progress.IsDailyCompleted())
}

func TestProgressionLoadStoredState(t *testing.T) {
	ctx := context.Background()
	gw := newFlakyGateway()
	require.NoError(t, gw.Set(ctx, app.KeyBestScores, `{"plot":12,"quotes":9}`))
	require.NoError(t, gw.Set(ctx, app.KeyDaily, "2026-10-17"))
	require.NoError(t, gw.Set(ctx, app.KeyFanPoints, "321"))
	require.NoError(t, gw.Set(ctx, app.KeyHistory, `[{"id":"1760000000000","quizType":"category","category":"plot","percent":80,"earnedPoints":12,"totalPoints":15,"correctCount":8,"totalQuestions":10,"date":"2026-10-16T18:00:00.000Z","questions":[],"answers":{}}]`))

	f := newFixtureWithGateway(t, gw)
	report := f.progress.Load(ctx)
	require.True(t, report.OK())

	assert.Equal(t, 12, f.progress.BestScore("plot"))
	assert.Equal(t, 9, f.progress.BestScore("quotes"))
	assert.True(t, f.progress.IsDailyCompleted())
	assert.Equal(t, 321, f.progress.FanPoints())
	history := f.progress.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.CategoryKind{Category: domain.CategoryPlot}, history[0].Kind)
	assert.Equal(t, 80, history[0].Result.Percent)
}

func TestProgressionLoadCorruptDataDefaultsPerKey(t *testing.T) {
	ctx := context.Background()
	gw := newFlakyGateway()
	require.NoError(t, gw.Set(ctx, app.KeyBestScores, `{not json`))
	require.NoError(t, gw.Set(ctx, app.KeyDaily, "yesterday"))
	require.NoError(t, gw.Set(ctx, app.KeyFanPoints, "-4"))
	require.NoError(t, gw.Set(ctx, app.KeyHistory, `[{"id":"x","quizType":"bogus"}]`))

	f := newFixtureWithGateway(t, gw)
	report := f.progress.Load(ctx)

	assert.ElementsMatch(t, []string{app.KeyBestScores, app.KeyDaily, app.KeyFanPoints, app.KeyHistory}, report.Degraded)
	assert.Empty(t, f.progress.BestScores())
	assert.Empty(t, f.progress.LastDailyCompleted())
	assert.Zero(t, f.progress.FanPoints())
	assert.Empty(t, f.progress.History())
	assert.NotEmpty(t, f.hook.AllEntries())
}

func TestProgressionLoadReadFailureKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	gw := newFlakyGateway()
	require.NoError(t, gw.Set(ctx, app.KeyFanPoints, "42"))
	gw.failGet(app.KeyHistory, errDiskFull)

	f := newFixtureWithGateway(t, gw)
	report := f.progress.Load(ctx)
	assert.Equal(t, []string{app.KeyHistory}, report.Degraded)
	assert.False(t, report.OK())
	assert.Equal(t, 42, f.progress.FanPoints())
}

func TestUpdateBestScoreIsMonotonic(t *testing.T) {
	f := newFixture(t)
	scores := []int{5, 3, 9, 9, 1, 12, 0}
	best := 0
	for _, s := range scores {
		improved := f.progress.UpdateBestScore("quotes", s)
		assert.Equal(t, s > best, improved, "score %d", s)
		if s > best {
			best = s
		}
		assert.Equal(t, best, f.progress.BestScore("quotes"))
	}

	raw, ok := f.stored(t, app.KeyBestScores)
	require.True(t, ok)
	var persisted map[string]int
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, map[string]int{"quotes": 12}, persisted)
}

func TestDailyCompletionFollowsClock(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.progress.IsDailyCompleted())

	f.progress.CompleteDaily()
	assert.True(t, f.progress.IsDailyCompleted())
	assert.Equal(t, "2026-10-17", f.progress.LastDailyCompleted())

	raw, ok := f.stored(t, app.KeyDaily)
	require.True(t, ok)
	assert.Equal(t, "2026-10-17", raw)

	f.clock.Advance(24 * time.Hour)
	assert.False(t, f.progress.IsDailyCompleted())
	assert.Equal(t, "2026-10-18", f.progress.Today())
}

func TestTodayUsesLocation(t *testing.T) {
	log, _ := quietLogger()
	gw := newFlakyGateway()
	writer := app.NewWriteBehind(gw, time.Second, log)
	defer writer.Close(context.Background())

	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	late := func() time.Time { return time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC) }
	utc := app.NewProgressionStore(gw, writer, log, app.WithClock(late))
	local := app.NewProgressionStore(gw, writer, log, app.WithClock(late), app.WithLocation(warsaw))

	assert.Equal(t, "2026-10-17", utc.Today())
	assert.Equal(t, "2026-10-18", local.Today())
}

func TestAddFanPoints(t *testing.T) {
	f := newFixture(t)
	total, err := f.progress.AddFanPoints(10)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	total, err = f.progress.AddFanPoints(0)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	_, err = f.progress.AddFanPoints(-1)
	assert.ErrorIs(t, err, domain.ErrNegativePoints)
	assert.Equal(t, 10, f.progress.FanPoints())

	raw, ok := f.stored(t, app.KeyFanPoints)
	require.True(t, ok)
	assert.Equal(t, "10", raw)
}

func TestRecordHistoryCapsAtLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < app.HistoryLimit+25; i++ {
		f.progress.RecordHistory(domain.HistoryEntry{
			ID:      fmt.Sprintf("e%03d", i),
			Kind:    domain.RandomKind{},
			Date:    f.clock.Now(),
			Answers: domain.Answers{},
		})
		assert.LessOrEqual(t, len(f.progress.History()), app.HistoryLimit)
	}

	history := f.progress.History()
	require.Len(t, history, app.HistoryLimit)
	assert.Equal(t, "e124", history[0].ID)
	assert.Equal(t, "e025", history[app.HistoryLimit-1].ID)

	raw, ok := f.stored(t, app.KeyHistory)
	require.True(t, ok)
	var persisted []domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Len(t, persisted, app.HistoryLimit)
	assert.Equal(t, "e124", persisted[0].ID)

	entry, err := f.progress.HistoryEntry("e100")
	require.NoError(t, err)
	assert.Equal(t, "e100", entry.ID)
	_, err = f.progress.HistoryEntry("e000")
	assert.ErrorIs(t, err, domain.ErrHistoryEntryNotFound)
}

func TestClearAllKeepsSettings(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.settings.SetQuestionsPerQuiz(20))
	f.progress.UpdateBestScore("plot", 7)
	f.progress.CompleteDaily()
	_, _ = f.progress.AddFanPoints(50)
	f.progress.RecordHistory(domain.HistoryEntry{ID: "h", Kind: domain.DailyKind{}, Answers: domain.Answers{}})

	f.progress.ClearAll()
	assert.Empty(t, f.progress.BestScores())
	assert.False(t, f.progress.IsDailyCompleted())
	assert.Zero(t, f.progress.FanPoints())
	assert.Empty(t, f.progress.History())

	for _, key := range []string{app.KeyBestScores, app.KeyDaily, app.KeyFanPoints, app.KeyHistory} {
		_, ok := f.stored(t, key)
		assert.False(t, ok, key)
	}
	_, ok := f.stored(t, app.KeySettings)
	assert.True(t, ok)
}

func TestProgressionSurvivesWriteFailures(t *testing.T) {
	f := newFixture(t)
	f.gateway.setFailWrites(true)

	f.progress.UpdateBestScore("plot", 7)
	_, err := f.progress.AddFanPoints(30)
	require.NoError(t, err)
	f.flush(t)

	assert.Equal(t, 7, f.progress.BestScore("plot"))
	assert.Equal(t, 30, f.progress.FanPoints())
	assert.EqualValues(t, 2, f.writer.Failures())
}

func TestProgressionRoundTripsThroughGateway(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.progress.UpdateBestScore("details", 14)
	f.progress.CompleteDaily()
	_, _ = f.progress.AddFanPoints(19)
	f.progress.RecordHistory(app.NewHistoryEntry(domain.DailyKind{}, domain.Result{EarnedPoints: 14, TotalPoints: 20, Percent: 70}, threeQuestions(), domain.Answers{"a": {0}}, f.clock.Now()))
	f.flush(t)

	log, _ := quietLogger()
	reloaded := app.NewProgressionStore(f.gateway, f.writer, log, app.WithClock(f.clock.Now))
	require.True(t, reloaded.Load(ctx).OK())
	assert.Equal(t, 14, reloaded.BestScore("details"))
	assert.True(t, reloaded.IsDailyCompleted())
	assert.Equal(t, 19, reloaded.FanPoints())
	require.Len(t, reloaded.History(), 1)
	assert.Equal(t, f.progress.History()[0].ID, reloaded.History()[0].ID)
	assert.Equal(t, domain.DailyKind{}, reloaded.History()[0].Kind)
	assert.Len(t, reloaded.History()[0].Questions, 3)
}
