package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"
	"ranczo-quiz/internal/infra/memory"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errDiskFull = errors.New("disk full")

func question(id string, category domain.Category, difficulty domain.Difficulty, points int, correct ...int) domain.Question {
	return domain.Question{
		ID:             id,
		Type:           domain.TypeSingle,
		Category:       category,
		Difficulty:     difficulty,
		Prompt:         "Pytanie " + id,
		Options:        []string{"A", "B", "C", "D"},
		CorrectAnswers: correct,
		Explanation:    "Wyjaśnienie " + id,
		Points:         points,
	}
}

// numberedBank returns q1..qn cycling through categories and difficulties.
func numberedBank(n int) []domain.Question {
	difficulties := []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard}
	out := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		cat := domain.Categories[(i-1)%len(domain.Categories)]
		diff := difficulties[(i-1)%len(difficulties)]
		out = append(out, question(fmt.Sprintf("q%d", i), cat, diff, 1+(i-1)%3, 0))
	}
	return out
}

func ids(qs []domain.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func quietLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyGateway wraps the memory gateway with injectable failures.
type flakyGateway struct {
	*memory.Gateway

	mu         sync.Mutex
	getErrs    map[string]error
	failWrites bool
	writes     int
}

func newFlakyGateway() *flakyGateway {
	return &flakyGateway{Gateway: memory.NewGateway(), getErrs: map[string]error{}}
}

func (g *flakyGateway) failGet(key string, err error) {
	g.mu.Lock()
	g.getErrs[key] = err
	g.mu.Unlock()
}

func (g *flakyGateway) setFailWrites(fail bool) {
	g.mu.Lock()
	g.failWrites = fail
	g.mu.Unlock()
}

func (g *flakyGateway) writeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

func (g *flakyGateway) Get(ctx context.Context, key string) (string, error) {
	g.mu.Lock()
	err := g.getErrs[key]
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	return g.Gateway.Get(ctx, key)
}

func (g *flakyGateway) Set(ctx context.Context, key, value string) error {
	g.mu.Lock()
	g.writes++
	fail := g.failWrites
	g.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return g.Gateway.Set(ctx, key, value)
}

func (g *flakyGateway) Remove(ctx context.Context, key string) error {
	g.mu.Lock()
	g.writes++
	fail := g.failWrites
	g.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return g.Gateway.Remove(ctx, key)
}

type fixture struct {
	gateway  *flakyGateway
	writer   *app.WriteBehind
	progress *app.ProgressionStore
	settings *app.SettingsStore
	clock    *fakeClock
	hook     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithGateway(t, newFlakyGateway())
}

func newFixtureWithGateway(t *testing.T, gw *flakyGateway) *fixture {
	t.Helper()
	log, hook := quietLogger()
	clock := newFakeClock(time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC))
	writer := app.NewWriteBehind(gw, time.Second, log)
	t.Cleanup(func() { _ = writer.Close(context.Background()) })
	return &fixture{
		gateway:  gw,
		writer:   writer,
		progress: app.NewProgressionStore(gw, writer, log, app.WithClock(clock.Now)),
		settings: app.NewSettingsStore(gw, writer, log),
		clock:    clock,
		hook:     hook,
	}
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	if err := f.writer.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func (f *fixture) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	f.flush(t)
	v, err := f.gateway.Gateway.Get(context.Background(), key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", false
	}
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return v, true
}
