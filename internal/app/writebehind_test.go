package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingGateway remembers the order of applied writes and can block them.
type recordingGateway struct {
	mu      sync.Mutex
	applied []string
	values  map[string]string
	gate    chan struct{}
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{values: map[string]string{}}
}

func (g *recordingGateway) Get(_ context.Context, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (g *recordingGateway) Set(_ context.Context, key, value string) error {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applied = append(g.applied, key+"="+value)
	g.values[key] = value
	return nil
}

func (g *recordingGateway) Remove(_ context.Context, key string) error {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applied = append(g.applied, "-"+key)
	delete(g.values, key)
	return nil
}

func (g *recordingGateway) wait() {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (g *recordingGateway) log() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.applied...)
}

func TestWriteBehindAppliesInOrder(t *testing.T) {
	gw := newRecordingGateway()
	log, _ := quietLogger()
	w := app.NewWriteBehind(gw, time.Second, log)
	defer w.Close(context.Background())

	w.Set("a", "1")
	require.NoError(t, w.Flush(context.Background()))
	w.Set("b", "2")
	w.Remove("a")
	require.NoError(t, w.Flush(context.Background()))

	assert.Equal(t, []string{"a=1", "b=2", "-a"}, gw.log())
	assert.Zero(t, w.Failures())
}

func TestWriteBehindCoalescesPendingWrites(t *testing.T) {
	gw := newRecordingGateway()
	gate := make(chan struct{})
	gw.gate = gate
	log, _ := quietLogger()
	w := app.NewWriteBehind(gw, time.Second, log)

	// the first write blocks in the gateway; the rest pile up behind it
	w.Set("first", "x")
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		w.Set("points", string(rune('0'+i)))
	}
	close(gate)

	require.NoError(t, w.Close(context.Background()))
	assert.Equal(t, []string{"first=x", "points=4"}, gw.log())
}

func TestWriteBehindLogsAndCountsFailures(t *testing.T) {
	gw := newFlakyGateway()
	gw.setFailWrites(true)
	log, hook := quietLogger()
	w := app.NewWriteBehind(gw, time.Second, log)
	defer w.Close(context.Background())

	w.Set("k", "v")
	w.Remove("other")
	require.NoError(t, w.Flush(context.Background()))

	assert.EqualValues(t, 2, w.Failures())
	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			assert.ErrorIs(t, e.Data[logrus.ErrorKey].(error), errDiskFull)
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestWriteBehindCloseDrains(t *testing.T) {
	gw := newRecordingGateway()
	log, _ := quietLogger()
	w := app.NewWriteBehind(gw, time.Second, log)

	w.Set("a", "1")
	w.Set("b", "2")
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Close(context.Background()))
	require.NoError(t, w.Flush(context.Background()))

	v, err := gw.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestWriteBehindFlushHonoursContext(t *testing.T) {
	gw := newRecordingGateway()
	gate := make(chan struct{})
	gw.gate = gate
	log, _ := quietLogger()
	w := app.NewWriteBehind(gw, time.Second, log)
	defer func() {
		close(gate)
		_ = w.Close(context.Background())
	}()

	w.Set("slow", "1")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)
}
