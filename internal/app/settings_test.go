package app_test

import (
	"context"
	"testing"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.settings.Load(context.Background()))
	assert.Equal(t, app.Settings{FontScale: app.FontNormal, SoundEnabled: true, QuestionsPerQuiz: 10}, f.settings.Get())
}

func TestSettingsPersistAndReload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.settings.SetQuestionsPerQuiz(15))
	require.NoError(t, f.settings.SetFontScale(app.FontLarge))
	f.settings.SetSoundEnabled(false)

	raw, ok := f.stored(t, app.KeySettings)
	require.True(t, ok)
	assert.JSONEq(t, `{"fontScale":"large","soundEnabled":false,"questionsPerQuiz":15}`, raw)

	log, _ := quietLogger()
	reloaded := app.NewSettingsStore(f.gateway, f.writer, log)
	require.True(t, reloaded.Load(ctx))
	assert.Equal(t, f.settings.Get(), reloaded.Get())
}

func TestSettingsRejectInvalidValues(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.settings.SetQuestionsPerQuiz(12), domain.ErrInvalidQuestionCount)
	assert.ErrorIs(t, f.settings.SetFontScale("huge"), domain.ErrInvalidFontScale)
	assert.Equal(t, app.DefaultSettings(), f.settings.Get())
	_, ok := f.stored(t, app.KeySettings)
	assert.False(t, ok)
}

func TestSettingsLoadPartialAndCorrupt(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	require.NoError(t, f.gateway.Set(ctx, app.KeySettings, `{"questionsPerQuiz":20,"fontScale":"giant"}`))
	assert.True(t, f.settings.Load(ctx))
	assert.Equal(t, 20, f.settings.Get().QuestionsPerQuiz)
	assert.Equal(t, app.FontNormal, f.settings.Get().FontScale)
	assert.True(t, f.settings.Get().SoundEnabled)

	g := newFixture(t)
	require.NoError(t, g.gateway.Set(ctx, app.KeySettings, `[1,2`))
	assert.False(t, g.settings.Load(ctx))
	assert.Equal(t, app.DefaultSettings(), g.settings.Get())
}

func TestSettingsReplaceIsAllOrNothing(t *testing.T) {
	f := newFixture(t)

	err := f.settings.Replace(app.Settings{FontScale: "huge", SoundEnabled: false, QuestionsPerQuiz: 20})
	assert.ErrorIs(t, err, domain.ErrInvalidFontScale)
	assert.Equal(t, app.DefaultSettings(), f.settings.Get())
	_, ok := f.stored(t, app.KeySettings)
	assert.False(t, ok)

	want := app.Settings{FontScale: app.FontSmall, SoundEnabled: false, QuestionsPerQuiz: 20}
	require.NoError(t, f.settings.Replace(want))
	assert.Equal(t, want, f.settings.Get())
	raw, ok := f.stored(t, app.KeySettings)
	require.True(t, ok)
	assert.JSONEq(t, `{"fontScale":"small","soundEnabled":false,"questionsPerQuiz":20}`, raw)
}
