package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"ranczo-quiz/internal/domain"

	"github.com/sirupsen/logrus"
)

// FontScale is the text size preference.
type FontScale string

const (
	FontSmall  FontScale = "small"
	FontNormal FontScale = "normal"
	FontLarge  FontScale = "large"
)

// QuestionCountOptions are the selectable questions-per-quiz values.
var QuestionCountOptions = []int{10, 15, 20}

// DefaultQuestionCount is used until the user picks another option.
const DefaultQuestionCount = 10

// Settings are the user's quiz preferences.
type Settings struct {
	FontScale        FontScale `json:"fontScale"`
	SoundEnabled     bool      `json:"soundEnabled"`
	QuestionsPerQuiz int       `json:"questionsPerQuiz"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{FontScale: FontNormal, SoundEnabled: true, QuestionsPerQuiz: DefaultQuestionCount}
}

// SettingsStore persists Settings under KeySettings.
type SettingsStore struct {
	gateway Gateway
	writer  *WriteBehind
	log     logrus.FieldLogger

	mu       sync.RWMutex
	settings Settings
}

func NewSettingsStore(gateway Gateway, writer *WriteBehind, log logrus.FieldLogger) *SettingsStore {
	return &SettingsStore{
		gateway:  gateway,
		writer:   writer,
		log:      log.WithField("component", "settings"),
		settings: DefaultSettings(),
	}
}

// Load reads stored settings. Missing fields keep their defaults; an
// unreadable value falls back to defaults entirely and returns false.
func (s *SettingsStore) Load(ctx context.Context) bool {
	loaded := DefaultSettings()
	ok := true

	raw, err := s.gateway.Get(ctx, KeySettings)
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
	case err != nil:
		s.log.WithError(err).Warn("read settings; using defaults")
		ok = false
	default:
		var stored struct {
			FontScale        *FontScale `json:"fontScale"`
			SoundEnabled     *bool      `json:"soundEnabled"`
			QuestionsPerQuiz *int       `json:"questionsPerQuiz"`
		}
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.log.WithError(err).Warn("decode settings; using defaults")
			ok = false
			break
		}
		if stored.FontScale != nil && validFontScale(*stored.FontScale) {
			loaded.FontScale = *stored.FontScale
		}
		if stored.SoundEnabled != nil {
			loaded.SoundEnabled = *stored.SoundEnabled
		}
		if stored.QuestionsPerQuiz != nil && validQuestionCount(*stored.QuestionsPerQuiz) {
			loaded.QuestionsPerQuiz = *stored.QuestionsPerQuiz
		}
	}

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
	return ok
}

// Get returns the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) SetQuestionsPerQuiz(n int) error {
	if !validQuestionCount(n) {
		return domain.ErrInvalidQuestionCount
	}
	s.update(func(st *Settings) { st.QuestionsPerQuiz = n })
	return nil
}

func (s *SettingsStore) SetSoundEnabled(enabled bool) {
	s.update(func(st *Settings) { st.SoundEnabled = enabled })
}

func (s *SettingsStore) SetFontScale(scale FontScale) error {
	if !validFontScale(scale) {
		return domain.ErrInvalidFontScale
	}
	s.update(func(st *Settings) { st.FontScale = scale })
	return nil
}

// Replace validates every field of next before storing any of them.
func (s *SettingsStore) Replace(next Settings) error {
	if !validQuestionCount(next.QuestionsPerQuiz) {
		return domain.ErrInvalidQuestionCount
	}
	if !validFontScale(next.FontScale) {
		return domain.ErrInvalidFontScale
	}
	s.update(func(st *Settings) { *st = next })
	return nil
}

func (s *SettingsStore) update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	data, err := json.Marshal(s.settings)
	if err != nil {
		s.log.WithError(err).Error("encode settings")
		return
	}
	s.writer.Set(KeySettings, string(data))
}

func validQuestionCount(n int) bool {
	for _, opt := range QuestionCountOptions {
		if n == opt {
			return true
		}
	}
	return false
}

func validFontScale(f FontScale) bool {
	return f == FontSmall || f == FontNormal || f == FontLarge
}
