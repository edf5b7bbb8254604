package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType describes how a question is presented and answered.
type QuestionType string

const (
	TypeSingle        QuestionType = "single"
	TypeMultiple      QuestionType = "multiple"
	TypeTrueFalse     QuestionType = "true_false"
	TypeQuoteAuthor   QuestionType = "quote_author"
	TypeQuoteComplete QuestionType = "quote_complete"
	TypeImage         QuestionType = "image"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{
	TypeSingle, TypeMultiple, TypeTrueFalse, TypeQuoteAuthor, TypeQuoteComplete, TypeImage,
}

// Category is one of the fixed topical tags of the question bank.
type Category string

const (
	CategoryCharacters    Category = "characters"
	CategoryQuotes        Category = "quotes"
	CategoryRelationships Category = "relationships"
	CategoryActors        Category = "actors"
	CategoryPlot          Category = "plot"
	CategoryDetails       Category = "details"
)

// Categories lists the categories in menu order.
var Categories = []Category{
	CategoryCharacters, CategoryQuotes, CategoryRelationships, CategoryActors, CategoryPlot, CategoryDetails,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is an immutable entry of the question bank.
type Question struct {
	ID             string       `json:"id" yaml:"id" validate:"required"`
	Type           QuestionType `json:"type" yaml:"type" validate:"required,question_type"`
	Category       Category     `json:"category" yaml:"category" validate:"required,category"`
	Difficulty     Difficulty   `json:"difficulty" yaml:"difficulty" validate:"required,oneof=easy medium hard"`
	Season         int          `json:"season,omitempty" yaml:"season,omitempty" validate:"min=0"`
	Prompt         string       `json:"question" yaml:"question" validate:"required"`
	Image          string       `json:"image,omitempty" yaml:"image,omitempty"`
	Options        []string     `json:"options" yaml:"options" validate:"min=2,max=6,dive,required"`
	CorrectAnswers []int        `json:"correctAnswers" yaml:"correctAnswers" validate:"min=1,dive,min=0"`
	Explanation    string       `json:"explanation" yaml:"explanation"`
	Points         int          `json:"points" yaml:"points" validate:"min=1,max=3"`
}

// Mode tags how a session's questions were selected.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModeRandom   Mode = "random"
	ModeCategory Mode = "category"
)

// SessionKind is the mode-specific shape of a session. Only CategoryKind
// carries a category, so a daily or random session cannot have one.
type SessionKind interface {
	Mode() Mode
	isSessionKind()
}

type DailyKind struct{}

func (DailyKind) Mode() Mode     { return ModeDaily }
func (DailyKind) isSessionKind() {}

type RandomKind struct{}

func (RandomKind) Mode() Mode     { return ModeRandom }
func (RandomKind) isSessionKind() {}

type CategoryKind struct {
	Category Category
}

func (CategoryKind) Mode() Mode     { return ModeCategory }
func (CategoryKind) isSessionKind() {}

// KindFor rebuilds a SessionKind from its serialized parts.
func KindFor(mode Mode, category *Category) (SessionKind, error) {
	switch mode {
	case ModeDaily:
		return DailyKind{}, nil
	case ModeRandom:
		return RandomKind{}, nil
	case ModeCategory:
		if category == nil || !category.Valid() {
			return nil, fmt.Errorf("category session without valid category: %w", ErrInvalidCategory)
		}
		return CategoryKind{Category: *category}, nil
	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}
}

// Answers maps question id to the selected option indices.
type Answers map[string][]int

// Result summarizes a finished session.
type Result struct {
	EarnedPoints   int `json:"earnedPoints"`
	TotalPoints    int `json:"totalPoints"`
	CorrectCount   int `json:"correctCount"`
	TotalQuestions int `json:"totalQuestions"`
	Percent        int `json:"percent"`
}

// HistoryEntry is an immutable record of a finished session.
type HistoryEntry struct {
	ID        string
	Kind      SessionKind
	Result    Result
	Date      time.Time
	Questions []Question
	Answers   Answers
}

type historyEntryJSON struct {
	ID             string     `json:"id"`
	QuizType       Mode       `json:"quizType"`
	Category       *Category  `json:"category"`
	Percent        int        `json:"percent"`
	EarnedPoints   int        `json:"earnedPoints"`
	TotalPoints    int        `json:"totalPoints"`
	CorrectCount   int        `json:"correctCount"`
	TotalQuestions int        `json:"totalQuestions"`
	Date           time.Time  `json:"date"`
	Questions      []Question `json:"questions"`
	Answers        Answers    `json:"answers"`
}

func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	if e.Kind == nil {
		return nil, fmt.Errorf("history entry %s has no session kind", e.ID)
	}
	raw := historyEntryJSON{
		ID:             e.ID,
		QuizType:       e.Kind.Mode(),
		Percent:        e.Result.Percent,
		EarnedPoints:   e.Result.EarnedPoints,
		TotalPoints:    e.Result.TotalPoints,
		CorrectCount:   e.Result.CorrectCount,
		TotalQuestions: e.Result.TotalQuestions,
		Date:           e.Date.UTC(),
		Questions:      e.Questions,
		Answers:        e.Answers,
	}
	if k, ok := e.Kind.(CategoryKind); ok {
		c := k.Category
		raw.Category = &c
	}
	return json.Marshal(raw)
}

func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw historyEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := KindFor(raw.QuizType, raw.Category)
	if err != nil {
		return err
	}
	*e = HistoryEntry{
		ID:   raw.ID,
		Kind: kind,
		Result: Result{
			EarnedPoints:   raw.EarnedPoints,
			TotalPoints:    raw.TotalPoints,
			CorrectCount:   raw.CorrectCount,
			TotalQuestions: raw.TotalQuestions,
			Percent:        raw.Percent,
		},
		Date:      raw.Date,
		Questions: raw.Questions,
		Answers:   raw.Answers,
	}
	if e.Answers == nil {
		e.Answers = Answers{}
	}
	return nil
}

// Rank is one step of the fan-rank ladder.
type Rank struct {
	Threshold int    `json:"points"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
}
