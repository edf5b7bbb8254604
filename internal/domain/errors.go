package domain

import "errors"

var (
	// ErrSessionNotActive is returned when a session operation needs an in-progress session.
	ErrSessionNotActive = errors.New("quiz session not in progress")
	// ErrQuestionNotInSession indicates an answer for a question the session does not contain.
	ErrQuestionNotInSession = errors.New("question not part of session")
	// ErrAnswerRequired is returned when advancing past an unanswered question.
	ErrAnswerRequired = errors.New("current question has no answer")
	// ErrNoMoreQuestions is returned when advancing from the last question.
	ErrNoMoreQuestions = errors.New("no more questions in session")
	// ErrEmptySession indicates a session was started without questions.
	ErrEmptySession = errors.New("session has no questions")
	// ErrDailyAlreadyCompleted gates the daily challenge to once per calendar day.
	ErrDailyAlreadyCompleted = errors.New("daily challenge already completed today")
	// ErrHistoryEntryNotFound indicates an unknown history entry id.
	ErrHistoryEntryNotFound = errors.New("history entry not found")
	// ErrInvalidCategory indicates an unknown category tag.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrNegativePoints rejects fan point decrements.
	ErrNegativePoints = errors.New("fan points must not be negative")
	// ErrInvalidQuestionCount rejects unsupported per-quiz question counts.
	ErrInvalidQuestionCount = errors.New("unsupported questions per quiz")
	// ErrInvalidFontScale rejects unknown font scale settings.
	ErrInvalidFontScale = errors.New("unsupported font scale")
	// ErrKeyNotFound is returned by persistence gateways for keys that were never set.
	ErrKeyNotFound = errors.New("key not found")
	// ErrBankEmpty indicates a question bank without questions.
	ErrBankEmpty = errors.New("question bank is empty")
)
