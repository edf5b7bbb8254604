package app

import (
	"ranczo-quiz/internal/domain"
)

// Status is the lifecycle state of a Session.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return "not_started"
	}
}

// Session is the in-progress quiz: a fixed ordered question list, a pointer
// to the current question and the answers recorded so far.
type Session struct {
	status    Status
	kind      domain.SessionKind
	questions []domain.Question
	pointer   int
	answers   domain.Answers
	review    bool
}

// NewSession returns a session in the NotStarted state.
func NewSession() *Session {
	return &Session{answers: domain.Answers{}}
}

// NewReviewSession reconstructs a finished session from history for read-only
// review. Finishing or answering it is rejected.
func NewReviewSession(entry domain.HistoryEntry) *Session {
	answers := make(domain.Answers, len(entry.Answers))
	for id, sel := range entry.Answers {
		answers[id] = append([]int(nil), sel...)
	}
	last := len(entry.Questions) - 1
	if last < 0 {
		last = 0
	}
	return &Session{
		status:    StatusFinished,
		kind:      entry.Kind,
		questions: append([]domain.Question(nil), entry.Questions...),
		pointer:   last,
		answers:   answers,
		review:    true,
	}
}

// Start begins a new session, discarding any previous state.
func (s *Session) Start(questions []domain.Question, kind domain.SessionKind) error {
	if len(questions) == 0 {
		return domain.ErrEmptySession
	}
	s.status = StatusInProgress
	s.kind = kind
	s.questions = append([]domain.Question(nil), questions...)
	s.pointer = 0
	s.answers = domain.Answers{}
	s.review = false
	return nil
}

// SubmitAnswer records (or replaces) the selection for a question.
func (s *Session) SubmitAnswer(questionID string, selected []int) (bool, error) {
	if s.status != StatusInProgress {
		return false, domain.ErrSessionNotActive
	}
	q, ok := s.question(questionID)
	if !ok {
		return false, domain.ErrQuestionNotInSession
	}
	s.answers[questionID] = append([]int(nil), selected...)
	return IsCorrect(q, selected), nil
}

// Advance moves to the next question. The current one must be answered and
// must not be the last; callers check IsLastQuestion and Finish instead.
func (s *Session) Advance() error {
	if s.status != StatusInProgress {
		return domain.ErrSessionNotActive
	}
	if !s.currentAnswered() {
		return domain.ErrAnswerRequired
	}
	if s.IsLastQuestion() {
		return domain.ErrNoMoreQuestions
	}
	s.pointer++
	return nil
}

// Finish closes the session and returns its result.
func (s *Session) Finish() (domain.Result, error) {
	if s.status != StatusInProgress {
		return domain.Result{}, domain.ErrSessionNotActive
	}
	s.status = StatusFinished
	return s.Result(), nil
}

// Reset abandons the session without side effects.
func (s *Session) Reset() {
	*s = Session{answers: domain.Answers{}}
}

// Result scores every recorded answer.
func (s *Session) Result() domain.Result {
	return ScoreResult(s.questions, s.answers)
}

// RunningScore counts only confirmed questions: everything before the
// pointer plus the current question once it has an answer.
func (s *Session) RunningScore() int {
	limit := s.pointer
	if s.currentAnswered() {
		limit++
	}
	if limit > len(s.questions) {
		limit = len(s.questions)
	}
	score := 0
	for _, q := range s.questions[:limit] {
		if sel, ok := s.answers[q.ID]; ok && IsCorrect(q, sel) {
			score += q.Points
		}
	}
	return score
}

// Current returns the question under the pointer.
func (s *Session) Current() (domain.Question, bool) {
	if s.status == StatusNotStarted || s.pointer >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.pointer], true
}

// IsLastQuestion reports whether the pointer is on the final question.
func (s *Session) IsLastQuestion() bool {
	return len(s.questions) > 0 && s.pointer == len(s.questions)-1
}

func (s *Session) Status() Status              { return s.status }
func (s *Session) Kind() domain.SessionKind    { return s.kind }
func (s *Session) Pointer() int                { return s.pointer }
func (s *Session) IsReview() bool              { return s.review }
func (s *Session) Questions() []domain.Question { return append([]domain.Question(nil), s.questions...) }

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() domain.Answers {
	out := make(domain.Answers, len(s.answers))
	for id, sel := range s.answers {
		out[id] = append([]int(nil), sel...)
	}
	return out
}

func (s *Session) currentAnswered() bool {
	if s.pointer >= len(s.questions) {
		return false
	}
	_, ok := s.answers[s.questions[s.pointer].ID]
	return ok
}

func (s *Session) question(id string) (domain.Question, bool) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}
