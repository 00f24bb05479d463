// internal/quiz/session.go
package quiz

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	"learnly/internal/models"
)

// Unanswered is reported as the user answer for questions left blank.
const Unanswered = "None"

var (
	ErrEmptySession  = errors.New("no questions to ask")
	ErrNotInProgress = errors.New("session is not in progress")
	ErrNotStarted    = errors.New("session has not started")
	ErrNotCompleted  = errors.New("session is not completed")
	ErrNothingMissed = errors.New("no missed questions to retake")
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// MissedEntry describes one question answered wrong or left blank.
type MissedEntry struct {
	ItemID        string          `json:"itemId"`
	QuestionText  string          `json:"questionText"`
	UserAnswer    string          `json:"userAnswer"`
	CorrectAnswer string          `json:"correctAnswer"`
	Options       *models.Options `json:"options,omitempty"`
}

// UserAnswerLabel renders the user answer, with the option text appended
// when the answer is a choice letter.
func (m MissedEntry) UserAnswerLabel() string {
	return answerLabel(m.UserAnswer, m.Options)
}

func (m MissedEntry) CorrectAnswerLabel() string {
	return answerLabel(m.CorrectAnswer, m.Options)
}

func answerLabel(answer string, opts *models.Options) string {
	if opts == nil {
		return answer
	}
	if text, ok := opts.Get(answer); ok {
		return answer + ": " + text
	}
	return answer
}

type Result struct {
	Score     int           `json:"score"`
	Total     int           `json:"total"`
	Missed    []MissedEntry `json:"missed"`
	MissedIDs []string      `json:"missedIds"`
}

// Percent is the rounded share of correct answers.
func (r Result) Percent() int {
	return Percent(r.Score, r.Total)
}

// Percent returns round(score/total*100), or 0 for an empty total.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Session is one attempt at a quiz set. It holds its own copy of the
// questions; the source set is never modified.
type Session struct {
	SetID          string              `json:"setId"`
	SetTitle       string              `json:"setTitle"`
	State          State               `json:"state"`
	Questions      models.QuizItemList `json:"questions"`
	Answers        map[string]string   `json:"answers"`
	Result         *Result             `json:"result,omitempty"`
	RetakingMissed bool                `json:"retakingMissed"`
}

// Start builds a new in-progress session from items. When filterIDs is
// non-nil only the items whose id is listed are asked and the session is
// marked as a retake of missed questions. Questions are shuffled on every
// call.
func Start(setID string, items []models.QuizItem, filterIDs []string) (*Session, error) {
	source := items
	if filterIDs != nil {
		source = make([]models.QuizItem, 0, len(filterIDs))
		for _, it := range items {
			if slices.Contains(filterIDs, it.ItemID()) {
				source = append(source, it)
			}
		}
	}
	if len(source) == 0 {
		return nil, ErrEmptySession
	}

	questions := make(models.QuizItemList, len(source))
	copy(questions, source)
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	return &Session{
		SetID:          setID,
		State:          StateInProgress,
		Questions:      questions,
		Answers:        make(map[string]string),
		RetakingMissed: filterIDs != nil,
	}, nil
}

// RecordAnswer stores the answer for itemID, replacing any earlier one. The
// value is not checked against the question.
func (s *Session) RecordAnswer(itemID, value string) error {
	if s.State != StateInProgress {
		return ErrNotInProgress
	}
	if s.Answers == nil {
		s.Answers = make(map[string]string)
	}
	s.Answers[itemID] = value
	return nil
}

// Finish scores the session and marks it completed. Scoring depends only on
// the questions and the recorded answers, so finishing again yields the same
// result.
func (s *Session) Finish() (Result, error) {
	if s.State == StateNotStarted || len(s.Questions) == 0 {
		return Result{}, ErrNotStarted
	}

	res := Result{
		Total:     len(s.Questions),
		Missed:    []MissedEntry{},
		MissedIDs: []string{},
	}
	for _, q := range s.Questions {
		answer, answered := s.Answers[q.ItemID()]
		if answered && answer == q.Answer() {
			res.Score++
			continue
		}
		if !answered {
			answer = Unanswered
		}
		res.Missed = append(res.Missed, missedEntry(q, answer))
		res.MissedIDs = append(res.MissedIDs, q.ItemID())
	}

	s.State = StateCompleted
	s.Result = &res
	return res, nil
}

func missedEntry(q models.QuizItem, answer string) MissedEntry {
	entry := MissedEntry{
		ItemID:        q.ItemID(),
		QuestionText:  q.Prompt(),
		UserAnswer:    answer,
		CorrectAnswer: q.Answer(),
	}
	switch v := q.(type) {
	case models.MultipleChoice:
		opts := v.Options
		entry.Options = &opts
	case models.TrueFalse:
		// true/false has no option text to show
	}
	return entry
}

// Retake starts a fresh session over every question of a completed session.
func (s *Session) Retake(items []models.QuizItem) (*Session, error) {
	if s.State != StateCompleted {
		return nil, ErrNotCompleted
	}
	next, err := Start(s.SetID, items, nil)
	if err != nil {
		return nil, err
	}
	next.SetTitle = s.SetTitle
	return next, nil
}

// RetakeMissed starts a session limited to the questions missed in this one.
func (s *Session) RetakeMissed(items []models.QuizItem) (*Session, error) {
	if s.State != StateCompleted || s.Result == nil {
		return nil, ErrNotCompleted
	}
	if len(s.Result.MissedIDs) == 0 {
		return nil, ErrNothingMissed
	}
	next, err := Start(s.SetID, items, s.Result.MissedIDs)
	if err != nil {
		return nil, err
	}
	next.SetTitle = s.SetTitle
	return next, nil
}

// Recordable reports whether the result of this session belongs in history.
func (s *Session) Recordable() bool {
	return !s.RetakingMissed
}
