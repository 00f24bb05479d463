// internal/quiz/service.go
package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"learnly/internal/models"
)

var ErrNotQuizSet = errors.New("only quiz sets can be taken as a quiz")

// SetStore reads quiz sets and records the latest score on them.
type SetStore interface {
	Get(ctx context.Context, userID uint, setID string) (*models.StudySet, error)
	RecordScore(ctx context.Context, userID uint, setID string, percent int) error
}

// Notifier is told when one of a user's collections changed.
type Notifier interface {
	Notify(userID uint, collection models.Collection)
}

type nopNotifier struct{}

func (nopNotifier) Notify(uint, models.Collection) {}

// MissedView is a missed question with display labels for both answers.
type MissedView struct {
	MissedEntry
	UserAnswerLabel    string `json:"userAnswerLabel"`
	CorrectAnswerLabel string `json:"correctAnswerLabel"`
}

// Outcome is what the user sees after finishing a session.
type Outcome struct {
	Score          int          `json:"score"`
	Total          int          `json:"total"`
	Percent        int          `json:"percent"`
	Missed         []MissedView `json:"missed"`
	MissedIDs      []string     `json:"missedIds"`
	RetakingMissed bool         `json:"retakingMissed"`
	// Synced is false when the attempt could not be written to history.
	Synced bool `json:"synced"`
}

func newOutcome(s *Session, res Result) Outcome {
	missed := make([]MissedView, len(res.Missed))
	for i, m := range res.Missed {
		missed[i] = MissedView{
			MissedEntry:        m,
			UserAnswerLabel:    m.UserAnswerLabel(),
			CorrectAnswerLabel: m.CorrectAnswerLabel(),
		}
	}
	return Outcome{
		Score:          res.Score,
		Total:          res.Total,
		Percent:        res.Percent(),
		Missed:         missed,
		MissedIDs:      res.MissedIDs,
		RetakingMissed: s.RetakingMissed,
		Synced:         true,
	}
}

type Service struct {
	repo     *Repository
	sets     SetStore
	sessions SessionStore
	notify   Notifier
	log      *slog.Logger
	now      func() time.Time
	locks    userLocks
}

func NewService(repo *Repository, sets SetStore, sessions SessionStore, notify Notifier, log *slog.Logger) *Service {
	if notify == nil {
		notify = nopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		sets:     sets,
		sessions: sessions,
		notify:   notify,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) quizItems(ctx context.Context, userID uint, setID string) (*models.StudySet, []models.QuizItem, error) {
	set, err := s.sets.Get(ctx, userID, setID)
	if err != nil {
		return nil, nil, err
	}
	if set.Type != models.SetTypeQuizzes {
		return nil, nil, ErrNotQuizSet
	}
	items, ok := set.Items.QuizItems()
	if !ok {
		return nil, nil, ErrNotQuizSet
	}
	return set, items, nil
}

// Start begins a new attempt at a set, replacing any session in flight.
func (s *Service) Start(ctx context.Context, userID uint, setID string) (*Session, error) {
	defer s.locks.lock(userID)()

	set, items, err := s.quizItems(ctx, userID, setID)
	if err != nil {
		return nil, err
	}
	session, err := Start(set.ID, items, nil)
	if err != nil {
		return nil, err
	}
	session.SetTitle = set.Title
	if err := s.sessions.Save(ctx, userID, session); err != nil {
		return nil, err
	}
	s.log.Info("quiz started", "user_id", userID, "set_id", setID, "questions", len(session.Questions))
	return session, nil
}

func (s *Service) Current(ctx context.Context, userID uint) (*Session, error) {
	return s.sessions.Get(ctx, userID)
}

func (s *Service) Answer(ctx context.Context, userID uint, itemID, value string) (*Session, error) {
	defer s.locks.lock(userID)()

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := session.RecordAnswer(itemID, value); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, userID, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Finish scores the current session. The first finish of a full attempt is
// written to history and to the set's last score; finishing again or
// finishing a retake of missed questions writes nothing. Concurrent
// finishes of one user are serialized, so only one of them records.
func (s *Service) Finish(ctx context.Context, userID uint) (*Outcome, error) {
	defer s.locks.lock(userID)()

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	firstFinish := session.State == StateInProgress

	res, err := session.Finish()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, userID, session); err != nil {
		return nil, err
	}

	outcome := newOutcome(session, res)
	if firstFinish && session.Recordable() {
		outcome.Synced = s.record(ctx, userID, session, res)
	}
	return &outcome, nil
}

// record writes a finished attempt. Failures are logged and reported back
// as false; the result itself stands.
func (s *Service) record(ctx context.Context, userID uint, session *Session, res Result) bool {
	synced := true

	entry := &models.HistoryEntry{
		UserID:    userID,
		SetID:     session.SetID,
		SetTitle:  session.SetTitle,
		Score:     res.Score,
		Total:     res.Total,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		s.log.Error("record quiz history", "user_id", userID, "set_id", session.SetID, "error", err)
		synced = false
	} else {
		s.notify.Notify(userID, models.CollectionHistory)
	}

	if err := s.sets.RecordScore(ctx, userID, session.SetID, res.Percent()); err != nil {
		s.log.Warn("update last score", "user_id", userID, "set_id", session.SetID, "error", err)
		synced = false
	}
	return synced
}

// Retake starts a full new attempt at the set of the completed session,
// reading the set's current items.
func (s *Service) Retake(ctx context.Context, userID uint) (*Session, error) {
	return s.restart(ctx, userID, (*Session).Retake)
}

// RetakeMissed starts an attempt limited to the questions just missed. Its
// result is never recorded.
func (s *Service) RetakeMissed(ctx context.Context, userID uint) (*Session, error) {
	return s.restart(ctx, userID, (*Session).RetakeMissed)
}

func (s *Service) restart(ctx context.Context, userID uint, next func(*Session, []models.QuizItem) (*Session, error)) (*Session, error) {
	defer s.locks.lock(userID)()

	current, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.State != StateCompleted {
		return nil, ErrNotCompleted
	}
	_, items, err := s.quizItems(ctx, userID, current.SetID)
	if err != nil {
		return nil, err
	}
	session, err := next(current, items)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, userID, session); err != nil {
		return nil, err
	}
	s.log.Info("quiz restarted", "user_id", userID, "set_id", session.SetID, "retaking_missed", session.RetakingMissed)
	return session, nil
}

// Quit discards the current session without recording anything.
func (s *Service) Quit(ctx context.Context, userID uint) error {
	defer s.locks.lock(userID)()

	return s.sessions.Delete(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID uint, limit int) ([]models.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, userID, limit)
}
