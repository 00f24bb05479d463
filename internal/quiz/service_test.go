package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnly/internal/models"
	"learnly/internal/studyset"
	"learnly/pkg/database"
	"learnly/pkg/logger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[models.Collection]int
}

func (n *recordingNotifier) Notify(_ uint, c models.Collection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[models.Collection]int{}
	}
	n.calls[c]++
}

func (n *recordingNotifier) count(c models.Collection) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[c]
}

type fixture struct {
	svc    *Service
	sets   *studyset.Service
	notify *recordingNotifier
	setID  string
}

const examText = `Q: Capital of France?
A: Berlin
B: Paris
C: Rome
D: Madrid
Ans: B

Q: The earth is flat.
Ans: False`

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	n := &recordingNotifier{}
	sets := studyset.NewService(studyset.NewRepository(db), n, logger.Discard())
	svc := NewService(NewRepository(db), sets, NewMemoryStore(), n, logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	exam, err := sets.Create(ctx, 1, models.SetTypeQuizzes)
	require.NoError(t, err)
	_, err = sets.Rename(ctx, 1, exam.ID, "Geography")
	require.NoError(t, err)
	_, _, err = sets.Import(ctx, 1, exam.ID, examText)
	require.NoError(t, err)

	return &fixture{svc: svc, sets: sets, notify: n, setID: exam.ID}
}

func answerKey(s *Session) map[string]string {
	key := map[string]string{}
	for _, q := range s.Questions {
		key[q.Prompt()] = q.ItemID()
	}
	return key
}

func TestServiceFullAttemptIsRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Start(ctx, 1, f.setID)
	require.NoError(t, err)
	assert.Equal(t, "Geography", session.SetTitle)
	assert.Len(t, session.Questions, 2)

	ids := answerKey(session)
	_, err = f.svc.Answer(ctx, 1, ids["Capital of France?"], "b")
	require.NoError(t, err)

	outcome, err := f.svc.Finish(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Score)
	assert.Equal(t, 2, outcome.Total)
	assert.Equal(t, 50, outcome.Percent)
	assert.True(t, outcome.Synced)
	assert.False(t, outcome.RetakingMissed)
	require.Len(t, outcome.Missed, 1)
	assert.Equal(t, Unanswered, outcome.Missed[0].UserAnswer)
	assert.Equal(t, "false", outcome.Missed[0].CorrectAnswerLabel)

	history, err := f.svc.History(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Geography", history[0].SetTitle)
	assert.Equal(t, 1, history[0].Score)
	assert.Equal(t, 2, history[0].Total)

	set, err := f.sets.Get(ctx, 1, f.setID)
	require.NoError(t, err)
	require.NotNil(t, set.LastScore)
	assert.Equal(t, 50, *set.LastScore)
	assert.Equal(t, 1, f.notify.count(models.CollectionHistory))

	// finishing again shows the same result without a second entry
	again, err := f.svc.Finish(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, outcome.Score, again.Score)
	history, err = f.svc.History(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestServiceRetakeMissedIsNotRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Start(ctx, 1, f.setID)
	require.NoError(t, err)
	ids := answerKey(session)
	_, err = f.svc.Answer(ctx, 1, ids["Capital of France?"], "a")
	require.NoError(t, err)
	_, err = f.svc.Answer(ctx, 1, ids["The earth is flat."], "false")
	require.NoError(t, err)

	outcome, err := f.svc.Finish(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{ids["Capital of France?"]}, outcome.MissedIDs)
	assert.Equal(t, "a: Berlin", outcome.Missed[0].UserAnswerLabel)
	assert.Equal(t, "b: Paris", outcome.Missed[0].CorrectAnswerLabel)

	retake, err := f.svc.RetakeMissed(ctx, 1)
	require.NoError(t, err)
	assert.True(t, retake.RetakingMissed)
	require.Len(t, retake.Questions, 1)
	assert.Equal(t, ids["Capital of France?"], retake.Questions[0].ItemID())

	_, err = f.svc.Answer(ctx, 1, ids["Capital of France?"], "b")
	require.NoError(t, err)
	outcome, err = f.svc.Finish(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, outcome.Percent)
	assert.True(t, outcome.RetakingMissed)

	history, err := f.svc.History(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	set, err := f.sets.Get(ctx, 1, f.setID)
	require.NoError(t, err)
	assert.Equal(t, 50, *set.LastScore)

	_, err = f.svc.RetakeMissed(ctx, 1)
	assert.ErrorIs(t, err, ErrNothingMissed)

	full, err := f.svc.Retake(ctx, 1)
	require.NoError(t, err)
	assert.False(t, full.RetakingMissed)
	assert.Len(t, full.Questions, 2)
}

func TestServiceStartErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, 1, "missing")
	assert.ErrorIs(t, err, studyset.ErrSetNotFound)

	deck, err := f.sets.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, 1, deck.ID)
	assert.ErrorIs(t, err, ErrNotQuizSet)

	empty, err := f.sets.Create(ctx, 1, models.SetTypeQuizzes)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, 1, empty.ID)
	assert.ErrorIs(t, err, ErrEmptySession)

	_, err = f.svc.Current(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = f.svc.Finish(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestServiceRetakeRequiresCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, 1, f.setID)
	require.NoError(t, err)
	_, err = f.svc.Retake(ctx, 1)
	assert.ErrorIs(t, err, ErrNotCompleted)

	require.NoError(t, f.svc.Quit(ctx, 1))
	_, err = f.svc.Current(ctx, 1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

type failingSets struct {
	SetStore
}

func (failingSets) RecordScore(context.Context, uint, string, int) error {
	return errors.New("disk full")
}

func TestServiceFinishSurvivesWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.sets = failingSets{SetStore: f.sets}

	_, err := f.svc.Start(ctx, 1, f.setID)
	require.NoError(t, err)

	outcome, err := f.svc.Finish(ctx, 1)
	require.NoError(t, err)
	assert.False(t, outcome.Synced)
	assert.Equal(t, 0, outcome.Score)
}

// slowStore widens the gap between reading and saving a session.
type slowStore struct {
	*MemoryStore
}

func (s slowStore) Save(ctx context.Context, userID uint, session *Session) error {
	time.Sleep(5 * time.Millisecond)
	return s.MemoryStore.Save(ctx, userID, session)
}

func TestServiceConcurrentFinishRecordsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.sessions = slowStore{MemoryStore: NewMemoryStore()}

	_, err := f.svc.Start(ctx, 1, f.setID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make([]*Outcome, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], errs[i] = f.svc.Finish(ctx, 1)
		}()
	}
	wg.Wait()

	for i := range 2 {
		require.NoError(t, errs[i])
		assert.Equal(t, 2, outcomes[i].Total)
	}

	history, err := f.svc.History(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, f.notify.count(models.CollectionHistory))
}
