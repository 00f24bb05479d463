package studyset

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"learnly/internal/models"
	"learnly/pkg/database"
	"learnly/pkg/logger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []models.Collection
}

func (n *recordingNotifier) Notify(_ uint, c models.Collection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestService(t *testing.T) (*Service, *recordingNotifier, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	n := &recordingNotifier{}
	return NewService(NewRepository(db), n, logger.Discard()), n, db
}

func TestCreateUsesDefaultTitleAndAppendsRank(t *testing.T) {
	svc, n, _ := newTestService(t)
	ctx := context.Background()

	deck, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)
	exam, err := svc.Create(ctx, 1, models.SetTypeQuizzes)
	require.NoError(t, err)
	second, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)

	assert.Equal(t, "New Deck", deck.Title)
	assert.Equal(t, "New Exam", exam.Title)
	assert.Empty(t, deck.Items)
	assert.Len(t, deck.ID, 36)
	assert.Equal(t, 0, deck.OrderIndex)
	assert.Equal(t, 0, exam.OrderIndex)
	assert.Equal(t, 1, second.OrderIndex)
	assert.Equal(t, 3, n.count())

	_, err = svc.Create(ctx, 1, "notes")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestListFiltersByOwnerTypeAndTitle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	bio, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)
	_, err = svc.Rename(ctx, 1, bio.ID, "Biology Terms")
	require.NoError(t, err)
	chem, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)
	_, err = svc.Rename(ctx, 1, chem.ID, "Chemistry")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, models.SetTypeQuizzes)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, models.SetTypeFlashcards)
	require.NoError(t, err)

	decks, err := svc.List(ctx, 1, models.SetTypeFlashcards, "")
	require.NoError(t, err)
	require.Len(t, decks, 2)
	assert.Equal(t, bio.ID, decks[0].ID)
	assert.Equal(t, chem.ID, decks[1].ID)

	found, err := svc.List(ctx, 1, models.SetTypeFlashcards, "bIoLo")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Biology Terms", found[0].Title)

	all, err := svc.List(ctx, 1, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListSearchMatchesWildcardsLiterally(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"50% off", "500 words", "snake_case", "snakeXcase", `C:\notes`} {
		set, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
		require.NoError(t, err)
		_, err = svc.Rename(ctx, 1, set.ID, title)
		require.NoError(t, err)
	}

	titles := func(query string) []string {
		sets, err := svc.List(ctx, 1, "", query)
		require.NoError(t, err)
		out := make([]string, len(sets))
		for i, s := range sets {
			out[i] = s.Title
		}
		return out
	}

	assert.Equal(t, []string{"50% off"}, titles("0%"))
	assert.Equal(t, []string{"snake_case"}, titles("e_c"))
	assert.Equal(t, []string{`C:\notes`}, titles(`:\n`))
	assert.Empty(t, titles("%%"))
}

func TestGetIsScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	set, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, set.ID)
	assert.ErrorIs(t, err, ErrSetNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, set.ID), ErrSetNotFound)

	require.NoError(t, svc.Delete(ctx, 1, set.ID))
	_, err = svc.Get(ctx, 1, set.ID)
	assert.ErrorIs(t, err, ErrSetNotFound)
}

func TestRenameRejectsBlankTitle(t *testing.T) {
	svc, _, _ := newTestService(t)
	set, err := svc.Create(context.Background(), 1, models.SetTypeFlashcards)
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), 1, set.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestMoveSetRewritesRanks(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		set, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
		require.NoError(t, err)
		ids = append(ids, set.ID)
	}

	moved, err := svc.MoveSet(ctx, 1, ids[2], -1)
	require.NoError(t, err)
	require.Len(t, moved, 3)
	assert.Equal(t, []string{ids[0], ids[2], ids[1]}, []string{moved[0].ID, moved[1].ID, moved[2].ID})

	listed, err := svc.List(ctx, 1, models.SetTypeFlashcards, "")
	require.NoError(t, err)
	for i, set := range listed {
		assert.Equal(t, i, set.OrderIndex)
		assert.Equal(t, moved[i].ID, set.ID)
	}

	// the first set cannot move up
	unchanged, err := svc.MoveSet(ctx, 1, ids[0], -1)
	require.NoError(t, err)
	assert.Equal(t, ids[0], unchanged[0].ID)

	_, err = svc.MoveSet(ctx, 1, ids[0], 2)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestItemEditing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	exam, err := svc.Create(ctx, 1, models.SetTypeQuizzes)
	require.NoError(t, err)

	exam, err = svc.AddBlankItem(ctx, 1, exam.ID)
	require.NoError(t, err)
	require.Len(t, exam.Items, 1)
	blank, ok := exam.Items[0].(models.MultipleChoice)
	require.True(t, ok)
	assert.Equal(t, "a", blank.CorrectAnswer)

	blank.Question = "2+2?"
	blank.Options = models.Options{A: "3", B: "4", C: "5", D: "22"}
	blank.CorrectAnswer = "b"
	exam, err = svc.SaveItem(ctx, 1, exam.ID, blank)
	require.NoError(t, err)
	require.Len(t, exam.Items, 1)
	assert.Equal(t, blank, exam.Items[0])

	tf := models.TrueFalse{ID: "tf1", Question: "Sky is blue", CorrectAnswer: "true"}
	exam, err = svc.SaveItem(ctx, 1, exam.ID, tf)
	require.NoError(t, err)
	require.Len(t, exam.Items, 2)

	_, err = svc.SaveItem(ctx, 1, exam.ID, models.Flashcard{ID: "f1", Term: "x"})
	assert.ErrorIs(t, err, ErrInvalidItem)
	_, err = svc.SaveItem(ctx, 1, exam.ID, models.TrueFalse{ID: "tf2", CorrectAnswer: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidItem)
	_, err = svc.SaveItem(ctx, 1, exam.ID, models.MultipleChoice{ID: "mc2", CorrectAnswer: "e"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	exam, err = svc.MoveItem(ctx, 1, exam.ID, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, "tf1", exam.Items[0].ItemID())

	exam, err = svc.MoveItem(ctx, 1, exam.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "tf1", exam.Items[0].ItemID())

	exam, err = svc.DeleteItem(ctx, 1, exam.ID, "tf1")
	require.NoError(t, err)
	require.Len(t, exam.Items, 1)
	assert.Equal(t, blank.ID, exam.Items[0].ItemID())

	_, err = svc.DeleteItem(ctx, 1, exam.ID, "tf1")
	assert.ErrorIs(t, err, ErrItemNotFound)

	stored, err := svc.Get(ctx, 1, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.Items, stored.Items)
}

func TestImportAppendsParsedItems(t *testing.T) {
	svc, n, _ := newTestService(t)
	ctx := context.Background()

	deck, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)
	deck, err = svc.AddBlankItem(ctx, 1, deck.ID)
	require.NoError(t, err)

	deck, added, err := svc.Import(ctx, 1, deck.ID, "Front: Dog Back: Perro\nFront: Cat Back: Gato")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	require.Len(t, deck.Items, 3)
	assert.Equal(t, "Perro", deck.Items[1].(models.Flashcard).Definition)

	before := n.count()
	_, _, err = svc.Import(ctx, 1, deck.ID, "nothing to see here")
	assert.ErrorIs(t, err, ErrNothingImported)
	assert.Equal(t, before, n.count())

	stored, err := svc.Get(ctx, 1, deck.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 3)
}

func TestRecordScore(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	exam, err := svc.Create(ctx, 1, models.SetTypeQuizzes)
	require.NoError(t, err)
	assert.Nil(t, exam.LastScore)

	require.NoError(t, svc.RecordScore(ctx, 1, exam.ID, 75))
	stored, err := svc.Get(ctx, 1, exam.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastScore)
	assert.Equal(t, 75, *stored.LastScore)

	assert.ErrorIs(t, svc.RecordScore(ctx, 1, "missing", 10), ErrSetNotFound)
}

func TestRecoverLegacy(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	legacy := models.LegacyStudySet{
		ID:    "legacy-1",
		Title: "Old Deck",
		Items: models.Items{models.Flashcard{ID: "f1", Term: "a", Definition: "b"}},
	}
	require.NoError(t, db.Create(&legacy).Error)

	listed, err := svc.ListLegacy(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	set, err := svc.RecoverLegacy(ctx, 7, "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, "Old Deck (Recovered)", set.Title)
	assert.Equal(t, models.SetTypeFlashcards, set.Type)
	assert.Equal(t, legacy.Items, set.Items)

	mine, err := svc.List(ctx, 7, models.SetTypeFlashcards, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.RecoverLegacy(ctx, 7, "nope")
	assert.ErrorIs(t, err, ErrLegacyNotFound)
}

func TestStudyWrapsAround(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	deck, err := svc.Create(ctx, 1, models.SetTypeFlashcards)
	require.NoError(t, err)
	_, err = svc.Study(ctx, 1, deck.ID, 0)
	assert.ErrorIs(t, err, ErrEmptyDeck)

	deck, _, err = svc.Import(ctx, 1, deck.ID, "Front: 1 Back: one Front: 2 Back: two")
	require.NoError(t, err)

	c, err := svc.Study(ctx, 1, deck.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Next)
	assert.Equal(t, 0, c.Prev)
	assert.Equal(t, "2", c.Item.(models.Flashcard).Term)
}
