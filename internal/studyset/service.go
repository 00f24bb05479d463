// internal/studyset/service.go
package studyset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"learnly/internal/importer"
	"learnly/internal/models"
	"learnly/internal/reorder"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidItem     = errors.New("invalid item")
	ErrInvalidType     = errors.New("invalid set type")
	ErrInvalidMove     = errors.New("direction must be -1 or 1")
	ErrNothingImported = errors.New("no items found in text")
	ErrEmptyTitle      = errors.New("title must not be empty")
)

// Notifier is told when one of a user's collections changed.
type Notifier interface {
	Notify(userID uint, collection models.Collection)
}

type nopNotifier struct{}

func (nopNotifier) Notify(uint, models.Collection) {}

type Service struct {
	repo   *Repository
	notify Notifier
	log    *slog.Logger
}

func NewService(repo *Repository, notify Notifier, log *slog.Logger) *Service {
	if notify == nil {
		notify = nopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, notify: notify, log: log}
}

func (s *Service) changed(userID uint) {
	s.notify.Notify(userID, models.CollectionStudySets)
}

func (s *Service) List(ctx context.Context, userID uint, setType models.SetType, query string) ([]models.StudySet, error) {
	if setType != "" && !setType.Valid() {
		return nil, ErrInvalidType
	}
	return s.repo.ListByUser(ctx, userID, setType, query)
}

func (s *Service) Get(ctx context.Context, userID uint, setID string) (*models.StudySet, error) {
	return s.repo.Get(ctx, userID, setID)
}

// Create adds an empty set with the default title for its type.
func (s *Service) Create(ctx context.Context, userID uint, setType models.SetType) (*models.StudySet, error) {
	if !setType.Valid() {
		return nil, ErrInvalidType
	}
	set := &models.StudySet{
		UserID: userID,
		Title:  setType.DefaultTitle(),
		Type:   setType,
		Items:  models.Items{},
	}
	if err := s.repo.Create(ctx, set); err != nil {
		return nil, fmt.Errorf("create set: %w", err)
	}
	s.log.Info("study set created", "user_id", userID, "set_id", set.ID, "type", setType)
	s.changed(userID)
	return set, nil
}

func (s *Service) Rename(ctx context.Context, userID uint, setID, title string) (*models.StudySet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	set, err := s.repo.UpdateTitle(ctx, userID, setID, title)
	if err != nil {
		return nil, err
	}
	s.changed(userID)
	return set, nil
}

func (s *Service) Delete(ctx context.Context, userID uint, setID string) error {
	if err := s.repo.Delete(ctx, userID, setID); err != nil {
		return err
	}
	s.log.Info("study set deleted", "user_id", userID, "set_id", setID)
	s.changed(userID)
	return nil
}

// MoveSet shifts a set by offset among the sets of the same type and
// rewrites every rank from the resulting positions.
func (s *Service) MoveSet(ctx context.Context, userID uint, setID string, offset int) ([]models.StudySet, error) {
	if !reorder.ValidOffset(offset) {
		return nil, ErrInvalidMove
	}
	set, err := s.repo.Get(ctx, userID, setID)
	if err != nil {
		return nil, err
	}
	sets, err := s.repo.ListByUser(ctx, userID, set.Type, "")
	if err != nil {
		return nil, err
	}

	index := -1
	for i := range sets {
		if sets[i].ID == setID {
			index = i
			break
		}
	}
	moved := reorder.Move(sets, index, offset)

	ids := make([]string, len(moved))
	for i := range moved {
		ids[i] = moved[i].ID
		moved[i].OrderIndex = i
	}
	if err := s.repo.SetOrder(ctx, userID, ids); err != nil {
		return nil, err
	}
	s.changed(userID)
	return moved, nil
}

// AddBlankItem appends an empty item of the set's kind.
func (s *Service) AddBlankItem(ctx context.Context, userID uint, setID string) (*models.StudySet, error) {
	set, err := s.repo.UpdateItems(ctx, userID, setID, func(set *models.StudySet) (models.Items, error) {
		return append(set.Items, models.BlankItem(set.Type)), nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(userID)
	return set, nil
}

// SaveItem replaces the item with the same id, or appends it when the set
// has no such item.
func (s *Service) SaveItem(ctx context.Context, userID uint, setID string, item models.Item) (*models.StudySet, error) {
	set, err := s.repo.UpdateItems(ctx, userID, setID, func(set *models.StudySet) (models.Items, error) {
		if err := validateItem(set.Type, item); err != nil {
			return nil, err
		}
		items := append(models.Items{}, set.Items...)
		if i := items.Index(item.ItemID()); i >= 0 {
			items[i] = item
			return items, nil
		}
		return append(items, item), nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(userID)
	return set, nil
}

func validateItem(setType models.SetType, item models.Item) error {
	if item.ItemID() == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	switch v := item.(type) {
	case models.Flashcard:
		if setType != models.SetTypeFlashcards {
			return fmt.Errorf("%w: flashcard in a quiz set", ErrInvalidItem)
		}
	case models.MultipleChoice:
		if setType != models.SetTypeQuizzes {
			return fmt.Errorf("%w: question in a flashcard deck", ErrInvalidItem)
		}
		if _, ok := v.Options.Get(v.CorrectAnswer); !ok {
			return fmt.Errorf("%w: answer %q is not one of a-d", ErrInvalidItem, v.CorrectAnswer)
		}
	case models.TrueFalse:
		if setType != models.SetTypeQuizzes {
			return fmt.Errorf("%w: question in a flashcard deck", ErrInvalidItem)
		}
		if v.CorrectAnswer != "true" && v.CorrectAnswer != "false" {
			return fmt.Errorf("%w: answer %q is not true or false", ErrInvalidItem, v.CorrectAnswer)
		}
	}
	return nil
}

func (s *Service) DeleteItem(ctx context.Context, userID uint, setID, itemID string) (*models.StudySet, error) {
	set, err := s.repo.UpdateItems(ctx, userID, setID, func(set *models.StudySet) (models.Items, error) {
		i := set.Items.Index(itemID)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		items := append(models.Items{}, set.Items[:i]...)
		return append(items, set.Items[i+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(userID)
	return set, nil
}

// MoveItem reorders the item at index by offset. An out-of-range target
// leaves the set unchanged.
func (s *Service) MoveItem(ctx context.Context, userID uint, setID string, index, offset int) (*models.StudySet, error) {
	if !reorder.ValidOffset(offset) {
		return nil, ErrInvalidMove
	}
	set, err := s.repo.UpdateItems(ctx, userID, setID, func(set *models.StudySet) (models.Items, error) {
		return reorder.Move(set.Items, index, offset), nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(userID)
	return set, nil
}

// Import parses text in the set's format and appends the result. Text that
// yields no items changes nothing.
func (s *Service) Import(ctx context.Context, userID uint, setID, text string) (*models.StudySet, int, error) {
	var added int
	set, err := s.repo.UpdateItems(ctx, userID, setID, func(set *models.StudySet) (models.Items, error) {
		parsed := importer.Import(set.Type, text)
		if len(parsed) == 0 {
			return nil, ErrNothingImported
		}
		added = len(parsed)
		items := append(models.Items{}, set.Items...)
		return append(items, parsed...), nil
	})
	if err != nil {
		return nil, 0, err
	}
	s.log.Info("items imported", "user_id", userID, "set_id", setID, "count", added)
	s.changed(userID)
	return set, added, nil
}

// RecordScore stores the latest percent shown on the set card.
func (s *Service) RecordScore(ctx context.Context, userID uint, setID string, percent int) error {
	if err := s.repo.UpdateLastScore(ctx, userID, setID, percent); err != nil {
		return err
	}
	s.changed(userID)
	return nil
}

func (s *Service) ListLegacy(ctx context.Context) ([]models.LegacyStudySet, error) {
	return s.repo.ListLegacy(ctx)
}

// RecoverLegacy copies a legacy set into the user's library.
func (s *Service) RecoverLegacy(ctx context.Context, userID uint, legacyID string) (*models.StudySet, error) {
	legacy, err := s.repo.GetLegacy(ctx, legacyID)
	if err != nil {
		return nil, err
	}
	setType := legacy.Type
	if !setType.Valid() {
		setType = models.SetTypeFlashcards
	}
	set := &models.StudySet{
		UserID: userID,
		Title:  legacy.Title + models.RecoveredTitleSuffix,
		Type:   setType,
		Items:  append(models.Items{}, legacy.Items...),
	}
	if err := s.repo.Create(ctx, set); err != nil {
		return nil, fmt.Errorf("recover legacy set: %w", err)
	}
	s.log.Info("legacy set recovered", "user_id", userID, "legacy_id", legacyID, "set_id", set.ID)
	s.changed(userID)
	return set, nil
}

// Study returns the flashcard at index together with its neighbours.
func (s *Service) Study(ctx context.Context, userID uint, setID string, index int) (*Cursor, error) {
	set, err := s.repo.Get(ctx, userID, setID)
	if err != nil {
		return nil, err
	}
	return NewCursor(set.Items, index)
}
