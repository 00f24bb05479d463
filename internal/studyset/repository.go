// internal/studyset/repository.go
package studyset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"learnly/internal/models"
)

var (
	ErrSetNotFound    = errors.New("study set not found")
	ErrLegacyNotFound = errors.New("legacy set not found")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new set at the end of its owner's library.
func (r *Repository) Create(ctx context.Context, set *models.StudySet) error {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	if set.Items == nil {
		set.Items = models.Items{}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxIndex int
		err := tx.Model(&models.StudySet{}).
			Where("user_id = ? AND type = ?", set.UserID, set.Type).
			Select("COALESCE(MAX(order_index), -1)").
			Row().Scan(&maxIndex)
		if err != nil {
			return fmt.Errorf("next order index: %w", err)
		}
		set.OrderIndex = maxIndex + 1
		return tx.Create(set).Error
	})
}

// ListByUser returns the user's sets of one type whose title contains query
// (case-insensitive), in library order. An empty type lists every set.
func (r *Repository) ListByUser(ctx context.Context, userID uint, setType models.SetType, query string) ([]models.StudySet, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if setType != "" {
		q = q.Where("type = ?", setType)
	}
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(query))+"%")
	}

	sets := []models.StudySet{}
	if err := q.Order("order_index ASC, created_at ASC").Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *Repository) Get(ctx context.Context, userID uint, setID string) (*models.StudySet, error) {
	var set models.StudySet
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", setID, userID).First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *Repository) UpdateTitle(ctx context.Context, userID uint, setID, title string) (*models.StudySet, error) {
	return r.update(ctx, userID, setID, map[string]any{"title": title})
}

func (r *Repository) UpdateLastScore(ctx context.Context, userID uint, setID string, score int) error {
	_, err := r.update(ctx, userID, setID, map[string]any{"last_score": score})
	return err
}

func (r *Repository) update(ctx context.Context, userID uint, setID string, fields map[string]any) (*models.StudySet, error) {
	var set *models.StudySet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.StudySet{}).
			Where("id = ? AND user_id = ?", setID, userID).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSetNotFound
		}
		set = &models.StudySet{}
		return tx.First(set, "id = ?", setID).Error
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// UpdateItems replaces the item list with the result of fn, reading and
// writing inside one transaction.
func (r *Repository) UpdateItems(ctx context.Context, userID uint, setID string, fn func(*models.StudySet) (models.Items, error)) (*models.StudySet, error) {
	var set models.StudySet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", setID, userID).First(&set).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSetNotFound
		}
		if err != nil {
			return err
		}

		items, err := fn(&set)
		if err != nil {
			return err
		}
		if items == nil {
			items = models.Items{}
		}
		set.Items = items
		return tx.Model(&set).Update("items", items).Error
	})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *Repository) Delete(ctx context.Context, userID uint, setID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", setID, userID).Delete(&models.StudySet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSetNotFound
	}
	return nil
}

// SetOrder rewrites order_index so that it equals each set's position in ids.
func (r *Repository) SetOrder(ctx context.Context, userID uint, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			err := tx.Model(&models.StudySet{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("order_index", i).Error
			if err != nil {
				return fmt.Errorf("order set %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *Repository) ListLegacy(ctx context.Context) ([]models.LegacyStudySet, error) {
	sets := []models.LegacyStudySet{}
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *Repository) GetLegacy(ctx context.Context, id string) (*models.LegacyStudySet, error) {
	var set models.LegacyStudySet
	err := r.db.WithContext(ctx).First(&set, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLegacyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
