// internal/quiz/repository.go
package quiz

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"learnly/internal/models"
)

// Repository stores quiz history. Entries are only ever appended.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListHistory returns the user's attempts newest first. A limit of zero or
// less returns all of them.
func (r *Repository) ListHistory(ctx context.Context, userID uint, limit int) ([]models.HistoryEntry, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	entries := []models.HistoryEntry{}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
