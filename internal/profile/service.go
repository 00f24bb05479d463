// internal/profile/service.go
package profile

import (
	"context"
	"errors"
	"math"
	"strings"

	"learnly/internal/models"
	"learnly/internal/quiz"
)

const recentAttempts = 10

var ErrEmptyDisplayName = errors.New("display name must not be empty")

type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateDisplayName(ctx context.Context, id uint, name string) (*models.User, error)
}

type HistoryStore interface {
	ListHistory(ctx context.Context, userID uint, limit int) ([]models.HistoryEntry, error)
}

// Stats summarises every recorded attempt of a user.
type Stats struct {
	Attempts       int `json:"attempts"`
	BestPercent    int `json:"bestPercent"`
	AveragePercent int `json:"averagePercent"`
}

type Profile struct {
	User   *models.User          `json:"user"`
	Stats  Stats                 `json:"stats"`
	Recent []models.HistoryEntry `json:"recent"`
}

type Service struct {
	users   UserStore
	history HistoryStore
}

func NewService(users UserStore, history HistoryStore) *Service {
	return &Service{users: users, history: history}
}

func (s *Service) Get(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListHistory(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	recent := entries
	if len(recent) > recentAttempts {
		recent = recent[:recentAttempts]
	}
	return &Profile{User: user, Stats: ComputeStats(entries), Recent: recent}, nil
}

func (s *Service) UpdateDisplayName(ctx context.Context, userID uint, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyDisplayName
	}
	return s.users.UpdateDisplayName(ctx, userID, name)
}

// ComputeStats derives attempt statistics. The average is taken over the
// per-attempt percents, so every attempt weighs the same.
func ComputeStats(entries []models.HistoryEntry) Stats {
	stats := Stats{Attempts: len(entries)}
	if len(entries) == 0 {
		return stats
	}
	sum := 0
	for _, e := range entries {
		p := quiz.Percent(e.Score, e.Total)
		sum += p
		stats.BestPercent = max(stats.BestPercent, p)
	}
	stats.AveragePercent = int(math.Round(float64(sum) / float64(len(entries))))
	return stats
}
