// internal/models/studyset.go
package models

import "time"

type SetType string

const (
	SetTypeFlashcards SetType = "flashcards"
	SetTypeQuizzes    SetType = "quizzes"
)

func (t SetType) Valid() bool {
	return t == SetTypeFlashcards || t == SetTypeQuizzes
}

// DefaultTitle is the title a freshly created set starts with.
func (t SetType) DefaultTitle() string {
	if t == SetTypeQuizzes {
		return "New Exam"
	}
	return "New Deck"
}

// StudySet is a named, ordered collection of items owned by one user.
// Items keep their order by array position; sets inside a library are
// ordered by OrderIndex.
type StudySet struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     uint      `json:"-" gorm:"not null;index"`
	Title      string    `json:"title" gorm:"not null"`
	Type       SetType   `json:"type" gorm:"not null;size:16;index"`
	Items      Items     `json:"items"`
	OrderIndex int       `json:"orderIndex" gorm:"not null;default:0"`
	LastScore  *int      `json:"lastScore,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LegacyStudySet is a set from the shared pre-account collection. It has
// no owner and may be copied into any library.
type LegacyStudySet struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title"`
	Type      SetType   `json:"type" gorm:"size:16"`
	Items     Items     `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecoveredTitleSuffix is appended to the title of a recovered legacy set.
const RecoveredTitleSuffix = " (Recovered)"
