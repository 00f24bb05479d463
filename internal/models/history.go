// internal/models/history.go
package models

import "time"

// HistoryEntry records one completed quiz attempt. Entries are written once
// and never changed.
type HistoryEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;index"`
	SetID     string    `json:"setId" gorm:"size:36;index"`
	SetTitle  string    `json:"setTitle"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

func (HistoryEntry) TableName() string {
	return "quiz_history"
}
