// Package realtime loads the documents behind each subscribable collection.
package realtime

import (
	"context"
	"fmt"

	"learnly/internal/models"
)

// historySnapshotLimit bounds the history pushed to subscribers.
const historySnapshotLimit = 100

type SetLister interface {
	List(ctx context.Context, userID uint, setType models.SetType, query string) ([]models.StudySet, error)
	ListLegacy(ctx context.Context) ([]models.LegacyStudySet, error)
}

type HistoryLister interface {
	History(ctx context.Context, userID uint, limit int) ([]models.HistoryEntry, error)
}

// Source answers snapshot requests from the subscription hub.
type Source struct {
	sets    SetLister
	history HistoryLister
}

func NewSource(sets SetLister, history HistoryLister) *Source {
	return &Source{sets: sets, history: history}
}

func (s *Source) Snapshot(ctx context.Context, userID uint, collection models.Collection) (interface{}, error) {
	switch collection {
	case models.CollectionStudySets:
		return s.sets.List(ctx, userID, "", "")
	case models.CollectionHistory:
		return s.history.History(ctx, userID, historySnapshotLimit)
	case models.CollectionLegacySets:
		return s.sets.ListLegacy(ctx)
	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
}
