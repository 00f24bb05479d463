// internal/models/collection.go
package models

import "fmt"

// Collection names a live list a client can subscribe to.
type Collection string

const (
	CollectionStudySets  Collection = "studySets"
	CollectionHistory    Collection = "quizHistory"
	CollectionLegacySets Collection = "legacySets"
)

func (c Collection) Valid() bool {
	switch c {
	case CollectionStudySets, CollectionHistory, CollectionLegacySets:
		return true
	}
	return false
}

// Path scopes a collection to a user. The legacy collection is shared.
func (c Collection) Path(userID uint) string {
	if c == CollectionLegacySets {
		return "legacy/" + string(c)
	}
	return fmt.Sprintf("users/%d/%s", userID, c)
}
