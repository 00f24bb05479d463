// internal/studyset/cursor.go
package studyset

import (
	"encoding/json"
	"errors"

	"learnly/internal/models"
)

var ErrEmptyDeck = errors.New("deck has no cards")

// Cursor is a position in a deck being studied card by card. Moving past
// either end wraps around.
type Cursor struct {
	Index int         `json:"index"`
	Total int         `json:"total"`
	Next  int         `json:"next"`
	Prev  int         `json:"prev"`
	Item  models.Item `json:"-"`
}

func NewCursor(items models.Items, index int) (*Cursor, error) {
	n := len(items)
	if n == 0 {
		return nil, ErrEmptyDeck
	}
	index = wrap(index, n)
	return &Cursor{
		Index: index,
		Total: n,
		Next:  wrap(index+1, n),
		Prev:  wrap(index-1, n),
		Item:  items[index],
	}, nil
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (c Cursor) MarshalJSON() ([]byte, error) {
	item, err := models.EncodeItem(c.Item)
	if err != nil {
		return nil, err
	}
	type plain Cursor
	return json.Marshal(struct {
		plain
		Item json.RawMessage `json:"item"`
	}{plain(c), item})
}
