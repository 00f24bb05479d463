// internal/models/item.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	itemIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	itemIDLength   = 9
)

// ItemKind tags the concrete shape of an Item.
type ItemKind string

const (
	KindFlashcard      ItemKind = "flashcard"
	KindMultipleChoice ItemKind = "mc"
	KindTrueFalse      ItemKind = "tf"
)

// Item is a single entry of a study set. It is one of Flashcard,
// MultipleChoice or TrueFalse.
type Item interface {
	ItemID() string
	Kind() ItemKind
	isItem()
}

// QuizItem is an Item that can be asked in a quiz session.
type QuizItem interface {
	Item
	Prompt() string
	Answer() string
}

type Flashcard struct {
	ID         string `json:"id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Options holds the four choices of a multiple-choice question. Empty
// strings are allowed; the keys always exist.
type Options struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Get returns the option text for a lower-case letter.
func (o Options) Get(letter string) (string, bool) {
	switch letter {
	case "a":
		return o.A, true
	case "b":
		return o.B, true
	case "c":
		return o.C, true
	case "d":
		return o.D, true
	}
	return "", false
}

type MultipleChoice struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correctAnswer"`
}

type TrueFalse struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
}

func (f Flashcard) ItemID() string { return f.ID }
func (f Flashcard) Kind() ItemKind { return KindFlashcard }
func (Flashcard) isItem()          {}

func (m MultipleChoice) ItemID() string { return m.ID }
func (m MultipleChoice) Kind() ItemKind { return KindMultipleChoice }
func (m MultipleChoice) Prompt() string { return m.Question }
func (m MultipleChoice) Answer() string { return m.CorrectAnswer }
func (MultipleChoice) isItem()          {}

func (t TrueFalse) ItemID() string { return t.ID }
func (t TrueFalse) Kind() ItemKind { return KindTrueFalse }
func (t TrueFalse) Prompt() string { return t.Question }
func (t TrueFalse) Answer() string { return t.CorrectAnswer }
func (TrueFalse) isItem()          {}

// NewItemID returns a short random identifier for a new item.
func NewItemID() string {
	return gonanoid.MustGenerate(itemIDAlphabet, itemIDLength)
}

// BlankItem returns the empty item appended by the editor for a set type.
func BlankItem(setType SetType) Item {
	if setType == SetTypeQuizzes {
		return MultipleChoice{ID: NewItemID(), CorrectAnswer: "a"}
	}
	return Flashcard{ID: NewItemID()}
}

// Items is the ordered item list of a study set. It is stored as a single
// JSON array column.
type Items []Item

// itemWire is the JSON shape shared by every item kind. Flashcards carry no
// type tag.
type itemWire struct {
	ID            string   `json:"id"`
	Type          ItemKind `json:"type,omitempty"`
	Term          string   `json:"term,omitempty"`
	Definition    string   `json:"definition,omitempty"`
	Question      string   `json:"question,omitempty"`
	Options       *Options `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

var ErrUnknownItemType = errors.New("unknown item type")

// EncodeItem renders one item in its stored JSON shape.
func EncodeItem(it Item) (json.RawMessage, error) {
	switch v := it.(type) {
	case Flashcard:
		return json.Marshal(v)
	case MultipleChoice:
		return json.Marshal(struct {
			Type ItemKind `json:"type"`
			MultipleChoice
		}{KindMultipleChoice, v})
	case TrueFalse:
		return json.Marshal(struct {
			Type ItemKind `json:"type"`
			TrueFalse
		}{KindTrueFalse, v})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownItemType, it)
	}
}

// DecodeItem parses one item object. A missing type means flashcard.
func DecodeItem(data []byte) (Item, error) {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "", KindFlashcard:
		return Flashcard{ID: w.ID, Term: w.Term, Definition: w.Definition}, nil
	case KindMultipleChoice:
		var opts Options
		if w.Options != nil {
			opts = *w.Options
		}
		return MultipleChoice{ID: w.ID, Question: w.Question, Options: opts, CorrectAnswer: w.CorrectAnswer}, nil
	case KindTrueFalse:
		return TrueFalse{ID: w.ID, Question: w.Question, CorrectAnswer: w.CorrectAnswer}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemType, w.Type)
	}
}

func (items Items) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := EncodeItem(it)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return json.Marshal(raw)
}

func (items *Items) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Items, 0, len(raw))
	for i, r := range raw {
		it, err := DecodeItem(r)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, it)
	}
	*items = out
	return nil
}

// Value implements driver.Valuer.
func (items Items) Value() (driver.Value, error) {
	if items == nil {
		items = Items{}
	}
	b, err := items.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (items *Items) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*items = Items{}
		return nil
	case []byte:
		return items.UnmarshalJSON(v)
	case string:
		return items.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan items: unsupported type %T", src)
	}
}

func (Items) GormDataType() string { return "json" }

func (Items) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

// Index returns the position of the item with the given id, or -1.
func (items Items) Index(id string) int {
	for i, it := range items {
		if it.ItemID() == id {
			return i
		}
	}
	return -1
}

// QuizItems returns the quiz-capable items, in order. ok is false when the
// list contains a flashcard.
func (items Items) QuizItems() (out []QuizItem, ok bool) {
	out = make([]QuizItem, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case MultipleChoice:
			out = append(out, v)
		case TrueFalse:
			out = append(out, v)
		case Flashcard:
			return nil, false
		}
	}
	return out, true
}

// QuizItemList wraps a quiz item slice so it can travel as JSON.
type QuizItemList []QuizItem

func (l QuizItemList) MarshalJSON() ([]byte, error) {
	items := make(Items, len(l))
	for i, q := range l {
		items[i] = q
	}
	return items.MarshalJSON()
}

func (l *QuizItemList) UnmarshalJSON(data []byte) error {
	var items Items
	if err := items.UnmarshalJSON(data); err != nil {
		return err
	}
	out := make(QuizItemList, 0, len(items))
	for _, it := range items {
		q, ok := it.(QuizItem)
		if !ok {
			return fmt.Errorf("%w: %s is not a quiz item", ErrUnknownItemType, it.Kind())
		}
		out = append(out, q)
	}
	*l = out
	return nil
}
