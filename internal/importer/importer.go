// Package importer turns pasted text into study items. Fragments that do not
// parse are skipped; importing never fails.
package importer

import (
	"regexp"
	"strings"

	"learnly/internal/models"
)

var (
	frontLabel = regexp.MustCompile(`(?i)front:`)
	backLabel  = regexp.MustCompile(`(?i)back:`)

	blockSeparator = regexp.MustCompile(`\n\s*\n`)
	// Quiz labels match their first occurrence anywhere in a block; each
	// capture runs to the end of its line.
	questionLabel = regexp.MustCompile(`(?i)Q:\s*(.*)`)
	answerLabel   = regexp.MustCompile(`(?i)Ans:\s*([A-D]|True|False)`)
	optionLabels  = [4]*regexp.Regexp{
		regexp.MustCompile(`(?i)A:\s*(.*)`),
		regexp.MustCompile(`(?i)B:\s*(.*)`),
		regexp.MustCompile(`(?i)C:\s*(.*)`),
		regexp.MustCompile(`(?i)D:\s*(.*)`),
	}
)

// defaultChoice is used when a multiple-choice block has no usable Ans: letter.
const defaultChoice = "a"

// ImportFlashcards extracts every "Front: <term> Back: <definition>" segment.
// A segment runs until the next Front: label or the end of the text.
func ImportFlashcards(text string) []models.Flashcard {
	ids := newIDSource()
	starts := frontLabel.FindAllStringIndex(text, -1)
	cards := make([]models.Flashcard, 0, len(starts))

	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		segment := text[loc[1]:end]

		back := backLabel.FindStringIndex(segment)
		if back == nil {
			continue
		}
		cards = append(cards, models.Flashcard{
			ID:         ids.next(),
			Term:       strings.TrimSpace(segment[:back[0]]),
			Definition: strings.TrimSpace(segment[back[1]:]),
		})
	}
	return cards
}

// ImportQuizItems parses blank-line separated blocks of
//
//	Q: <question>
//	A: .. B: .. C: .. D: ..
//	Ans: <letter|True|False>
//
// Labels may sit anywhere in a block, so "1. Q: ..." and the single-line
// "Q: .. A: .. Ans: B" form are accepted.
// A block with all four options becomes a multiple-choice item. A block
// without the full option set but with Ans: becomes true/false, even when
// some options are present. Anything else is dropped.
func ImportQuizItems(text string) []models.QuizItem {
	ids := newIDSource()
	blocks := blockSeparator.Split(text, -1)
	items := make([]models.QuizItem, 0, len(blocks))

	for _, block := range blocks {
		q := questionLabel.FindStringSubmatch(block)
		if q == nil {
			continue
		}
		question := strings.TrimSpace(q[1])

		var opts [4]string
		allOptions := true
		for i, re := range optionLabels {
			m := re.FindStringSubmatch(block)
			if m == nil {
				allOptions = false
				continue
			}
			opts[i] = strings.TrimSpace(m[1])
		}

		answer := ""
		if m := answerLabel.FindStringSubmatch(block); m != nil {
			answer = strings.ToLower(m[1])
		}

		switch {
		case allOptions:
			correct := answer
			if !isChoiceLetter(correct) {
				correct = defaultChoice
			}
			items = append(items, models.MultipleChoice{
				ID:            ids.next(),
				Question:      question,
				Options:       models.Options{A: opts[0], B: opts[1], C: opts[2], D: opts[3]},
				CorrectAnswer: correct,
			})
		case answer != "":
			items = append(items, models.TrueFalse{
				ID:            ids.next(),
				Question:      question,
				CorrectAnswer: answer,
			})
		}
	}
	return items
}

func isChoiceLetter(s string) bool {
	switch s {
	case "a", "b", "c", "d":
		return true
	}
	return false
}

// idSource hands out item ids that are unique within one import call.
type idSource map[string]struct{}

func newIDSource() idSource {
	return make(idSource)
}

func (s idSource) next() string {
	for {
		id := models.NewItemID()
		if _, dup := s[id]; !dup {
			s[id] = struct{}{}
			return id
		}
	}
}

// Import parses text in the format that matches the set type.
func Import(setType models.SetType, text string) models.Items {
	var out models.Items
	switch setType {
	case models.SetTypeQuizzes:
		for _, q := range ImportQuizItems(text) {
			out = append(out, q)
		}
	default:
		for _, c := range ImportFlashcards(text) {
			out = append(out, c)
		}
	}
	return out
}
