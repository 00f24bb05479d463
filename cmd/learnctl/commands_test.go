package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnly/internal/models"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestImportFromStdin(t *testing.T) {
	out, errOut, err := runCmd(t, "Front: Hola Back: Hello", "import")
	require.NoError(t, err)

	var items models.Items
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	card := items[0].(models.Flashcard)
	assert.Equal(t, "Hola", card.Term)
	assert.Equal(t, "Hello", card.Definition)
	assert.Contains(t, errOut, "1 item(s) parsed")
}

func TestImportQuizFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exam.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q: Go has generics\nAns: True\n\nQ: no answer"), 0o600))

	out, _, err := runCmd(t, "", "import", "--type", "quizzes", path)
	require.NoError(t, err)

	var items models.Items
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "true", items[0].(models.TrueFalse).CorrectAnswer)
}

func TestImportRejectsUnknownType(t *testing.T) {
	_, _, err := runCmd(t, "", "import", "--type", "notes")
	assert.Error(t, err)
}
