package database

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"learnly/internal/models"
	"learnly/pkg/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(&Config{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []any{&models.User{}, &models.StudySet{}, &models.LegacyStudySet{}, &models.HistoryEntry{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	set := models.StudySet{
		ID:     "11111111-1111-1111-1111-111111111111",
		UserID: 1,
		Title:  "Capitals",
		Type:   models.SetTypeQuizzes,
		Items:  models.Items{models.TrueFalse{ID: "t1", Question: "Oslo is in Norway", CorrectAnswer: "true"}},
	}
	require.NoError(t, db.Create(&set).Error)

	var loaded models.StudySet
	require.NoError(t, db.First(&loaded, "id = ?", set.ID).Error)
	assert.Equal(t, set.Items, loaded.Items)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&Config{Driver: "mysql"})
	assert.Error(t, err)
}

func TestGormLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	db, err := Open(&Config{
		Driver:     "sqlite",
		SQLitePath: ":memory:",
		Logger:     logger.NewWithWriter(&buf, "debug", "json"),
	})
	require.NoError(t, err)

	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)
	assert.Contains(t, buf.String(), "missing_table")
	assert.Contains(t, buf.String(), `"component":"gorm"`)
}

func TestDuplicateKeyIsTranslated(t *testing.T) {
	db, err := NewSQLiteDB(":memory:", logger.Discard())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	email := "dup@example.com"
	require.NoError(t, db.Create(&models.User{Email: &email}).Error)
	err = db.Create(&models.User{Email: &email}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
