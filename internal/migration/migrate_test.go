package migration

import (
	"path/filepath"
	"testing"

	"github.com/damoang/qna-revision/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "migrate.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestRun_CreatesTablesAndSeedsTags(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Run(db))

	for _, table := range []string{"tags", "questions", "question_tags", "question_revisions", "answers", "answer_revisions"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var count int64
	db.Model(&domain.Tag{}).Count(&count)
	assert.Equal(t, int64(7), count)
}

func TestRun_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var count int64
	db.Model(&domain.Tag{}).Count(&count)
	assert.Equal(t, int64(7), count)
}
