package migration

import (
	"fmt"

	"github.com/damoang/qna-revision/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table owned by this service, parents before children
func Models() []interface{} {
	return []interface{}{
		&domain.Tag{},
		&domain.Question{},
		&domain.QuestionTag{},
		&domain.QuestionRevision{},
		&domain.Answer{},
		&domain.AnswerRevision{},
	}
}

// Run executes AutoMigrate for all tables and seeds the default tags.
// Safe to run repeatedly.
func Run(db *gorm.DB) error {
	// 1. AutoMigrate - 테이블 없으면 생성, 있으면 skip
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// 2. Seed - 이미 있는 태그는 건너뜀
	if err := seedTags(db); err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}
	return nil
}

func seedTags(db *gorm.DB) error {
	tags := []domain.Tag{
		{ID: 1, Name: "go"},
		{ID: 2, Name: "database"},
		{ID: 3, Name: "concurrency"},
		{ID: 4, Name: "http"},
		{ID: 5, Name: "testing"},
		{ID: 6, Name: "security"},
		{ID: 7, Name: "performance"},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error
}
