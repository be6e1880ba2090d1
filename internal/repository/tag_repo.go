package repository

import (
	"context"
	"fmt"

	"github.com/damoang/qna-revision/internal/domain"
	"gorm.io/gorm"
)

// TagRepository tag data access
type TagRepository interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Tag{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count tag (id=%d): %w", id, err)
	}
	return count > 0, nil
}
