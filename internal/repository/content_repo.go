package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentStore editable content data access used by the edit service
type ContentStore interface {
	// Get loads a question or answer; common.ErrContentNotFound when absent
	Get(ctx context.Context, kind domain.ContentKind, id uint64) (*domain.Content, error)
	// History returns revision records most-recent-first, at most limit
	History(ctx context.Context, kind domain.ContentKind, id uint64, limit int) ([]domain.RevisionRecord, error)
	// WithinTx runs fn in a single transaction; any returned error rolls back
	WithinTx(ctx context.Context, fn func(tx ContentTx) error) error
}

// ContentTx is the transaction boundary handed to the edit service
type ContentTx interface {
	Get(ctx context.Context, kind domain.ContentKind, id uint64) (*domain.Content, error)
	// CASUpdate writes content. When expected is non-nil the write only applies
	// if the stored revision still equals it; otherwise ErrConcurrentModification.
	CASUpdate(ctx context.Context, content *domain.Content, expected *time.Time) error
	AppendHistory(ctx context.Context, record *domain.RevisionRecord) error
}

// ContentRepository GORM implementation of ContentStore
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Get loads content outside of any edit transaction
func (r *ContentRepository) Get(ctx context.Context, kind domain.ContentKind, id uint64) (*domain.Content, error) {
	return findContent(r.db.WithContext(ctx), kind, id)
}

// History returns revisions ordered by created_at descending
func (r *ContentRepository) History(ctx context.Context, kind domain.ContentKind, id uint64, limit int) ([]domain.RevisionRecord, error) {
	db := r.db.WithContext(ctx)

	switch kind {
	case domain.KindQuestion:
		var rows []domain.QuestionRevision
		q := db.Where("question_id = ?", id).Order("created_at DESC").Order("id DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list question revisions (id=%d): %w", id, err)
		}
		records := make([]domain.RevisionRecord, len(rows))
		for i := range rows {
			records[i] = rows[i].ToRecord()
		}
		return records, nil

	case domain.KindAnswer:
		var rows []domain.AnswerRevision
		q := db.Where("answer_id = ?", id).Order("created_at DESC").Order("id DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list answer revisions (id=%d): %w", id, err)
		}
		records := make([]domain.RevisionRecord, len(rows))
		for i := range rows {
			records[i] = rows[i].ToRecord()
		}
		return records, nil
	}

	return nil, common.ErrInvalidKind
}

// WithinTx begins a transaction, commits when fn returns nil, rolls back otherwise
func (r *ContentRepository) WithinTx(ctx context.Context, fn func(tx ContentTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&contentTx{db: tx})
	})
}

// CreateQuestion inserts a question with its tags. Content creation lives
// outside the edit flow; this is used by seeding and tests.
func (r *ContentRepository) CreateQuestion(ctx context.Context, q *domain.Question, tagIDs []uint64) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	q.RevisionTS = domain.RevisionTS(q.CreatedAt)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Revisions").Create(q).Error; err != nil {
			return err
		}
		return replaceQuestionTags(tx, q.ID, tagIDs)
	})
}

// CreateAnswer inserts an answer
func (r *ContentRepository) CreateAnswer(ctx context.Context, a *domain.Answer) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.RevisionTS = domain.RevisionTS(a.CreatedAt)
	return r.db.WithContext(ctx).Omit("Revisions").Create(a).Error
}

// DeleteQuestion removes a question; its tags and revisions cascade
func (r *ContentRepository) DeleteQuestion(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Question{}, id).Error
}

// DeleteAnswer removes an answer; its revisions cascade
func (r *ContentRepository) DeleteAnswer(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.Answer{}, id).Error
}

type contentTx struct {
	db *gorm.DB
}

// Get reads the row with SELECT ... FOR UPDATE so concurrent edits of the
// same item queue behind this transaction (sqlite ignores the clause and
// serializes writers itself)
func (t *contentTx) Get(ctx context.Context, kind domain.ContentKind, id uint64) (*domain.Content, error) {
	return findContent(forUpdate(t.db.WithContext(ctx)), kind, id)
}

func (t *contentTx) CASUpdate(ctx context.Context, c *domain.Content, expected *time.Time) error {
	db := t.db.WithContext(ctx)

	var (
		model   interface{}
		updates map[string]interface{}
	)
	switch c.Kind {
	case domain.KindQuestion:
		model = &domain.Question{}
		updates = map[string]interface{}{
			"title": c.Title,
			"body":  c.Body,
		}
	case domain.KindAnswer:
		model = &domain.Answer{}
		updates = map[string]interface{}{
			"body":        c.Body,
			"is_accepted": c.IsAccepted,
		}
	default:
		return common.ErrInvalidKind
	}
	updates["revision_ts"] = domain.RevisionTS(c.RevisionTimestamp)
	// increment in SQL so concurrent last-write-wins edits keep edit_count
	// equal to the number of revision rows
	updates["edit_count"] = gorm.Expr("edit_count + 1")

	q := db.Model(model).Where("id = ?", c.ID)
	if expected != nil {
		q = q.Where("revision_ts = ?", domain.RevisionTS(*expected))
	} else {
		// last-write-wins still never moves the revision backwards
		q = q.Where("revision_ts < ?", domain.RevisionTS(c.RevisionTimestamp))
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update %s (id=%d): %w", c.Kind, c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		if expected != nil {
			return common.ErrConcurrentModification
		}
		var count int64
		if err := db.Model(model).Where("id = ?", c.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count %s (id=%d): %w", c.Kind, c.ID, err)
		}
		if count == 0 {
			return common.ErrContentNotFound
		}
		return common.ErrConcurrentModification
	}

	if c.Kind == domain.KindQuestion {
		return replaceQuestionTags(db, c.ID, c.TagIDs)
	}
	return nil
}

func (t *contentTx) AppendHistory(ctx context.Context, rec *domain.RevisionRecord) error {
	db := t.db.WithContext(ctx)

	switch rec.ContentKind {
	case domain.KindQuestion:
		row := &domain.QuestionRevision{
			QuestionID:      rec.ContentID,
			EditorID:        rec.EditorID,
			Previous:        rec.Previous,
			New:             rec.New,
			EditReason:      rec.EditReason,
			IsModeratorEdit: rec.IsModeratorEdit,
			RequiresReview:  rec.RequiresReview,
			CreatedAt:       rec.CreatedAt,
		}
		if err := db.Create(row).Error; err != nil {
			return fmt.Errorf("append question revision (id=%d): %w", rec.ContentID, err)
		}
		rec.ID = row.ID

	case domain.KindAnswer:
		row := &domain.AnswerRevision{
			AnswerID:        rec.ContentID,
			EditorID:        rec.EditorID,
			Previous:        rec.Previous,
			New:             rec.New,
			EditReason:      rec.EditReason,
			IsModeratorEdit: rec.IsModeratorEdit,
			RequiresReview:  rec.RequiresReview,
			CreatedAt:       rec.CreatedAt,
		}
		if err := db.Create(row).Error; err != nil {
			return fmt.Errorf("append answer revision (id=%d): %w", rec.ContentID, err)
		}
		rec.ID = row.ID

	default:
		return common.ErrInvalidKind
	}
	return nil
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func findContent(db *gorm.DB, kind domain.ContentKind, id uint64) (*domain.Content, error) {
	switch kind {
	case domain.KindQuestion:
		var q domain.Question
		err := db.Preload("Tags").Where("id = ?", id).First(&q).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrContentNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("find question (id=%d): %w", id, err)
		}
		return q.ToContent(), nil

	case domain.KindAnswer:
		var a domain.Answer
		err := db.Where("id = ?", id).First(&a).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrContentNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("find answer (id=%d): %w", id, err)
		}
		return a.ToContent(), nil
	}

	return nil, common.ErrInvalidKind
}

func replaceQuestionTags(tx *gorm.DB, questionID uint64, tagIDs []uint64) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&domain.QuestionTag{}).Error; err != nil {
		return fmt.Errorf("clear question tags (id=%d): %w", questionID, err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]domain.QuestionTag, len(tagIDs))
	for i, tagID := range tagIDs {
		rows[i] = domain.QuestionTag{QuestionID: questionID, TagID: tagID}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert question tags (id=%d): %w", questionID, err)
	}
	return nil
}
