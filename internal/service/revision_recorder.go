package service

import (
	"context"
	"time"

	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/internal/repository"
)

// RevisionRecorder builds and appends the audit record of an edit
type RevisionRecorder struct{}

// NewRevisionRecorder creates a RevisionRecorder
func NewRevisionRecorder() *RevisionRecorder {
	return &RevisionRecorder{}
}

// RecordInput describes one committed-to-be edit
type RecordInput struct {
	Now             time.Time
	Before          *domain.Content
	After           *domain.Content
	Changed         domain.ChangedFields
	EditorID        string
	EditReason      string
	IsModeratorEdit bool
	RequiresReview  bool
}

// Build returns the record with before/after pairs for changed fields only
func (r *RevisionRecorder) Build(in RecordInput) *domain.RevisionRecord {
	rec := &domain.RevisionRecord{
		ContentKind:     in.After.Kind,
		ContentID:       in.After.ID,
		EditorID:        in.EditorID,
		EditReason:      in.EditReason,
		IsModeratorEdit: in.IsModeratorEdit,
		RequiresReview:  in.RequiresReview,
		CreatedAt:       in.Now,
	}

	if in.Changed.Has(domain.FieldTitle) {
		rec.Previous.Title = stringPtr(in.Before.Title)
		rec.New.Title = stringPtr(in.After.Title)
	}
	if in.Changed.Has(domain.FieldBody) {
		rec.Previous.Body = stringPtr(in.Before.Body)
		rec.New.Body = stringPtr(in.After.Body)
	}
	if in.Changed.Has(domain.FieldTags) {
		rec.Previous.TagIDs = append([]uint64{}, in.Before.TagIDs...)
		rec.New.TagIDs = append([]uint64{}, in.After.TagIDs...)
	}
	if in.Changed.Has(domain.FieldIsAccepted) {
		rec.Previous.IsAccepted = boolPtr(in.Before.IsAccepted)
		rec.New.IsAccepted = boolPtr(in.After.IsAccepted)
	}
	return rec
}

// Record builds the record and appends it inside tx. An error here must abort the edit.
func (r *RevisionRecorder) Record(ctx context.Context, tx repository.ContentTx, in RecordInput) (*domain.RevisionRecord, error) {
	rec := r.Build(in)
	if err := tx.AppendHistory(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
