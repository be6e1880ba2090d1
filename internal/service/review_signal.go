package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/damoang/qna-revision/internal/domain"
)

// StreamPublisher appends an entry to a message stream
type StreamPublisher interface {
	Publish(ctx context.Context, values map[string]interface{}) (string, error)
}

// streamReviewSignaler publishes edits flagged for review to a stream that
// moderation tooling consumes
type streamReviewSignaler struct {
	stream StreamPublisher
}

// NewStreamReviewSignaler creates a ReviewSignaler backed by a stream
func NewStreamReviewSignaler(stream StreamPublisher) ReviewSignaler {
	return &streamReviewSignaler{stream: stream}
}

func (s *streamReviewSignaler) Publish(ctx context.Context, rec *domain.RevisionRecord) error {
	changed, err := json.Marshal(changedFieldNames(rec))
	if err != nil {
		return err
	}

	_, err = s.stream.Publish(ctx, map[string]interface{}{
		"kind":        string(rec.ContentKind),
		"content_id":  strconv.FormatUint(rec.ContentID, 10),
		"revision_id": strconv.FormatUint(rec.ID, 10),
		"editor_id":   rec.EditorID,
		"edit_reason": rec.EditReason,
		"changed":     string(changed),
		"created_at":  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return err
}

func changedFieldNames(rec *domain.RevisionRecord) []domain.Field {
	fields := make([]domain.Field, 0, 4)
	if rec.TitleChanged() {
		fields = append(fields, domain.FieldTitle)
	}
	if rec.BodyChanged() {
		fields = append(fields, domain.FieldBody)
	}
	if rec.TagsChanged() {
		fields = append(fields, domain.FieldTags)
	}
	if rec.AcceptanceChanged() {
		fields = append(fields, domain.FieldIsAccepted)
	}
	return fields
}
