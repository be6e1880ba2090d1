package domain

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidRevision last_known_revision could not be parsed
var ErrInvalidRevision = errors.New("invalid last_known_revision")

// EditContentRequest edit request body. Absent fields are left untouched;
// "tag_ids": [] is present and empty.
type EditContentRequest struct {
	Title             *string  `json:"title"`
	Body              *string  `json:"body"`
	IsAccepted        *bool    `json:"is_accepted"`
	EditReason        string   `json:"edit_reason" binding:"max=500"`
	LastKnownRevision string   `json:"last_known_revision"`
	TagIDs            []uint64 `json:"tag_ids"`
}

// ToFieldValues returns the proposed fields
func (r *EditContentRequest) ToFieldValues() FieldValues {
	return FieldValues{
		Title:      r.Title,
		Body:       r.Body,
		IsAccepted: r.IsAccepted,
		TagIDs:     r.TagIDs,
	}
}

// ParseLastKnownRevision accepts RFC 3339 (as returned by the edit form) or
// an HTTP date. Empty means no concurrency check.
func (r *EditContentRequest) ParseLastKnownRevision() (*time.Time, error) {
	raw := strings.TrimSpace(r.LastKnownRevision)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := http.ParseTime(raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, ErrInvalidRevision
}
