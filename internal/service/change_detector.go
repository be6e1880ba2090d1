package service

import (
	"sort"

	"github.com/damoang/qna-revision/internal/domain"
)

// ChangeDetector yields the fields whose validated value differs from the stored one
type ChangeDetector struct{}

// NewChangeDetector creates a ChangeDetector
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{}
}

// Diff compares validated (sanitized, trimmed) values to the stored values.
// An empty result means the edit is a no-op.
func (d *ChangeDetector) Diff(current *domain.Content, validated domain.FieldValues) domain.ChangedFields {
	changed := domain.NewChangedFields()

	if validated.Title != nil && *validated.Title != current.Title {
		changed.Add(domain.FieldTitle)
	}
	if validated.Body != nil && *validated.Body != current.Body {
		changed.Add(domain.FieldBody)
	}
	if validated.TagIDs != nil && !sameTagSet(validated.TagIDs, current.TagIDs) {
		changed.Add(domain.FieldTags)
	}
	return changed
}

func sameTagSet(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	x := sortedTags(a)
	y := sortedTags(b)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func sortedTags(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
