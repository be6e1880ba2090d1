package domain

import (
	"time"
)

// ContentKind distinguishes the two editable entity types
type ContentKind string

const (
	KindQuestion ContentKind = "question"
	KindAnswer   ContentKind = "answer"
)

// Valid reports whether k names a known content kind
func (k ContentKind) Valid() bool {
	return k == KindQuestion || k == KindAnswer
}

// Field names a single editable attribute of a Content
type Field string

const (
	FieldTitle      Field = "title"
	FieldBody       Field = "body"
	FieldTags       Field = "tags"
	FieldIsAccepted Field = "is_accepted"
)

// Actor is the already-verified identity performing a request
type Actor struct {
	ID          string
	IsModerator bool
}

// Content is the kind-independent editable view of a Question or an Answer.
// Title and TagIDs are only meaningful for questions, IsAccepted only for answers.
type Content struct {
	CreatedAt         time.Time
	RevisionTimestamp time.Time
	Kind              ContentKind
	AuthorID          string
	Title             string
	Body              string
	TagIDs            []uint64
	ID                uint64
	EditCount         int
	IsAccepted        bool
}

// Clone returns a deep copy so callers can mutate without aliasing TagIDs
func (c *Content) Clone() *Content {
	cp := *c
	if c.TagIDs != nil {
		cp.TagIDs = append([]uint64(nil), c.TagIDs...)
	}
	return &cp
}

// FieldValues carries a subset of content fields; nil means "not present".
// Used both for proposed edits and for the before/after halves of a revision.
type FieldValues struct {
	Title      *string  `json:"title,omitempty"`
	Body       *string  `json:"body,omitempty"`
	IsAccepted *bool    `json:"is_accepted,omitempty"`
	TagIDs     []uint64 `json:"tag_ids,omitempty"`
}

// IsEmpty reports whether no field is present
func (f FieldValues) IsEmpty() bool {
	return f.Title == nil && f.Body == nil && f.TagIDs == nil && f.IsAccepted == nil
}

// ChangedFields is the set of fields that actually differ after an edit
type ChangedFields map[Field]struct{}

// NewChangedFields builds a set from the given fields
func NewChangedFields(fields ...Field) ChangedFields {
	set := make(ChangedFields, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether f is in the set
func (s ChangedFields) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Add inserts f into the set
func (s ChangedFields) Add(f Field) {
	s[f] = struct{}{}
}

// Empty reports whether nothing changed
func (s ChangedFields) Empty() bool {
	return len(s) == 0
}

// RevisionRecord is an immutable before/after audit entry for one edit
type RevisionRecord struct {
	CreatedAt       time.Time
	Previous        FieldValues
	New             FieldValues
	ContentKind     ContentKind
	EditorID        string
	EditReason      string
	ID              uint64
	ContentID       uint64
	IsModeratorEdit bool
	RequiresReview  bool
}

// TitleChanged reports whether the record captured a title change
func (r *RevisionRecord) TitleChanged() bool { return r.New.Title != nil }

// BodyChanged reports whether the record captured a body change
func (r *RevisionRecord) BodyChanged() bool { return r.New.Body != nil }

// TagsChanged reports whether the record captured a tag set change
func (r *RevisionRecord) TagsChanged() bool { return r.New.TagIDs != nil }

// AcceptanceChanged reports whether the record captured an acceptance transition
func (r *RevisionRecord) AcceptanceChanged() bool { return r.New.IsAccepted != nil }

// EditRequest is the input of a single edit attempt
type EditRequest struct {
	LastKnownRevision *time.Time
	Actor             Actor
	Kind              ContentKind
	EditReason        string
	Proposed          FieldValues
	ContentID         uint64
}

// EditResult is the outcome of a successful edit attempt, including no-ops
type EditResult struct {
	Content           *Content
	Revision          *RevisionRecord
	NoOp              bool
	RequiresReview    bool
	AcceptanceRemoved bool
}

// History is a page of revisions, most recent first, with the limit that was applied
type History struct {
	Content *Content
	Records []RevisionRecord
	Limit   int
}

// EditDecision is the read-only answer to "may this actor edit this content"
type EditDecision struct {
	Snapshot       *Content
	CanEdit        bool
	RequiresReview bool
}
