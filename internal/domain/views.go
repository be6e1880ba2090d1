package domain

import "time"

const timeLayout = time.RFC3339Nano

// ContentView is the list/detail projection of an editable content
type ContentView struct {
	LastEditedAt string   `json:"last_edited_at,omitempty"`
	CreatedAt    string   `json:"created_at"`
	Kind         string   `json:"kind"`
	AuthorID     string   `json:"user_id"`
	Title        string   `json:"title,omitempty"`
	Body         string   `json:"body"`
	Revision     string   `json:"revision"`
	TagIDs       []uint64 `json:"tag_ids,omitempty"`
	ID           uint64   `json:"id"`
	EditCount    int      `json:"edit_count"`
	IsEdited     bool     `json:"is_edited"`
	IsAccepted   bool     `json:"is_accepted,omitempty"`
}

// ToView builds the list/detail projection
func (c *Content) ToView() *ContentView {
	v := &ContentView{
		ID:         c.ID,
		Kind:       string(c.Kind),
		AuthorID:   c.AuthorID,
		Title:      c.Title,
		Body:       c.Body,
		TagIDs:     c.TagIDs,
		IsAccepted: c.IsAccepted,
		EditCount:  c.EditCount,
		IsEdited:   c.EditCount > 0,
		CreatedAt:  c.CreatedAt.Format(timeLayout),
		Revision:   c.RevisionTimestamp.Format(timeLayout),
	}
	if c.EditCount > 0 {
		v.LastEditedAt = v.Revision
	}
	return v
}

// EditFormView populates an edit form without mutating anything
type EditFormView struct {
	Content *ContentView `json:"content"`
	// Revision is echoed back by the client as last_known_revision
	Revision       string `json:"revision"`
	CanEdit        bool   `json:"can_edit"`
	RequiresReview bool   `json:"requires_review"`
	// EditWindowExpired is true when an author is past the grace window
	EditWindowExpired bool `json:"edit_window_expired"`
}

// ToEditForm builds the edit-form projection
func (d *EditDecision) ToEditForm() *EditFormView {
	return &EditFormView{
		Content:           d.Snapshot.ToView(),
		Revision:          d.Snapshot.RevisionTimestamp.Format(timeLayout),
		CanEdit:           d.CanEdit,
		RequiresReview:    d.RequiresReview,
		EditWindowExpired: d.RequiresReview,
	}
}

// EditResultView is the projection returned after applying an edit
type EditResultView struct {
	Content           *ContentView `json:"content"`
	RevisionID        uint64       `json:"revision_id,omitempty"`
	NoOp              bool         `json:"no_op"`
	RequiresReview    bool         `json:"requires_review"`
	AcceptanceRemoved bool         `json:"acceptance_removed"`
}

// ToView builds the edit-result projection
func (r *EditResult) ToView() *EditResultView {
	v := &EditResultView{
		Content:           r.Content.ToView(),
		NoOp:              r.NoOp,
		RequiresReview:    r.RequiresReview,
		AcceptanceRemoved: r.AcceptanceRemoved,
	}
	if r.Revision != nil {
		v.RevisionID = r.Revision.ID
	}
	return v
}

// HistoryEntryView is the projection of one RevisionRecord
type HistoryEntryView struct {
	Previous          *FieldValues `json:"previous,omitempty"`
	New               *FieldValues `json:"new,omitempty"`
	CreatedAt         string       `json:"created_at"`
	ContentKind       string       `json:"content_kind"`
	EditorID          string       `json:"editor_id"`
	EditReason        string       `json:"edit_reason,omitempty"`
	ID                uint64       `json:"id"`
	ContentID         uint64       `json:"content_id"`
	IsModeratorEdit   bool         `json:"is_moderator_edit"`
	RequiresReview    bool         `json:"requires_review"`
	TitleChanged      bool         `json:"title_changed"`
	BodyChanged       bool         `json:"body_changed"`
	TagsChanged       bool         `json:"tags_changed"`
	AcceptanceChanged bool         `json:"acceptance_changed"`
}

// ToHistoryView builds the history projection. Full before/after values are
// only included when withDiff is set since bodies can be large.
func (r *RevisionRecord) ToHistoryView(withDiff bool) *HistoryEntryView {
	v := &HistoryEntryView{
		ID:                r.ID,
		ContentKind:       string(r.ContentKind),
		ContentID:         r.ContentID,
		EditorID:          r.EditorID,
		EditReason:        r.EditReason,
		IsModeratorEdit:   r.IsModeratorEdit,
		RequiresReview:    r.RequiresReview,
		CreatedAt:         r.CreatedAt.Format(timeLayout),
		TitleChanged:      r.TitleChanged(),
		BodyChanged:       r.BodyChanged(),
		TagsChanged:       r.TagsChanged(),
		AcceptanceChanged: r.AcceptanceChanged(),
	}
	if withDiff {
		prev, next := r.Previous, r.New
		v.Previous = &prev
		v.New = &next
	}
	return v
}

// HistoryView is the projection of a content's revision history
type HistoryView struct {
	History   []*HistoryEntryView `json:"history"`
	ContentID uint64              `json:"content_id"`
	EditCount int                 `json:"edit_count"`
}
