package domain

import (
	"sort"
	"time"
)

// Question represents a question row (questions table)
type Question struct {
	CreatedAt  time.Time          `gorm:"column:created_at" json:"created_at"`
	AuthorID   string             `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	Title      string             `gorm:"column:title;type:varchar(255)" json:"title"`
	Body       string             `gorm:"column:body;type:mediumtext" json:"body"`
	Tags       []QuestionTag      `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Revisions  []QuestionRevision `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	ID         uint64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RevisionTS int64              `gorm:"column:revision_ts;not null;default:0" json:"-"`
	EditCount  int                `gorm:"column:edit_count;not null;default:0" json:"edit_count"`
}

func (Question) TableName() string { return "questions" }

// QuestionTag links a question to a tag (question_tags table)
type QuestionTag struct {
	QuestionID uint64 `gorm:"column:question_id;primaryKey"`
	TagID      uint64 `gorm:"column:tag_id;primaryKey;index"`
}

func (QuestionTag) TableName() string { return "question_tags" }

// Tag represents a tag row (tags table)
type Tag struct {
	Name string `gorm:"column:name;type:varchar(64);uniqueIndex" json:"name"`
	ID   uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
}

func (Tag) TableName() string { return "tags" }

// Answer represents an answer row (answers table)
type Answer struct {
	CreatedAt  time.Time        `gorm:"column:created_at" json:"created_at"`
	AuthorID   string           `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	Body       string           `gorm:"column:body;type:mediumtext" json:"body"`
	Revisions  []AnswerRevision `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"-"`
	ID         uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QuestionID uint64           `gorm:"column:question_id;index" json:"question_id"`
	RevisionTS int64            `gorm:"column:revision_ts;not null;default:0" json:"-"`
	EditCount  int              `gorm:"column:edit_count;not null;default:0" json:"edit_count"`
	IsAccepted bool             `gorm:"column:is_accepted;not null;default:false" json:"is_accepted"`
}

func (Answer) TableName() string { return "answers" }

// QuestionRevision stores one question edit (question_revisions table)
type QuestionRevision struct {
	CreatedAt       time.Time   `gorm:"column:created_at;index"`
	Previous        FieldValues `gorm:"column:previous_fields;type:text;serializer:json"`
	New             FieldValues `gorm:"column:new_fields;type:text;serializer:json"`
	EditorID        string      `gorm:"column:editor_id;type:varchar(64);index"`
	EditReason      string      `gorm:"column:edit_reason;type:text"`
	ID              uint64      `gorm:"column:id;primaryKey;autoIncrement"`
	QuestionID      uint64      `gorm:"column:question_id;index;not null"`
	IsModeratorEdit bool        `gorm:"column:is_moderator_edit"`
	RequiresReview  bool        `gorm:"column:requires_review;index"`
}

func (QuestionRevision) TableName() string { return "question_revisions" }

// AnswerRevision stores one answer edit (answer_revisions table)
type AnswerRevision struct {
	CreatedAt       time.Time   `gorm:"column:created_at;index"`
	Previous        FieldValues `gorm:"column:previous_fields;type:text;serializer:json"`
	New             FieldValues `gorm:"column:new_fields;type:text;serializer:json"`
	EditorID        string      `gorm:"column:editor_id;type:varchar(64);index"`
	EditReason      string      `gorm:"column:edit_reason;type:text"`
	ID              uint64      `gorm:"column:id;primaryKey;autoIncrement"`
	AnswerID        uint64      `gorm:"column:answer_id;index;not null"`
	IsModeratorEdit bool        `gorm:"column:is_moderator_edit"`
	RequiresReview  bool        `gorm:"column:requires_review;index"`
}

func (AnswerRevision) TableName() string { return "answer_revisions" }

// RevisionTime converts a stored revision_ts value back to a timestamp
func RevisionTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.UnixMicro(ts).UTC()
}

// RevisionTS converts a timestamp to its stored microsecond form
func RevisionTS(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// ToContent converts a Question row to the editable view
func (q *Question) ToContent() *Content {
	tagIDs := make([]uint64, 0, len(q.Tags))
	for _, t := range q.Tags {
		tagIDs = append(tagIDs, t.TagID)
	}
	sort.Slice(tagIDs, func(i, j int) bool { return tagIDs[i] < tagIDs[j] })

	return &Content{
		ID:                q.ID,
		Kind:              KindQuestion,
		AuthorID:          q.AuthorID,
		Title:             q.Title,
		Body:              q.Body,
		TagIDs:            tagIDs,
		CreatedAt:         q.CreatedAt.UTC(),
		RevisionTimestamp: RevisionTime(q.RevisionTS),
		EditCount:         q.EditCount,
	}
}

// ToContent converts an Answer row to the editable view
func (a *Answer) ToContent() *Content {
	return &Content{
		ID:                a.ID,
		Kind:              KindAnswer,
		AuthorID:          a.AuthorID,
		Body:              a.Body,
		IsAccepted:        a.IsAccepted,
		CreatedAt:         a.CreatedAt.UTC(),
		RevisionTimestamp: RevisionTime(a.RevisionTS),
		EditCount:         a.EditCount,
	}
}

// ToRecord converts a QuestionRevision row to a RevisionRecord
func (r *QuestionRevision) ToRecord() RevisionRecord {
	return RevisionRecord{
		ID:              r.ID,
		ContentKind:     KindQuestion,
		ContentID:       r.QuestionID,
		EditorID:        r.EditorID,
		Previous:        r.Previous,
		New:             r.New,
		EditReason:      r.EditReason,
		IsModeratorEdit: r.IsModeratorEdit,
		RequiresReview:  r.RequiresReview,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

// ToRecord converts an AnswerRevision row to a RevisionRecord
func (r *AnswerRevision) ToRecord() RevisionRecord {
	return RevisionRecord{
		ID:              r.ID,
		ContentKind:     KindAnswer,
		ContentID:       r.AnswerID,
		EditorID:        r.EditorID,
		Previous:        r.Previous,
		New:             r.New,
		EditReason:      r.EditReason,
		IsModeratorEdit: r.IsModeratorEdit,
		RequiresReview:  r.RequiresReview,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}
