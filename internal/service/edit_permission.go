package service

import (
	"time"

	"github.com/damoang/qna-revision/internal/domain"
)

// DefaultGraceWindow is how long after creation an author edits without review
const DefaultGraceWindow = 10 * time.Minute

// PermissionDecision is either denied, or allowed with or without review
type PermissionDecision struct {
	Allowed        bool
	RequiresReview bool
}

// PermissionEvaluator decides who may edit what. It has no side effects.
type PermissionEvaluator struct {
	graceWindow time.Duration
}

// NewPermissionEvaluator creates a PermissionEvaluator; a non-positive window uses the default
func NewPermissionEvaluator(graceWindow time.Duration) *PermissionEvaluator {
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}
	return &PermissionEvaluator{graceWindow: graceWindow}
}

// Evaluate applies the moderator override and the author grace window
func (p *PermissionEvaluator) Evaluate(content *domain.Content, actor domain.Actor, now time.Time) PermissionDecision {
	if actor.IsModerator {
		return PermissionDecision{Allowed: true}
	}
	if actor.ID == "" || actor.ID != content.AuthorID {
		return PermissionDecision{}
	}
	return PermissionDecision{
		Allowed:        true,
		RequiresReview: now.Sub(content.CreatedAt) > p.graceWindow,
	}
}
