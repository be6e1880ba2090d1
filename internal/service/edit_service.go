package service

import (
	"context"
	"errors"
	"time"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/internal/repository"
	"github.com/damoang/qna-revision/pkg/logger"
)

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// EditService business logic for editing questions and answers
type EditService interface {
	// RequestEdit reports whether actor may edit, without mutating anything
	RequestEdit(ctx context.Context, kind domain.ContentKind, id uint64, actor domain.Actor) (*domain.EditDecision, error)
	// ApplyEdit runs one edit attempt as a single transaction
	ApplyEdit(ctx context.Context, req *domain.EditRequest) (*domain.EditResult, error)
	// GetHistory returns the content and its revisions, most recent first
	GetHistory(ctx context.Context, kind domain.ContentKind, id uint64, limit int) (*domain.History, error)
}

// ReviewSignaler receives edits that were flagged for moderator attention
type ReviewSignaler interface {
	Publish(ctx context.Context, rec *domain.RevisionRecord) error
}

// EditConfig tunes the edit rules
type EditConfig struct {
	Now                  func() time.Time
	GraceWindow          time.Duration
	ConcurrencyTolerance time.Duration
	HistoryDefaultLimit  int
	HistoryMaxLimit      int
}

type editService struct {
	store       repository.ContentStore
	validator   *ContentValidator
	detector    *ChangeDetector
	permissions *PermissionEvaluator
	guard       *ConcurrencyGuard
	recorder    *RevisionRecorder
	signaler    ReviewSignaler
	now         func() time.Time
	historyDef  int
	historyMax  int
}

// NewEditService creates a new EditService. signaler may be nil.
func NewEditService(store repository.ContentStore, validator *ContentValidator, signaler ReviewSignaler, cfg EditConfig) EditService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	historyDef, historyMax := cfg.HistoryDefaultLimit, cfg.HistoryMaxLimit
	if historyDef <= 0 {
		historyDef = DefaultHistoryLimit
	}
	if historyMax < historyDef {
		historyMax = MaxHistoryLimit
	}

	return &editService{
		store:       store,
		validator:   validator,
		detector:    NewChangeDetector(),
		permissions: NewPermissionEvaluator(cfg.GraceWindow),
		guard:       NewConcurrencyGuard(cfg.ConcurrencyTolerance),
		recorder:    NewRevisionRecorder(),
		signaler:    signaler,
		now:         now,
		historyDef:  historyDef,
		historyMax:  historyMax,
	}
}

func (s *editService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// RequestEdit runs load and permission only
func (s *editService) RequestEdit(ctx context.Context, kind domain.ContentKind, id uint64, actor domain.Actor) (*domain.EditDecision, error) {
	if !kind.Valid() {
		return nil, common.ErrInvalidKind
	}
	content, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	decision := s.permissions.Evaluate(content, actor, s.clock())
	return &domain.EditDecision{
		Snapshot:       content,
		CanEdit:        decision.Allowed,
		RequiresReview: decision.Allowed && decision.RequiresReview,
	}, nil
}

// ApplyEdit loads, checks permission, concurrency and structure, detects
// changes, then mutates, cascades and records inside one transaction.
func (s *editService) ApplyEdit(ctx context.Context, req *domain.EditRequest) (*domain.EditResult, error) {
	if !req.Kind.Valid() {
		return nil, common.ErrInvalidKind
	}

	var result *domain.EditResult
	err := s.store.WithinTx(ctx, func(tx repository.ContentTx) error {
		// locked read; the clock is taken after it so the new revision
		// follows whatever the previous writer committed
		current, err := tx.Get(ctx, req.Kind, req.ContentID)
		if err != nil {
			return err
		}
		now := s.clock()

		decision := s.permissions.Evaluate(current, req.Actor, now)
		if !decision.Allowed {
			return common.ErrPermissionDenied
		}

		if err := s.guard.Check(current, req.LastKnownRevision); err != nil {
			return err
		}

		validated, err := s.validator.Validate(ctx, req.Kind, req.Proposed)
		if err != nil {
			return err
		}

		changed := s.detector.Diff(current, validated)
		if changed.Empty() {
			result = &domain.EditResult{
				Content:        current,
				NoOp:           true,
				RequiresReview: decision.RequiresReview,
			}
			return nil
		}

		updated := applyChanges(current, validated, changed)

		// an accepted answer loses acceptance when its body changes
		acceptanceRemoved := false
		if changed.Has(domain.FieldBody) && updated.IsAccepted {
			updated.IsAccepted = false
			changed.Add(domain.FieldIsAccepted)
			acceptanceRemoved = true
		}

		updated.EditCount++
		updated.RevisionTimestamp = nextRevision(current.RevisionTimestamp, now)

		if err := tx.CASUpdate(ctx, updated, s.guard.Expectation(current, req.LastKnownRevision)); err != nil {
			return err
		}

		rec, err := s.recorder.Record(ctx, tx, RecordInput{
			Now:             updated.RevisionTimestamp,
			Before:          current,
			After:           updated,
			Changed:         changed,
			EditorID:        req.Actor.ID,
			EditReason:      req.EditReason,
			IsModeratorEdit: req.Actor.IsModerator,
			RequiresReview:  decision.RequiresReview,
		})
		if err != nil {
			return err
		}

		result = &domain.EditResult{
			Content:           updated,
			Revision:          rec,
			RequiresReview:    decision.RequiresReview,
			AcceptanceRemoved: acceptanceRemoved,
		}
		return nil
	})
	if err != nil {
		observeEdit(req.Kind, outcomeOf(err))
		logEditFailure(req, err)
		return nil, err
	}

	if result.NoOp {
		observeEdit(req.Kind, outcomeNoOp)
		return result, nil
	}

	observeEdit(req.Kind, outcomeApplied)
	if result.AcceptanceRemoved {
		acceptanceRevocations.Inc()
	}
	logEditApplied(req, result)
	s.signalReview(ctx, result.Revision)

	return result, nil
}

// GetHistory returns a fresh snapshot of the revision history
func (s *editService) GetHistory(ctx context.Context, kind domain.ContentKind, id uint64, limit int) (*domain.History, error) {
	if !kind.Valid() {
		return nil, common.ErrInvalidKind
	}
	content, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.historyDef
	}
	if limit > s.historyMax {
		limit = s.historyMax
	}

	records, err := s.store.History(ctx, kind, id, limit)
	if err != nil {
		return nil, err
	}
	return &domain.History{Content: content, Records: records, Limit: limit}, nil
}

func (s *editService) signalReview(ctx context.Context, rec *domain.RevisionRecord) {
	if s.signaler == nil || rec == nil || !rec.RequiresReview {
		return
	}
	if err := s.signaler.Publish(ctx, rec); err != nil {
		logger.GetLogger().Warn().
			Err(err).
			Str("kind", string(rec.ContentKind)).
			Uint64("content_id", rec.ContentID).
			Uint64("revision_id", rec.ID).
			Msg("review signal publish failed")
	}
}

// applyChanges returns a copy of current with the changed fields replaced
func applyChanges(current *domain.Content, validated domain.FieldValues, changed domain.ChangedFields) *domain.Content {
	updated := current.Clone()
	if changed.Has(domain.FieldTitle) {
		updated.Title = *validated.Title
	}
	if changed.Has(domain.FieldBody) {
		updated.Body = *validated.Body
	}
	if changed.Has(domain.FieldTags) {
		updated.TagIDs = sortedTags(validated.TagIDs)
	}
	return updated
}

// nextRevision keeps the revision strictly increasing even if the clock lags
func nextRevision(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func logEditApplied(req *domain.EditRequest, result *domain.EditResult) {
	l := logger.WithUserID(req.Actor.ID)
	ev := l.Info()
	if result.RequiresReview {
		ev = l.Warn()
	}
	ev.Str("kind", string(req.Kind)).
		Uint64("content_id", req.ContentID).
		Uint64("revision_id", result.Revision.ID).
		Int("edit_count", result.Content.EditCount).
		Bool("moderator", req.Actor.IsModerator).
		Bool("requires_review", result.RequiresReview).
		Bool("acceptance_removed", result.AcceptanceRemoved).
		Msg("content edited")
}

func logEditFailure(req *domain.EditRequest, err error) {
	l := logger.WithUserID(req.Actor.ID)
	ev := l.Info()
	if outcomeOf(err) == outcomeError {
		ev = l.Error()
	}
	ev.Err(err).
		Str("kind", string(req.Kind)).
		Uint64("content_id", req.ContentID).
		Msg("content edit rejected")
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, common.ErrContentNotFound):
		return outcomeNotFound
	case errors.Is(err, common.ErrPermissionDenied):
		return outcomeDenied
	case errors.Is(err, common.ErrConcurrentModification):
		return outcomeConflict
	case errors.Is(err, common.ErrValidationFailed):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
