package service

import (
	"time"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
)

// DefaultConcurrencyTolerance absorbs clock and timestamp format rounding
const DefaultConcurrencyTolerance = time.Second

// ConcurrencyGuard detects lost updates from a client-supplied revision
type ConcurrencyGuard struct {
	tolerance time.Duration
}

// NewConcurrencyGuard creates a ConcurrencyGuard; a negative tolerance uses the default
func NewConcurrencyGuard(tolerance time.Duration) *ConcurrencyGuard {
	if tolerance < 0 {
		tolerance = DefaultConcurrencyTolerance
	}
	return &ConcurrencyGuard{tolerance: tolerance}
}

// Check fails when the stored revision is newer than lastKnown by more than
// the tolerance. A nil lastKnown skips the check (last write wins).
func (g *ConcurrencyGuard) Check(content *domain.Content, lastKnown *time.Time) error {
	if lastKnown == nil {
		return nil
	}
	if content.RevisionTimestamp.Sub(*lastKnown) > g.tolerance {
		return common.ErrConcurrentModification
	}
	return nil
}

// Expectation is the revision the write must still see for the check to hold.
// It is nil when the client did not ask for a check.
func (g *ConcurrencyGuard) Expectation(content *domain.Content, lastKnown *time.Time) *time.Time {
	if lastKnown == nil {
		return nil
	}
	expected := content.RevisionTimestamp
	return &expected
}
