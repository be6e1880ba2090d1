package service

import (
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Edit outcomes
const (
	outcomeApplied  = "applied"
	outcomeNoOp     = "noop"
	outcomeNotFound = "not_found"
	outcomeDenied   = "denied"
	outcomeConflict = "conflict"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

var (
	contentEditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qna_content_edits_total",
			Help: "Total number of edit attempts by content kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	acceptanceRevocations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qna_acceptance_revocations_total",
			Help: "Accepted answers that lost acceptance through a body edit",
		},
	)
)

func observeEdit(kind domain.ContentKind, outcome string) {
	contentEditsTotal.WithLabelValues(string(kind), outcome).Inc()
}
