// internal/domain/models/proposal.go
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Proposal statuses.
const (
	ProposalPending     = "pending"
	ProposalUnderReview = "under_review"
	ProposalApproved    = "approved"
	ProposalRejected    = "rejected"
	ProposalImplemented = "implemented"
)

// ProposalStatuses is the closed set of proposal statuses.
var ProposalStatuses = []string{
	ProposalPending, ProposalUnderReview, ProposalApproved,
	ProposalRejected, ProposalImplemented,
}

// proposalTransitions is the review state machine. Reviewer transitions
// only; the owner-edit reset (rejected -> pending) and implementation
// (approved -> implemented) are separate operations with their own guards.
var proposalTransitions = map[string][]string{
	ProposalPending:     {ProposalUnderReview, ProposalApproved, ProposalRejected},
	ProposalUnderReview: {ProposalApproved, ProposalRejected},
	ProposalApproved:    {},
	ProposalRejected:    {},
	ProposalImplemented: {},
}

// InvalidTransitionError names the transition an operation attempted, so
// handlers can surface it as a domain error rather than a generic failure.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid proposal transition %s -> %s", e.From, e.To)
}

// CheckProposalTransition validates a reviewer-initiated status change.
func CheckProposalTransition(from, to string) error {
	for _, allowed := range proposalTransitions[from] {
		if to == allowed {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

// EventProposal is a pre-approval request for an event, distinct from the
// Event it may materialize into.
type EventProposal struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Title          string    `bson:"title" json:"title"`
	Description    string    `bson:"description" json:"description"`
	Category       string    `bson:"category" json:"category"`
	TargetAudience string    `bson:"target_audience,omitempty" json:"targetAudience,omitempty"`
	ProposedDate   time.Time `bson:"proposed_date" json:"proposedDate"`
	EstimatedBudget float64  `bson:"estimated_budget,omitempty" json:"estimatedBudget,omitempty"`
	ResourceNeeds  string    `bson:"resource_needs,omitempty" json:"resourceNeeds,omitempty"`

	ProposedBy primitive.ObjectID `bson:"proposed_by" json:"proposedBy"`

	Status        string              `bson:"status" json:"status"`
	ReviewedBy    *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time          `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	ReviewerNotes string              `bson:"reviewer_notes,omitempty" json:"reviewerNotes,omitempty"`

	ImplementedEventID *primitive.ObjectID `bson:"implemented_event_id,omitempty" json:"implementedEventId,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Deletable reports whether the proposal may be deleted: only while it is
// still pending or was rejected.
func (p *EventProposal) Deletable() bool {
	return p.Status == ProposalPending || p.Status == ProposalRejected
}
