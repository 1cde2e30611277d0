package models_test

import (
	"errors"
	"testing"

	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
)

func TestCheckProposalTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{models.ProposalPending, models.ProposalUnderReview},
		{models.ProposalPending, models.ProposalApproved},
		{models.ProposalPending, models.ProposalRejected},
		{models.ProposalUnderReview, models.ProposalApproved},
		{models.ProposalUnderReview, models.ProposalRejected},
	}
	for _, tt := range allowed {
		if err := models.CheckProposalTransition(tt.from, tt.to); err != nil {
			t.Errorf("transition %s -> %s should be allowed: %v", tt.from, tt.to, err)
		}
	}

	denied := []struct{ from, to string }{
		{models.ProposalApproved, models.ProposalRejected},
		{models.ProposalApproved, models.ProposalPending},
		{models.ProposalRejected, models.ProposalApproved},
		{models.ProposalRejected, models.ProposalPending},
		{models.ProposalImplemented, models.ProposalApproved},
		{models.ProposalUnderReview, models.ProposalPending},
		{models.ProposalPending, models.ProposalImplemented},
		{models.ProposalPending, "archived"},
	}
	for _, tt := range denied {
		err := models.CheckProposalTransition(tt.from, tt.to)
		if err == nil {
			t.Errorf("transition %s -> %s should be rejected", tt.from, tt.to)
			continue
		}
		var ite *models.InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Errorf("transition %s -> %s: error type %T, want *InvalidTransitionError", tt.from, tt.to, err)
			continue
		}
		if ite.From != tt.from || ite.To != tt.to {
			t.Errorf("error fields = %s -> %s, want %s -> %s", ite.From, ite.To, tt.from, tt.to)
		}
	}
}

func TestEventProposal_Deletable(t *testing.T) {
	for _, status := range []string{models.ProposalPending, models.ProposalRejected} {
		p := models.EventProposal{Status: status}
		if !p.Deletable() {
			t.Errorf("%s proposal should be deletable", status)
		}
	}
	for _, status := range []string{models.ProposalUnderReview, models.ProposalApproved, models.ProposalImplemented} {
		p := models.EventProposal{Status: status}
		if p.Deletable() {
			t.Errorf("%s proposal should not be deletable", status)
		}
	}
}
