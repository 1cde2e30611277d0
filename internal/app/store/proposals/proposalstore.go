// internal/app/store/proposals/proposalstore.go
package proposalstore

import (
	"context"
	"errors"
	"time"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotApproved is returned when implementation is attempted on a
	// proposal that is not in approved status.
	ErrNotApproved = errors.New("only approved proposals can be implemented")
	// ErrNotDeletable is returned when deletion is attempted outside the
	// pending and rejected statuses.
	ErrNotDeletable = errors.New("only pending or rejected proposals can be deleted")
	// ErrNotEditable is returned when the owner edits a proposal that is
	// neither pending nor rejected.
	ErrNotEditable = errors.New("only pending or rejected proposals can be edited")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("event_proposals")}
}

// Create inserts a new proposal in pending status.
func (s *Store) Create(ctx context.Context, p models.EventProposal) (models.EventProposal, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Category = normalize.Enum(p.Category)
	p.Status = models.ProposalPending
	p.ReviewedBy = nil
	p.ReviewedAt = nil
	p.ReviewerNotes = ""
	p.ImplementedEventID = nil
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.EventProposal{}, err
	}
	return p, nil
}

// GetByID loads a proposal.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EventProposal, error) {
	var p models.EventProposal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListFilter narrows the proposal listing.
type ListFilter struct {
	Status     string
	ProposedBy *primitive.ObjectID
}

// List returns one page of proposals, newest first.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.EventProposal, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = normalize.Enum(f.Status)
	}
	if f.ProposedBy != nil {
		filter["proposed_by"] = *f.ProposedBy
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []models.EventProposal
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Transition applies a reviewer status change. The current status is part
// of the update filter, so a stale reviewer loses the race instead of
// overwriting a newer decision.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, to string, reviewer primitive.ObjectID, notes string) (*models.EventProposal, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := models.CheckProposalTransition(cur.Status, to); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": id, "status": cur.Status}
	update := bson.M{"$set": bson.M{
		"status":         to,
		"reviewed_by":    reviewer,
		"reviewed_at":    now,
		"reviewer_notes": notes,
		"updated_at":     now,
	}}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.EventProposal
	if err := s.c.FindOneAndUpdate(ctx, filter, update, after).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &models.InvalidTransitionError{From: cur.Status, To: to}
		}
		return nil, err
	}
	return &p, nil
}

// ProposalUpdate carries the fields the owner may edit.
type ProposalUpdate struct {
	Title           *string
	Description     *string
	Category        *string
	TargetAudience  *string
	ProposedDate    *time.Time
	EstimatedBudget *float64
	ResourceNeeds   *string
}

// OwnerUpdate applies an owner edit. Editing a rejected proposal resets it
// to pending for a fresh review; pending proposals stay pending. Any other
// status rejects the edit.
func (s *Store) OwnerUpdate(ctx context.Context, id primitive.ObjectID, u ProposalUpdate) (*models.EventProposal, error) {
	set := bson.M{
		"status":     models.ProposalPending,
		"updated_at": time.Now().UTC(),
	}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = normalize.Enum(*u.Category)
	}
	if u.TargetAudience != nil {
		set["target_audience"] = *u.TargetAudience
	}
	if u.ProposedDate != nil {
		set["proposed_date"] = *u.ProposedDate
	}
	if u.EstimatedBudget != nil {
		set["estimated_budget"] = *u.EstimatedBudget
	}
	if u.ResourceNeeds != nil {
		set["resource_needs"] = *u.ResourceNeeds
	}

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": bson.A{models.ProposalPending, models.ProposalRejected}},
	}
	update := bson.M{
		"$set": set,
		"$unset": bson.M{
			"reviewed_by":    "",
			"reviewed_at":    "",
			"reviewer_notes": "",
		},
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.EventProposal
	if err := s.c.FindOneAndUpdate(ctx, filter, update, after).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, gerr := s.GetByID(ctx, id); gerr != nil {
				return nil, gerr
			}
			return nil, ErrNotEditable
		}
		return nil, err
	}
	return &p, nil
}

// Implement marks an approved proposal implemented and records the event it
// materialized into. The approved guard sits in the filter.
func (s *Store) Implement(ctx context.Context, id primitive.ObjectID, eventID primitive.ObjectID) (*models.EventProposal, error) {
	filter := bson.M{"_id": id, "status": models.ProposalApproved}
	update := bson.M{"$set": bson.M{
		"status":               models.ProposalImplemented,
		"implemented_event_id": eventID,
		"updated_at":           time.Now().UTC(),
	}}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.EventProposal
	if err := s.c.FindOneAndUpdate(ctx, filter, update, after).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			if _, gerr := s.GetByID(ctx, id); gerr != nil {
				return nil, gerr
			}
			return nil, ErrNotApproved
		}
		return nil, err
	}
	return &p, nil
}

// Delete removes a proposal, allowed only while pending or rejected.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": bson.A{models.ProposalPending, models.ProposalRejected}},
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		if _, gerr := s.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return ErrNotDeletable
	}
	return nil
}
