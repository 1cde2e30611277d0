package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active test user with the given role and a known
// password ("correct-horse").
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, role models.Role) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		Email:        email,
		Role:         role,
		Status:       models.UserStatusActive,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates an active test admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateTeamUser creates an active user holding a yearly role, for team
// directory tests.
func (f *Fixtures) CreateTeamUser(ctx context.Context, fullName, email string, year, order int, role models.Role, teamRole string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, fullName, email, role)
	yr := []models.YearlyRole{{Year: year, Role: role, TeamRole: teamRole, Order: order}}
	_, err := f.db.Collection("users").UpdateOne(ctx,
		map[string]any{"_id": u.ID},
		map[string]any{"$set": map[string]any{"yearly_roles": yr}})
	if err != nil {
		f.t.Fatalf("failed to set yearly roles: %v", err)
	}
	u.YearlyRoles = yr
	return u
}

// CreateEvent inserts a published event accepting registrations: deadline
// tomorrow, start in two days, end in three.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, maxParticipants int, createdBy primitive.ObjectID) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:                   primitive.NewObjectID(),
		Title:                title,
		Description:          "Test event description",
		Category:             "workshop",
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		MaxParticipants:      maxParticipants,
		Status:               models.EventPublished,
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// CreateDraftEvent inserts a draft event.
func (f *Fixtures) CreateDraftEvent(ctx context.Context, title string, createdBy primitive.ObjectID) models.Event {
	f.t.Helper()

	e := f.CreateEvent(ctx, title, 0, createdBy)
	_, err := f.db.Collection("events").UpdateOne(ctx,
		map[string]any{"_id": e.ID},
		map[string]any{"$set": map[string]any{"status": models.EventDraft}})
	if err != nil {
		f.t.Fatalf("failed to mark event draft: %v", err)
	}
	e.Status = models.EventDraft
	return e
}

// CreateProposal inserts a proposal in the given status.
func (f *Fixtures) CreateProposal(ctx context.Context, title string, proposedBy primitive.ObjectID, status string) models.EventProposal {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.EventProposal{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Description:  "Test proposal description",
		Category:     "workshop",
		ProposedDate: now.Add(30 * 24 * time.Hour),
		ProposedBy:   proposedBy,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("event_proposals").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test proposal: %v", err)
	}
	return p
}
