// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrRegistrationClosed is returned when the event is not accepting
	// registrations (unpublished, past, or past its deadline).
	ErrRegistrationClosed = errors.New("registration is closed for this event")
	// ErrEventFull is returned when the capacity limit has been reached.
	ErrEventFull = errors.New("this event has reached its participant limit")
	// ErrAlreadyRegistered is returned when the email is already registered.
	ErrAlreadyRegistered = errors.New("this email is already registered for the event")
	// ErrBadDates is returned when the event's date ordering is invalid.
	ErrBadDates = errors.New("event dates must satisfy deadline <= start <= end")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// checkDates enforces deadline <= start <= end on create and on every
// update that touches any of the three dates.
func checkDates(deadline, start, end time.Time) error {
	if start.After(end) || deadline.After(start) {
		return ErrBadDates
	}
	return nil
}

// Create inserts a new event in draft status.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	if err := checkDates(e.RegistrationDeadline, e.StartDate, e.EndDate); err != nil {
		return models.Event{}, err
	}
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Status = models.EventDraft
	e.Registrations = nil
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event including its registrant list.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// EventUpdate carries the editable fields of an event. Nil pointers leave
// the stored value untouched.
type EventUpdate struct {
	Title            *string
	Description      *string
	ShortDescription *string
	Category         *string

	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationDeadline *time.Time

	Location        *string
	MaxParticipants *int
	Fee             *float64
	Featured        *bool

	Coordinators             *[]primitive.ObjectID
	CustomRegistrationFields *[]models.CustomFieldDef
}

// Update applies a partial update. When any of the three dates change, the
// ordering rule is re-checked against the merged result of stored and new
// values, so a partial edit cannot sneak an inconsistent schedule in.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u EventUpdate) (*models.Event, error) {
	if u.StartDate != nil || u.EndDate != nil || u.RegistrationDeadline != nil {
		cur, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		deadline, start, end := cur.RegistrationDeadline, cur.StartDate, cur.EndDate
		if u.RegistrationDeadline != nil {
			deadline = *u.RegistrationDeadline
		}
		if u.StartDate != nil {
			start = *u.StartDate
		}
		if u.EndDate != nil {
			end = *u.EndDate
		}
		if err := checkDates(deadline, start, end); err != nil {
			return nil, err
		}
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.ShortDescription != nil {
		set["short_description"] = *u.ShortDescription
	}
	if u.Category != nil {
		set["category"] = normalize.Enum(*u.Category)
	}
	if u.StartDate != nil {
		set["start_date"] = *u.StartDate
	}
	if u.EndDate != nil {
		set["end_date"] = *u.EndDate
	}
	if u.RegistrationDeadline != nil {
		set["registration_deadline"] = *u.RegistrationDeadline
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.MaxParticipants != nil {
		set["max_participants"] = *u.MaxParticipants
	}
	if u.Fee != nil {
		set["fee"] = *u.Fee
	}
	if u.Featured != nil {
		set["featured"] = *u.Featured
	}
	if u.Coordinators != nil {
		set["coordinators"] = *u.Coordinators
	}
	if u.CustomRegistrationFields != nil {
		set["custom_registration_fields"] = *u.CustomRegistrationFields
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Event
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateStatus moves the event to a new lifecycle status.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Event, error) {
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Event
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, after).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the event document. Stored file cleanup is the handler's
// job since the store does not own the blob backend.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// AddImages appends promotional image paths.
func (s *Store) AddImages(ctx context.Context, id primitive.ObjectID, paths []string) error {
	return s.push(ctx, id, "images", paths)
}

// AddPhotos appends post-event gallery photo paths.
func (s *Store) AddPhotos(ctx context.Context, id primitive.ObjectID, paths []string) error {
	return s.push(ctx, id, "event_photos", paths)
}

func (s *Store) push(ctx context.Context, id primitive.ObjectID, field string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	update := bson.M{
		"$push": bson.M{field: bson.M{"$each": paths}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AppendRegistrant atomically appends a registrant if and only if the event
// is published, before its deadline, under capacity, and does not already
// hold the email. All four preconditions live in the update filter, so two
// concurrent registrations for the last seat cannot both land.
func (s *Store) AppendRegistrant(ctx context.Context, id primitive.ObjectID, reg models.Registrant) error {
	now := time.Now().UTC()
	reg.Email = normalize.Email(reg.Email)
	reg.RegisteredAt = now
	reg.Status = models.RegistrantRegistered

	filter := bson.M{
		"_id":                   id,
		"status":                models.EventPublished,
		"registration_deadline": bson.M{"$gt": now},
		"registrations.email":   bson.M{"$ne": reg.Email},
		"$expr": bson.M{"$or": bson.A{
			bson.M{"$lte": bson.A{"$max_participants", 0}},
			bson.M{"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$registrations", bson.A{}}}},
				"$max_participants",
			}},
		}},
	}
	update := bson.M{
		"$push": bson.M{"registrations": reg},
		"$set":  bson.M{"updated_at": now},
	}
	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// The update matched nothing. Reload and report the first failed
	// precondition: missing event, closed registration, full capacity,
	// then duplicate email.
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case !e.IsRegistrationOpen(now):
		return ErrRegistrationClosed
	case e.IsFull():
		return ErrEventFull
	case e.HasRegistrantEmail(reg.Email):
		return ErrAlreadyRegistered
	default:
		// Lost a race that has since resolved. Report a retryable state.
		return ErrRegistrationClosed
	}
}

// SetRegistrantStatus updates one registrant's status in place.
func (s *Store) SetRegistrantStatus(ctx context.Context, id primitive.ObjectID, email, status string) error {
	email = normalize.Email(email)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "registrations.email": email},
		bson.M{"$set": bson.M{
			"registrations.$.status": status,
			"updated_at":             time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListFilter narrows the event listing.
type ListFilter struct {
	Category  string
	Status    string
	Featured  *bool
	Upcoming  bool // end date in the future
	Past      bool // end date in the past
	CreatedBy *primitive.ObjectID
	Search    string
}

// List returns one page of events, soonest start date first for upcoming
// queries and most recent first otherwise.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Event, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = normalize.Enum(f.Category)
	}
	if f.Status != "" {
		filter["status"] = normalize.Enum(f.Status)
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	now := time.Now().UTC()
	if f.Upcoming {
		filter["end_date"] = bson.M{"$gte": now}
	}
	if f.Past {
		filter["end_date"] = bson.M{"$lt": now}
	}
	if f.CreatedBy != nil {
		filter["created_by"] = *f.CreatedBy
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["title"] = bson.M{"$regex": q, "$options": "i"}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sort := bson.D{{Key: "start_date", Value: -1}}
	if f.Upcoming {
		sort = bson.D{{Key: "start_date", Value: 1}}
	}
	opts := options.Find().
		SetSort(sort).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"registrations": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []models.Event
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
