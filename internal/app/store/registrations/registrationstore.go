// internal/app/store/registrations/registrationstore.go
package registrationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	counterstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/counters"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when the email already has an application.
	ErrDuplicateEmail = errors.New("an application with this email already exists")
	// ErrDuplicateAdmission is returned when the admission number already exists.
	ErrDuplicateAdmission = errors.New("an application with this admission number already exists")
	// ErrBadDepartment is returned for departments outside the closed set.
	ErrBadDepartment = errors.New("department is not in the allowed set")
	// ErrBadStatus is returned for unknown review statuses.
	ErrBadStatus = errors.New(`status must be "pending", "approved" or "rejected"`)
)

type Store struct {
	c        *mongo.Collection
	counters *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("registrations"),
		counters: counterstore.New(db),
	}
}

// Create assigns the membership identifier and inserts the application with
// status pending. The sequence number comes from an atomic counter
// reservation, so duplicates cannot be minted under concurrent submissions.
func (s *Store) Create(ctx context.Context, r models.Registration) (models.Registration, error) {
	code, ok := models.DeptCode(r.Department)
	if !ok {
		return models.Registration{}, ErrBadDepartment
	}

	r.Email = normalize.Email(r.Email)
	r.Phone = normalize.Phone(r.Phone)
	r.Department = normalize.Department(r.Department)
	r.AdmissionNumber = strings.ToUpper(strings.TrimSpace(r.AdmissionNumber))

	// Cheap duplicate probe before burning a sequence number. The unique
	// indexes still back this up, so a racing duplicate loses on insert.
	dupFilter := bson.M{"email": r.Email}
	if err := s.c.FindOne(ctx, dupFilter).Err(); err == nil {
		return models.Registration{}, ErrDuplicateEmail
	} else if err != mongo.ErrNoDocuments {
		return models.Registration{}, err
	}
	if r.AdmissionNumber != "" {
		if err := s.c.FindOne(ctx, bson.M{"admission_number": r.AdmissionNumber}).Err(); err == nil {
			return models.Registration{}, ErrDuplicateAdmission
		} else if err != mongo.ErrNoDocuments {
			return models.Registration{}, err
		}
	}

	seq, err := s.counters.Next(ctx, r.YearOfJoining, r.Department)
	if err != nil {
		return models.Registration{}, err
	}

	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.MembershipID = models.MembershipID(r.YearOfJoining, code, seq)
	r.Status = models.RegistrationPending
	r.SearchIndex = searchIndex(&r)
	r.SubmittedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			// Key name tells us which uniqueness constraint fired.
			if strings.Contains(err.Error(), "admission") {
				return models.Registration{}, ErrDuplicateAdmission
			}
			return models.Registration{}, ErrDuplicateEmail
		}
		return models.Registration{}, err
	}
	return r, nil
}

// searchIndex builds the folded free-text key covering name, email,
// admission number and membership id.
func searchIndex(r *models.Registration) string {
	parts := []string{r.FullName(), r.Email, r.AdmissionNumber, r.MembershipID}
	return text.Fold(strings.Join(parts, " "))
}

// GetByID loads an application.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	var r models.Registration
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	Status     string
	Department string
	Search     string // free text over name/email/admission number/membership id
}

// List returns one page of applications, newest first, with the total count
// for the filter.
func (s *Store) List(ctx context.Context, f ListFilter, skip, limit int64) ([]models.Registration, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = normalize.Enum(f.Status)
	}
	if f.Department != "" {
		filter["department"] = normalize.Department(f.Department)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		filter["search_index"] = bson.M{"$regex": regexEscape(text.Fold(q))}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var rows []models.Registration
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus records an admin review decision with reviewer identity and
// timestamp. The membership identifier is never touched.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, reviewer primitive.ObjectID, notes string) (*models.Registration, error) {
	switch status {
	case models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
	default:
		return nil, ErrBadStatus
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":         status,
		"reviewed_by":    reviewer,
		"reviewed_at":    now,
		"reviewer_notes": notes,
		"updated_at":     now,
	}}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Registration
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, after).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes an application. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// regexEscape quotes regex metacharacters in a search term.
func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
