// internal/domain/models/event.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event statuses.
const (
	EventDraft     = "draft"
	EventPublished = "published"
	EventCancelled = "cancelled"
	EventCompleted = "completed"
)

// EventStatuses is the closed set of event statuses.
var EventStatuses = []string{EventDraft, EventPublished, EventCancelled, EventCompleted}

// IsValidEventStatus reports whether s is a known event status.
func IsValidEventStatus(s string) bool {
	for _, v := range EventStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// EventCategories is the closed set of event categories.
var EventCategories = []string{
	"workshop",
	"talk",
	"hackathon",
	"competition",
	"bootcamp",
	"ideathon",
	"meetup",
	"other",
}

// IsValidEventCategory reports whether s is a known category.
func IsValidEventCategory(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range EventCategories {
		if s == v {
			return true
		}
	}
	return false
}

// Registrant statuses.
const (
	RegistrantRegistered = "registered"
	RegistrantAttended   = "attended"
	RegistrantCancelled  = "cancelled"
)

// Registrant is one embedded registration record on an event.
type Registrant struct {
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CustomFields []CustomFieldValue `bson:"custom_fields,omitempty" json:"customFields,omitempty"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registeredAt"`
	Status       string             `bson:"status" json:"status"`
}

// Event is a club event with its custom registration form and embedded
// registrant list.
//
// MaxParticipants == 0 means unlimited capacity.
type Event struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description" json:"description"`
	ShortDescription string             `bson:"short_description" json:"shortDescription"`
	Category         string             `bson:"category" json:"category"`

	StartDate            time.Time `bson:"start_date" json:"startDate"`
	EndDate              time.Time `bson:"end_date" json:"endDate"`
	RegistrationDeadline time.Time `bson:"registration_deadline" json:"registrationDeadline"`

	Location        string  `bson:"location" json:"location"`
	MaxParticipants int     `bson:"max_participants" json:"maxParticipants"`
	Fee             float64 `bson:"fee" json:"fee"`
	Featured        bool    `bson:"featured" json:"featured"`

	Status       string               `bson:"status" json:"status"`
	CreatedBy    primitive.ObjectID   `bson:"created_by" json:"createdBy"`
	Coordinators []primitive.ObjectID `bson:"coordinators,omitempty" json:"coordinators,omitempty"`

	CustomRegistrationFields []CustomFieldDef `bson:"custom_registration_fields,omitempty" json:"customRegistrationFields,omitempty"`
	Registrations            []Registrant     `bson:"registrations,omitempty" json:"-"`

	Images      []string `bson:"images,omitempty" json:"images,omitempty"`
	EventPhotos []string `bson:"event_photos,omitempty" json:"eventPhotos,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsPast reports whether the event has ended at the given instant.
func (e *Event) IsPast(now time.Time) bool {
	return now.After(e.EndDate)
}

// RegistrationCount is the number of embedded registrants.
func (e *Event) RegistrationCount() int {
	return len(e.Registrations)
}

// IsFull reports whether a capacity limit exists and has been reached.
func (e *Event) IsFull() bool {
	return e.MaxParticipants > 0 && e.RegistrationCount() >= e.MaxParticipants
}

// IsRegistrationOpen reports whether registration is accepted at the given
// instant: the event must be published, not past, and before its deadline.
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	if e.Status != EventPublished {
		return false
	}
	if e.IsPast(now) {
		return false
	}
	return now.Before(e.RegistrationDeadline)
}

// FieldByID returns the custom field definition with the given ID.
func (e *Event) FieldByID(id string) (CustomFieldDef, bool) {
	for _, f := range e.CustomRegistrationFields {
		if f.ID == id {
			return f, true
		}
	}
	return CustomFieldDef{}, false
}

// HasRegistrantEmail reports whether email already appears in the
// registrant list. Comparison is case-insensitive, matching the dedup rule
// enforced by the store's conditional append.
func (e *Event) HasRegistrantEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range e.Registrations {
		if strings.ToLower(r.Email) == email {
			return true
		}
	}
	return false
}

// CanManage reports whether userID is the creator or a listed coordinator.
func (e *Event) CanManage(userID primitive.ObjectID) bool {
	if e.CreatedBy == userID {
		return true
	}
	for _, c := range e.Coordinators {
		if c == userID {
			return true
		}
	}
	return false
}
