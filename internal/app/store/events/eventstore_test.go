package eventstore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	eventstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/events"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"github.com/sarithdm/iedc-website-sub000/internal/testutil"
)

func newEvent(title string, maxParticipants int) models.Event {
	now := time.Now().UTC()
	return models.Event{
		Title:                title,
		Description:          "a test event",
		Category:             "workshop",
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		Location:             "Seminar Hall",
		MaxParticipants:      maxParticipants,
		CreatedBy:            primitive.NewObjectID(),
	}
}

func registrant(email string) models.Registrant {
	return models.Registrant{
		Name:         "Asha Nair",
		Email:        email,
		Phone:        "9876543210",
		RegisteredAt: time.Now().UTC(),
		Status:       models.RegistrantRegistered,
	}
}

func createPublished(t *testing.T, store *eventstore.Store, e models.Event) models.Event {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, e)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	published, err := store.UpdateStatus(ctx, created.ID, models.EventPublished)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	return *published
}

func TestCreate_StartsAsDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newEvent("Intro to IoT", 30))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != models.EventDraft {
		t.Errorf("Status = %q, want draft", created.Status)
	}
	if created.ID.IsZero() {
		t.Error("ID not assigned")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestCreate_RejectsBadDates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := newEvent("Backwards", 0)
	e.EndDate = e.StartDate.Add(-time.Hour)
	if _, err := store.Create(ctx, e); err != eventstore.ErrBadDates {
		t.Errorf("end before start: err = %v, want ErrBadDates", err)
	}

	e = newEvent("Late deadline", 0)
	e.RegistrationDeadline = e.StartDate.Add(time.Hour)
	if _, err := store.Create(ctx, e); err != eventstore.ErrBadDates {
		t.Errorf("deadline after start: err = %v, want ErrBadDates", err)
	}
}

func TestAppendRegistrant_CapacityEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	event := createPublished(t, store, newEvent("Capacity Two", 2))

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.AppendRegistrant(ctx, event.ID, registrant("a@college.edu")); err != nil {
		t.Fatalf("first registrant: %v", err)
	}
	if err := store.AppendRegistrant(ctx, event.ID, registrant("b@college.edu")); err != nil {
		t.Fatalf("second registrant: %v", err)
	}
	if err := store.AppendRegistrant(ctx, event.ID, registrant("c@college.edu")); err != eventstore.ErrEventFull {
		t.Errorf("third registrant: err = %v, want ErrEventFull", err)
	}

	got, err := store.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.RegistrationCount() != 2 {
		t.Errorf("RegistrationCount = %d, want 2", got.RegistrationCount())
	}
}

func TestAppendRegistrant_UnlimitedWhenZeroCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	event := createPublished(t, store, newEvent("Open House", 0))

	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, email := range []string{"a@x.in", "b@x.in", "c@x.in"} {
		if err := store.AppendRegistrant(ctx, event.ID, registrant(email)); err != nil {
			t.Fatalf("AppendRegistrant(%s) failed: %v", email, err)
		}
	}
}

func TestAppendRegistrant_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	event := createPublished(t, store, newEvent("Dedup", 10))

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.AppendRegistrant(ctx, event.ID, registrant("asha@college.edu")); err != nil {
		t.Fatalf("AppendRegistrant failed: %v", err)
	}
	if err := store.AppendRegistrant(ctx, event.ID, registrant("asha@college.edu")); err != eventstore.ErrAlreadyRegistered {
		t.Errorf("duplicate: err = %v, want ErrAlreadyRegistered", err)
	}
}

func TestAppendRegistrant_ClosedStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	draft, err := store.Create(ctx, newEvent("Still Draft", 10))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.AppendRegistrant(ctx, draft.ID, registrant("a@x.in")); err != eventstore.ErrRegistrationClosed {
		t.Errorf("draft event: err = %v, want ErrRegistrationClosed", err)
	}

	if err := store.AppendRegistrant(ctx, primitive.NewObjectID(), registrant("a@x.in")); err != mongo.ErrNoDocuments {
		t.Errorf("missing event: err = %v, want ErrNoDocuments", err)
	}
}

func TestAppendRegistrant_FullBeforeDuplicate(t *testing.T) {
	// With one seat taken by asha, a second submit from asha on a
	// capacity-1 event reports fullness, matching the precondition order.
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	event := createPublished(t, store, newEvent("One Seat", 1))

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.AppendRegistrant(ctx, event.ID, registrant("asha@college.edu")); err != nil {
		t.Fatalf("AppendRegistrant failed: %v", err)
	}
	if err := store.AppendRegistrant(ctx, event.ID, registrant("asha@college.edu")); err != eventstore.ErrEventFull {
		t.Errorf("err = %v, want ErrEventFull", err)
	}
}

func TestUpdate_MergedDateChecks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newEvent("Movable", 0))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	badEnd := created.StartDate.Add(-time.Hour)
	if _, err := store.Update(ctx, created.ID, eventstore.EventUpdate{EndDate: &badEnd}); err != eventstore.ErrBadDates {
		t.Errorf("end moved before start: err = %v, want ErrBadDates", err)
	}

	title := "Renamed"
	got, err := store.Update(ctx, created.ID, eventstore.EventUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("Title = %q", got.Title)
	}
	if !got.StartDate.Equal(created.StartDate) {
		t.Error("untouched StartDate changed")
	}
}

func TestList_StatusAndTimeFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, newEvent("Draft Only", 0)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	published := createPublished(t, store, newEvent("Live", 0))

	rows, total, err := store.List(ctx, eventstore.ListFilter{Status: models.EventPublished}, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != published.ID {
		t.Errorf("published filter: total=%d rows=%d", total, len(rows))
	}

	rows, _, err = store.List(ctx, eventstore.ListFilter{Upcoming: true}, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, e := range rows {
		if e.IsPast(time.Now()) {
			t.Errorf("upcoming filter returned past event %q", e.Title)
		}
	}

	// Listing projects out the embedded registrant array.
	if err := store.AppendRegistrant(ctx, published.ID, registrant("a@x.in")); err != nil {
		t.Fatalf("AppendRegistrant failed: %v", err)
	}
	rows, _, err = store.List(ctx, eventstore.ListFilter{Status: models.EventPublished}, 0, 20)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Registrations) != 0 {
		t.Error("listing should not carry registrations")
	}
}

func TestDelete_ReturnsEventForFileCleanup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, newEvent("Short Lived", 0))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.AddImages(ctx, created.ID, []string{"events/images/x.jpg"}); err != nil {
		t.Fatalf("AddImages failed: %v", err)
	}

	gone, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(gone.Images) != 1 || gone.Images[0] != "events/images/x.jpg" {
		t.Errorf("deleted event images = %v", gone.Images)
	}

	if _, err := store.GetByID(ctx, created.ID); err != mongo.ErrNoDocuments {
		t.Errorf("after delete: err = %v, want ErrNoDocuments", err)
	}

	if _, err := store.Delete(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("deleting missing event: err = %v, want ErrNoDocuments", err)
	}
}
