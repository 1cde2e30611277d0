// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent:
CreateMany with a stable name and identical keys is a no-op on an existing
index. Errors are aggregated so every problem is visible and startup can
fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureRegistrations(ctx, db); err != nil {
		problems = append(problems, "registrations: "+err.Error())
	}
	if err := ensureCounters(ctx, db); err != nil {
		problems = append(problems, "counters: "+err.Error())
	}
	if err := ensureEvents(ctx, db); err != nil {
		problems = append(problems, "events: "+err.Error())
	}
	if err := ensureProposals(ctx, db); err != nil {
		problems = append(problems, "event_proposals: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			// Sparse: username exists only after invitation acceptance.
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("uniq_users_username").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
		{
			Keys:    bson.D{{Key: "yearly_roles.year", Value: 1}},
			Options: options.Index().SetName("idx_users_yearly_year"),
		},
	})
	return err
}

func ensureRegistrations(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("registrations").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_registrations_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "admission_number", Value: 1}},
			Options: options.Index().SetName("uniq_registrations_admission").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "membership_id", Value: 1}},
			Options: options.Index().SetName("uniq_registrations_membership_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "department", Value: 1}, {Key: "submitted_at", Value: -1}},
			Options: options.Index().SetName("idx_registrations_status_dept_submitted"),
		},
		{
			Keys:    bson.D{{Key: "search_index", Value: 1}},
			Options: options.Index().SetName("idx_registrations_search"),
		},
	})
	return err
}

func ensureCounters(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("counters").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "year", Value: 1}, {Key: "department", Value: 1}},
			Options: options.Index().SetName("uniq_counters_year_dept").SetUnique(true),
		},
	})
	return err
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("events").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("idx_events_status_start"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_events_category_status"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: options.Index().SetName("idx_events_creator"),
		},
		{
			Keys:    bson.D{{Key: "coordinators", Value: 1}},
			Options: options.Index().SetName("idx_events_coordinators"),
		},
	})
	return err
}

func ensureProposals(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("event_proposals").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "proposed_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_proposals_owner_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_proposals_status_created"),
		},
	})
	return err
}
