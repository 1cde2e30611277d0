// internal/app/store/counters/counterstore.go
package counterstore

// Membership identifiers encode a per-(year, department) sequence number.
// The original site computed it by counting existing registrations and
// adding one, which double-assigns under concurrent submissions. Here the
// sequence is reserved with a single atomic $inc upsert on a dedicated
// counter document, so two concurrent applicants can never draw the same
// number.

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

type counterDoc struct {
	Seq int64 `bson:"seq"`
}

// Next reserves and returns the next sequence number for the
// (year, department) pair, starting at 1.
func (s *Store) Next(ctx context.Context, year int, department string) (int64, error) {
	filter := bson.M{"year": year, "department": department}
	update := bson.M{"$inc": bson.M{"seq": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// Current returns the last sequence handed out for the pair, 0 when none.
func (s *Store) Current(ctx context.Context, year int, department string) (int64, error) {
	var doc counterDoc
	err := s.c.FindOne(ctx, bson.M{"year": year, "department": department}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
