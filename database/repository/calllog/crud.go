package calllogRepo

import (
	"context"
	"time"

	"pharmavoice/database/repository"
	"pharmavoice/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Append inserts a new audit row and returns its ID. Rows are purely
// additive; nothing ever updates or deletes them.
func (r *mongoCallLogRepo) Append(ctx context.Context, entry models.CallLogEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	op := func(ctx context.Context) error {
		_, err := r.coll.InsertOne(ctx, entry)
		return err
	}
	if err := repository.DefaultRetry.Do(ctx, op); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// Recent returns the newest audit rows, most recent first.
func (r *mongoCallLogRepo) Recent(ctx context.Context, limit int64) ([]models.CallLogEntry, error) {
	opts := options.Find().
		SetSort(bson.M{"timestamp": -1}).
		SetLimit(limit)
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CallLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetByCallSID returns all audit rows for one call in insertion order.
func (r *mongoCallLogRepo) GetByCallSID(ctx context.Context, callSID string) ([]models.CallLogEntry, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"callSid": callSID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.CallLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
