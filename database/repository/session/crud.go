package sessionRepo

import (
	"context"
	"errors"

	"pharmavoice/database/repository"
	"pharmavoice/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Get returns the session for a call, or nil when the call is unknown.
func (r *mongoSessionRepo) Get(ctx context.Context, callSID string) (*models.CallSession, error) {
	var session models.CallSession
	err := r.coll.FindOne(ctx, bson.M{"callSid": callSID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Load returns the existing session or creates an empty one, persisting it
// immediately so concurrent readers observe it.
func (r *mongoSessionRepo) Load(ctx context.Context, callSID string) (*models.CallSession, error) {
	var session models.CallSession
	err := r.coll.FindOne(ctx, bson.M{"callSid": callSID}).Decode(&session)
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	session = models.CallSession{
		CallSID: callSID,
		History: []models.TurnMessage{},
		State:   models.StateIdle,
	}
	// Upsert guards against a racing first access for the same call.
	create := func(ctx context.Context) error {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"callSid": callSID},
			bson.M{"$setOnInsert": session},
			options.Update().SetUpsert(true),
		)
		return err
	}
	if err := repository.DefaultRetry.Do(ctx, create); err != nil {
		return nil, err
	}
	if err := r.coll.FindOne(ctx, bson.M{"callSid": callSID}).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Save replaces history, state, and counters wholesale. The update is
// conditional on the revision the snapshot carries; on conflict the stored
// revision is refreshed and the write retried within the bounded budget.
func (r *mongoSessionRepo) Save(ctx context.Context, session *models.CallSession) error {
	l := r.lock(session.CallSID)
	l.Lock()
	defer l.Unlock()

	op := func(ctx context.Context) error {
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"callSid": session.CallSID, "revision": session.Revision},
			// The reprompt counter is only ever mutated through its atomic
			// ops; writing it here would clobber a concurrent increment.
			bson.M{"$set": bson.M{
				"history":   session.History,
				"state":     session.State,
				"turnCount": session.TurnCount,
				"revision":  session.Revision + 1,
			}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			// Pick up the revision written by the competing update so the
			// next attempt applies this snapshot on top of it.
			var current struct {
				Revision int64 `bson:"revision"`
			}
			if ferr := r.coll.FindOne(ctx, bson.M{"callSid": session.CallSID}).Decode(&current); ferr == nil {
				session.Revision = current.Revision
			}
			return repository.ErrConflict
		}
		session.Revision++
		return nil
	}
	return repository.DefaultRetry.Do(ctx, op)
}

// IncrementReprompt bumps the silence counter relative to the stored value.
func (r *mongoSessionRepo) IncrementReprompt(ctx context.Context, callSID string) error {
	op := func(ctx context.Context) error {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"callSid": callSID},
			bson.M{"$inc": bson.M{"repromptCount": 1}},
		)
		return err
	}
	return repository.DefaultRetry.Do(ctx, op)
}

// ResetReprompt clears the silence counter.
func (r *mongoSessionRepo) ResetReprompt(ctx context.Context, callSID string) error {
	op := func(ctx context.Context) error {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"callSid": callSID},
			bson.M{"$set": bson.M{"repromptCount": 0}},
		)
		return err
	}
	return repository.DefaultRetry.Do(ctx, op)
}

// SaveMetadata upserts caller metadata captured on the inbound webhook.
func (r *mongoSessionRepo) SaveMetadata(ctx context.Context, meta models.CallMetadata) error {
	op := func(ctx context.Context) error {
		_, err := r.metaColl.UpdateOne(ctx,
			bson.M{"callSid": meta.CallSID},
			bson.M{"$set": meta},
			options.Update().SetUpsert(true),
		)
		return err
	}
	return repository.DefaultRetry.Do(ctx, op)
}

// GetMetadata returns caller metadata for a call, or nil when absent.
func (r *mongoSessionRepo) GetMetadata(ctx context.Context, callSID string) (*models.CallMetadata, error) {
	var meta models.CallMetadata
	err := r.metaColl.FindOne(ctx, bson.M{"callSid": callSID}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListCallSIDs returns every known call identifier.
func (r *mongoSessionRepo) ListCallSIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"callSid": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sids []string
	for cursor.Next(ctx) {
		var doc struct {
			CallSID string `bson:"callSid"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		sids = append(sids, doc.CallSID)
	}
	return sids, cursor.Err()
}
