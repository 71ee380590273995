package sessionRepo

import (
	"context"
	"sync"

	"pharmavoice/database"
	"pharmavoice/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SessionRepository owns the mutable per-call session state. The dialogue
// engine only ever works on a loaded snapshot and hands back a replacement.
type SessionRepository interface {
	// Load returns the session for a call, creating and persisting an
	// empty one on first access.
	Load(ctx context.Context, callSID string) (*models.CallSession, error)
	// Get returns the session without creating one; nil when unknown.
	Get(ctx context.Context, callSID string) (*models.CallSession, error)
	// Save replaces the stored session wholesale, guarded by the revision
	// the snapshot was loaded with.
	Save(ctx context.Context, session *models.CallSession) error
	IncrementReprompt(ctx context.Context, callSID string) error
	ResetReprompt(ctx context.Context, callSID string) error

	SaveMetadata(ctx context.Context, meta models.CallMetadata) error
	GetMetadata(ctx context.Context, callSID string) (*models.CallMetadata, error)
	ListCallSIDs(ctx context.Context) ([]string, error)
}

type mongoSessionRepo struct {
	coll     *mongo.Collection
	metaColl *mongo.Collection

	// Serializes same-call writers within this process. The telephony
	// provider delivers callbacks for one call sequentially, so contention
	// here is rare but must not clobber slot data when it happens.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMongoSessionRepo returns a SessionRepository backed by MongoDB.
func NewMongoSessionRepo() SessionRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	return &mongoSessionRepo{
		coll:     db.Collection("conversations"),
		metaColl: db.Collection("call_metadata"),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *mongoSessionRepo) lock(callSID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[callSID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[callSID] = l
	}
	return l
}
