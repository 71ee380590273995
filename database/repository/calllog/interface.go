package calllogRepo

import (
	"context"

	"pharmavoice/database"
	"pharmavoice/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// CallLogRepository is the append-only audit trail of processed turns.
type CallLogRepository interface {
	Append(ctx context.Context, entry models.CallLogEntry) (string, error)
	Recent(ctx context.Context, limit int64) ([]models.CallLogEntry, error)
	GetByCallSID(ctx context.Context, callSID string) ([]models.CallLogEntry, error)
}

type mongoCallLogRepo struct {
	coll *mongo.Collection
}

// NewMongoCallLogRepo returns a new CallLogRepository instance using MongoDB.
func NewMongoCallLogRepo() CallLogRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	return &mongoCallLogRepo{
		coll: db.Collection("call_logs"),
	}
}
