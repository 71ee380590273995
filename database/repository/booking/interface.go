package bookingRepo

import (
	"context"

	"pharmavoice/database"
	"pharmavoice/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository stores immutable appointment records. Rows are only
// ever inserted; a session produces at most one booking because the flow
// terminates the call on completion.
type BookingRepository interface {
	Create(ctx context.Context, booking models.Booking) (string, error)
	GetByCallSID(ctx context.Context, callSID string) (*models.Booking, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a new BookingRepository instance using MongoDB.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
