package bookingRepo

import (
	"context"
	"errors"
	"time"

	"pharmavoice/database/repository"
	"pharmavoice/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Create inserts a new booking and returns its ID.
func (r *mongoBookingRepo) Create(ctx context.Context, booking models.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now()
	}

	op := func(ctx context.Context) error {
		_, err := r.coll.InsertOne(ctx, booking)
		return err
	}
	if err := repository.DefaultRetry.Do(ctx, op); err != nil {
		return "", err
	}
	return booking.ID, nil
}

// GetByCallSID returns the booking made during a call, or nil when none exists.
func (r *mongoBookingRepo) GetByCallSID(ctx context.Context, callSID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.coll.FindOne(ctx, bson.M{"callSid": callSID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
