package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrConflict marks a write rejected by a concurrent update. It is
// transient: the caller's closure is expected to refresh its view before
// the next attempt.
var ErrConflict = errors.New("repository: write conflict")

// RetryPolicy is a bounded retry with a fixed delay, applied to storage
// mutations that may fail transiently. When the budget is exhausted the
// last error is returned and the mutation is treated as lost; callers log
// it and carry on rather than failing the phone call.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetry matches the store's availability-over-durability tradeoff.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, Delay: 100 * time.Millisecond}

// Do runs op, retrying transient failures up to the attempt budget.
// Non-transient errors are returned immediately.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !Transient(err) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// Transient reports whether err is worth retrying.
func Transient(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			// 112 = WriteConflict, 11000 = duplicate key from a racing upsert.
			if e.Code == 112 || e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
