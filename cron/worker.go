package cron

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pharmavoice/config"
	bookingRepo "pharmavoice/database/repository/booking"
	calllogRepo "pharmavoice/database/repository/calllog"
	sessionRepo "pharmavoice/database/repository/session"
	"pharmavoice/models"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	analyticsPrefix = "call:aggregate:"
	analyticsTTL    = 30 * 24 * time.Hour
	audioMaxAge     = 24 * time.Hour
)

// Worker processes background tasks: call finalization and stale audio
// pruning.
type Worker struct {
	Sessions  sessionRepo.SessionRepository
	Bookings  bookingRepo.BookingRepository
	Logs      calllogRepo.CallLogRepository
	Analytics *redis.Client
	Logger    *zap.Logger
}

// InitWorker runs the async worker and its periodic scheduler in background.
func InitWorker(w *Worker) {
	srv := asynq.NewServer(
		redisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCallFinalize, w.handleCallFinalize)
	mux.HandleFunc(TypeAudioPrune, w.handleAudioPrune)

	go func() {
		log.Println("[Worker] starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] failed to start: %v", err)
		}
	}()

	scheduler := asynq.NewScheduler(redisOpt(), &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeAudioPrune, nil)); err != nil {
		w.Logger.Warn("failed to register audio prune schedule", zap.Error(err))
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[Worker] scheduler stopped: %v", err)
		}
	}()
}

// handleCallFinalize aggregates one terminated call into the analytics
// cache read by the dashboard.
func (w *Worker) handleCallFinalize(ctx context.Context, task *asynq.Task) error {
	var payload CallFinalizePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	session, err := w.Sessions.Load(ctx, payload.CallSID)
	if err != nil {
		return err
	}
	entries, err := w.Logs.GetByCallSID(ctx, payload.CallSID)
	if err != nil {
		return err
	}
	booking, err := w.Bookings.GetByCallSID(ctx, payload.CallSID)
	if err != nil {
		return err
	}

	agg := models.CallAnalytics{
		CallSID:     payload.CallSID,
		Turns:       len(entries),
		UserTurns:   session.TurnCount,
		Booked:      booking != nil,
		FinalizedAt: time.Now(),
	}
	for _, e := range entries {
		switch e.ErrorMessage {
		case models.LabelSilenceReprompt:
			agg.Reprompts++
		case models.LabelEmergencyObserve:
			agg.Escalated = true
		}
	}

	b, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	if err := w.Analytics.Set(ctx, analyticsPrefix+payload.CallSID, b, analyticsTTL).Err(); err != nil {
		return err
	}

	w.Logger.Info("call finalized",
		zap.String("callSid", payload.CallSID),
		zap.Int("turns", agg.Turns),
		zap.Bool("booked", agg.Booked))
	return nil
}

// handleAudioPrune deletes synthesized audio files past their shelf life.
// Only meaningful in local audio-store mode.
func (w *Worker) handleAudioPrune(ctx context.Context, task *asynq.Task) error {
	dir := config.AppConfig.StaticDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-audioMaxAge)
	pruned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "tts_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				pruned++
			}
		}
	}
	if pruned > 0 {
		w.Logger.Info("pruned stale audio files", zap.Int("count", pruned))
	}
	return nil
}

// GetCallAnalytics reads a finalized aggregate, or nil when the call has
// not been finalized yet.
func GetCallAnalytics(ctx context.Context, client *redis.Client, callSID string) (*models.CallAnalytics, error) {
	data, err := client.Get(ctx, analyticsPrefix+callSID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var agg models.CallAnalytics
	if err := json.Unmarshal([]byte(data), &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}
