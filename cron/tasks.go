package cron

import (
	"encoding/json"

	"pharmavoice/config"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// TypeCallFinalize aggregates a terminated call into the analytics cache.
	TypeCallFinalize = "call:finalize"
	// TypeAudioPrune removes stale synthesized audio files.
	TypeAudioPrune = "audio:prune"
)

// CallFinalizePayload identifies the call to aggregate.
type CallFinalizePayload struct {
	CallSID string `json:"call_sid"`
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// TaskClient enqueues background work from the request path. Enqueue
// failures are logged and dropped; a phone call never waits on the queue.
type TaskClient struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewTaskClient creates the enqueue side of the worker.
func NewTaskClient(logger *zap.Logger) *TaskClient {
	return &TaskClient{
		client: asynq.NewClient(redisOpt()),
		logger: logger,
	}
}

// EnqueueCallFinalize schedules aggregation of a call that just ended.
func (t *TaskClient) EnqueueCallFinalize(callSID string) {
	payload, err := json.Marshal(CallFinalizePayload{CallSID: callSID})
	if err != nil {
		return
	}
	if _, err := t.client.Enqueue(asynq.NewTask(TypeCallFinalize, payload), asynq.MaxRetry(3)); err != nil {
		t.logger.Warn("failed to enqueue call finalize",
			zap.String("callSid", callSID),
			zap.Error(err))
	}
}

// Close releases the underlying queue connection.
func (t *TaskClient) Close() error {
	return t.client.Close()
}
