package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EventType enumerates fire-and-forget events consumed by the notifier worker.
type EventType string

const (
	EventAssignmentCreated EventType = "ASSIGNMENT_CREATED"
	EventExamCompleted     EventType = "EXAM_COMPLETED"
	EventUserCredentials   EventType = "USER_CREDENTIALS"
)

// Event is the envelope pushed onto the notify queue. Delivery is best
// effort: a push failure is logged, never propagated to the caller.
type Event struct {
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	UserID     int               `json:"user_id,omitempty"`
	ExamID     string            `json:"exam_id,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// emitEvent serializes the event and RPUSHes it to the notify queue.
func emitEvent(ctx context.Context, rdb *redis.Client, log zerolog.Logger, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", string(ev.Type)).Msg("Marshal event failed")
		return
	}
	if err := rdb.RPush(ctx, config.WorkerKey.NotifyQueue, raw).Err(); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("Event enqueue failed")
	}
}
