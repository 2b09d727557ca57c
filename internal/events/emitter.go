package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/gyeo009/lookback-Backend/internal/db"
)

// Emitter writes events to the event_queue table. The QueueProcessor relays them.
type Emitter struct {
	querier db.Querier
	source  string // e.g., "io.lookback.api"
}

// NewEmitter creates a new event emitter that writes to the database queue.
func NewEmitter(querier db.Querier, source string) *Emitter {
	return &Emitter{
		querier: querier,
		source:  source,
	}
}

// SendEvent marshals data as JSON and queues it as a CloudEvent of eventType.
// Subject identifies the resource the event is about (the user's email).
func (e *Emitter) SendEvent(ctx context.Context, eventType, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	eventID := uuid.NewString()

	var subjectSQL sql.NullString
	if subject != "" {
		subjectSQL = sql.NullString{String: subject, Valid: true}
	}

	if err := e.querier.EnqueueEvent(ctx, db.EnqueueEventParams{
		EventID:      eventID,
		EventType:    eventType,
		EventSource:  e.source,
		EventSubject: subjectSQL,
		EventData:    payload,
		ContentType:  cloudevents.ApplicationJSON,
	}); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	slog.InfoContext(ctx, "Event queued",
		"event_id", eventID,
		"event_type", eventType)

	return nil
}
