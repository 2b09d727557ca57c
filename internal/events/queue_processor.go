package events

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/gyeo009/lookback-Backend/internal/db"
	"github.com/gyeo009/lookback-Backend/internal/metrics"
)

// QueueProcessor relays queued events through a CloudEvents client.
type QueueProcessor struct {
	querier         db.Querier
	client          cloudevents.Client
	instanceID      string
	batchSize       int32
	maxRetries      int32
	pollInterval    time.Duration
	sendDelay       time.Duration
	cleanupInterval time.Duration
	cleanupDays     int32
	staleTimeout    int32 // Minutes before recovering stale processing events
	stopCh          chan struct{}
	stoppedCh       chan struct{}
	stopOnce        sync.Once
}

// QueueProcessorConfig holds configuration for the queue processor.
type QueueProcessorConfig struct {
	BatchSize       int32
	MaxRetries      int32
	PollInterval    time.Duration
	SendDelay       time.Duration
	CleanupInterval time.Duration
	CleanupDays     int32
	StaleTimeout    int32 // Minutes before recovering stale processing events
}

// DefaultQueueProcessorConfig returns default queue processor config.
func DefaultQueueProcessorConfig() QueueProcessorConfig {
	return QueueProcessorConfig{
		BatchSize:       10,
		MaxRetries:      5,
		PollInterval:    5 * time.Second,
		SendDelay:       100 * time.Millisecond,
		CleanupInterval: time.Hour,
		CleanupDays:     7,
		StaleTimeout:    5,
	}
}

// NewQueueProcessor creates a new queue processor.
func NewQueueProcessor(querier db.Querier, client cloudevents.Client, instanceID string, config QueueProcessorConfig) *QueueProcessor {
	return &QueueProcessor{
		querier:         querier,
		client:          client,
		instanceID:      instanceID,
		batchSize:       config.BatchSize,
		maxRetries:      config.MaxRetries,
		pollInterval:    config.PollInterval,
		sendDelay:       config.SendDelay,
		cleanupInterval: config.CleanupInterval,
		cleanupDays:     config.CleanupDays,
		staleTimeout:    config.StaleTimeout,
		stopCh:          make(chan struct{}),
		stoppedCh:       make(chan struct{}),
	}
}

// Start processes queued events until ctx is cancelled or Stop is called. It blocks.
func (p *QueueProcessor) Start(ctx context.Context) {
	slog.Info("Queue processor started", "instance", p.instanceID)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	defer close(p.stoppedCh)

	cleanupInterval := p.cleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	if err := p.querier.RecoverStaleProcessing(ctx, p.staleTimeout); err != nil {
		slog.Error("Error recovering stale events", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Queue processor stopped (context cancelled)")
			return
		case <-p.stopCh:
			slog.Info("Queue processor stopped (stop signal)")
			return
		case <-cleanup.C:
			if err := p.CleanupOldEvents(ctx); err != nil {
				slog.Error("Error cleaning up sent events", "error", err)
			}
		case <-ticker.C:
			if err := p.querier.RecoverStaleProcessing(ctx, p.staleTimeout); err != nil {
				slog.Error("Error recovering stale events", "error", err)
				continue
			}

			if err := p.processBatch(ctx); err != nil {
				slog.Error("Error processing event queue batch", "error", err)
			}
		}
	}
}

// Stop signals the processor to stop and waits for the current batch.
func (p *QueueProcessor) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.stoppedCh
}

// processBatch claims and sends one batch of queued events.
func (p *QueueProcessor) processBatch(ctx context.Context) error {
	instance := sql.NullString{String: p.instanceID, Valid: true}
	result, err := p.querier.ClaimPendingEvents(ctx, db.ClaimPendingEventsParams{
		ProcessingBy: instance,
		RetryCount:   p.maxRetries,
		Limit:        p.batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to claim pending events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	queued, err := p.querier.GetClaimedEvents(ctx, instance)
	if err != nil {
		return fmt.Errorf("failed to get claimed events: %w", err)
	}

	slog.Debug("Processing queued events", "count", len(queued), "instance", p.instanceID)

	var sent, failed, deadLetter int
	for i, queuedEvent := range queued {
		if i > 0 && p.sendDelay > 0 {
			time.Sleep(p.sendDelay)
		}

		event := cloudevents.NewEvent()
		event.SetID(queuedEvent.EventID)
		event.SetSource(queuedEvent.EventSource)
		event.SetType(queuedEvent.EventType)
		if queuedEvent.EventSubject.Valid {
			event.SetSubject(queuedEvent.EventSubject.String)
		}
		event.SetTime(time.Now())
		if err := event.SetData(queuedEvent.ContentType, queuedEvent.EventData); err != nil {
			slog.Error("Failed to set event data", "event_id", queuedEvent.EventID, "error", err)
			continue
		}

		res := p.client.Send(ctx, event)
		if !cloudevents.IsNACK(res) && !cloudevents.IsUndelivered(res) {
			if err := p.querier.MarkEventSent(ctx, queuedEvent.ID); err != nil {
				slog.Error("Failed to mark event as sent", "event_id", queuedEvent.EventID, "error", err)
				continue
			}
			sent++
			metrics.EventsProcessed.WithLabelValues(string(db.EventQueueStatusSent)).Inc()
			continue
		}

		lastError := sql.NullString{String: fmt.Sprintf("%v", res), Valid: true}
		if queuedEvent.RetryCount >= p.maxRetries-1 {
			if err := p.querier.MarkEventDeadLetter(ctx, db.MarkEventDeadLetterParams{ID: queuedEvent.ID, LastError: lastError}); err != nil {
				slog.Error("Failed to mark event as dead letter", "event_id", queuedEvent.EventID, "error", err)
				continue
			}
			deadLetter++
			metrics.EventsProcessed.WithLabelValues(string(db.EventQueueStatusDeadLetter)).Inc()
			slog.Warn("Event moved to dead letter", "event_id", queuedEvent.EventID, "retry_count", queuedEvent.RetryCount+1)
			continue
		}

		if err := p.querier.MarkEventFailed(ctx, db.MarkEventFailedParams{ID: queuedEvent.ID, LastError: lastError}); err != nil {
			slog.Error("Failed to mark event as failed", "event_id", queuedEvent.EventID, "error", err)
			continue
		}
		failed++
		metrics.EventsProcessed.WithLabelValues(string(db.EventQueueStatusFailed)).Inc()
	}

	slog.Info("Queue batch processed",
		"sent", sent,
		"failed", failed,
		"dead_letter", deadLetter)

	return nil
}

// CleanupOldEvents removes sent events older than the configured number of days.
func (p *QueueProcessor) CleanupOldEvents(ctx context.Context) error {
	return p.querier.CleanupOldEvents(ctx, p.cleanupDays)
}
