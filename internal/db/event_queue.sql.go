package db

import (
	"context"
	"database/sql"
)

const claimPendingEvents = `-- name: ClaimPendingEvents :execresult
UPDATE event_queue
SET status = 'processing', processing_by = ?, processing_started_at = NOW()
WHERE status IN ('pending', 'failed') AND retry_count < ?
ORDER BY id
LIMIT ?
`

type ClaimPendingEventsParams struct {
	ProcessingBy sql.NullString
	RetryCount   int32
	Limit        int32
}

func (q *Queries) ClaimPendingEvents(ctx context.Context, arg ClaimPendingEventsParams) (sql.Result, error) {
	return q.db.ExecContext(ctx, claimPendingEvents, arg.ProcessingBy, arg.RetryCount, arg.Limit)
}

const cleanupOldEvents = `-- name: CleanupOldEvents :exec
DELETE FROM event_queue
WHERE status = 'sent' AND sent_at < NOW() - INTERVAL ? DAY
`

func (q *Queries) CleanupOldEvents(ctx context.Context, days int32) error {
	_, err := q.db.ExecContext(ctx, cleanupOldEvents, days)
	return err
}

const enqueueEvent = `-- name: EnqueueEvent :exec
INSERT INTO event_queue (event_id, event_type, event_source, event_subject, event_data, content_type, status)
VALUES (?, ?, ?, ?, ?, ?, 'pending')
`

type EnqueueEventParams struct {
	EventID      string
	EventType    string
	EventSource  string
	EventSubject sql.NullString
	EventData    []byte
	ContentType  string
}

func (q *Queries) EnqueueEvent(ctx context.Context, arg EnqueueEventParams) error {
	_, err := q.db.ExecContext(ctx, enqueueEvent,
		arg.EventID,
		arg.EventType,
		arg.EventSource,
		arg.EventSubject,
		arg.EventData,
		arg.ContentType,
	)
	return err
}

const getClaimedEvents = `-- name: GetClaimedEvents :many
SELECT id, event_id, event_type, event_source, event_subject, event_data, content_type, retry_count
FROM event_queue
WHERE status = 'processing' AND processing_by = ?
ORDER BY id
`

type GetClaimedEventsRow struct {
	ID           int64
	EventID      string
	EventType    string
	EventSource  string
	EventSubject sql.NullString
	EventData    []byte
	ContentType  string
	RetryCount   int32
}

func (q *Queries) GetClaimedEvents(ctx context.Context, processingBy sql.NullString) ([]GetClaimedEventsRow, error) {
	rows, err := q.db.QueryContext(ctx, getClaimedEvents, processingBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetClaimedEventsRow
	for rows.Next() {
		var i GetClaimedEventsRow
		if err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.EventType,
			&i.EventSource,
			&i.EventSubject,
			&i.EventData,
			&i.ContentType,
			&i.RetryCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markEventDeadLetter = `-- name: MarkEventDeadLetter :exec
UPDATE event_queue
SET status = 'dead_letter', retry_count = retry_count + 1, last_error = ?, processing_by = NULL
WHERE id = ?
`

type MarkEventDeadLetterParams struct {
	LastError sql.NullString
	ID        int64
}

func (q *Queries) MarkEventDeadLetter(ctx context.Context, arg MarkEventDeadLetterParams) error {
	_, err := q.db.ExecContext(ctx, markEventDeadLetter, arg.LastError, arg.ID)
	return err
}

const markEventFailed = `-- name: MarkEventFailed :exec
UPDATE event_queue
SET status = 'failed', retry_count = retry_count + 1, last_error = ?, processing_by = NULL
WHERE id = ?
`

type MarkEventFailedParams struct {
	LastError sql.NullString
	ID        int64
}

func (q *Queries) MarkEventFailed(ctx context.Context, arg MarkEventFailedParams) error {
	_, err := q.db.ExecContext(ctx, markEventFailed, arg.LastError, arg.ID)
	return err
}

const markEventSent = `-- name: MarkEventSent :exec
UPDATE event_queue
SET status = 'sent', sent_at = NOW(), processing_by = NULL
WHERE id = ?
`

func (q *Queries) MarkEventSent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markEventSent, id)
	return err
}

const recoverStaleProcessing = `-- name: RecoverStaleProcessing :exec
UPDATE event_queue
SET status = 'pending', processing_by = NULL
WHERE status = 'processing' AND processing_started_at < NOW() - INTERVAL ? MINUTE
`

func (q *Queries) RecoverStaleProcessing(ctx context.Context, minutes int32) error {
	_, err := q.db.ExecContext(ctx, recoverStaleProcessing, minutes)
	return err
}
