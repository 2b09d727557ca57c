package db

import (
	"context"
	"database/sql"
)

type Querier interface {
	ClaimPendingEvents(ctx context.Context, arg ClaimPendingEventsParams) (sql.Result, error)
	CleanupOldEvents(ctx context.Context, days int32) error
	CreateUser(ctx context.Context, arg CreateUserParams) (sql.Result, error)
	EnqueueEvent(ctx context.Context, arg EnqueueEventParams) error
	GetClaimedEvents(ctx context.Context, processingBy sql.NullString) ([]GetClaimedEventsRow, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	MarkEventDeadLetter(ctx context.Context, arg MarkEventDeadLetterParams) error
	MarkEventFailed(ctx context.Context, arg MarkEventFailedParams) error
	MarkEventSent(ctx context.Context, id int64) error
	RecoverStaleProcessing(ctx context.Context, minutes int32) error
}

var _ Querier = (*Queries)(nil)
