package testutils

import (
	"context"
	"database/sql"

	"github.com/gyeo009/lookback-Backend/internal/db"
)

// MockQuerier is a mock implementation of the db.Querier interface for testing purposes.
type MockQuerier struct {
	GetUserByEmailFunc         func(ctx context.Context, email string) (db.User, error)
	CreateUserFunc             func(ctx context.Context, arg db.CreateUserParams) (sql.Result, error)
	EnqueueEventFunc           func(ctx context.Context, arg db.EnqueueEventParams) error
	ClaimPendingEventsFunc     func(ctx context.Context, arg db.ClaimPendingEventsParams) (sql.Result, error)
	GetClaimedEventsFunc       func(ctx context.Context, processingBy sql.NullString) ([]db.GetClaimedEventsRow, error)
	MarkEventSentFunc          func(ctx context.Context, id int64) error
	MarkEventFailedFunc        func(ctx context.Context, arg db.MarkEventFailedParams) error
	MarkEventDeadLetterFunc    func(ctx context.Context, arg db.MarkEventDeadLetterParams) error
	RecoverStaleProcessingFunc func(ctx context.Context, minutes int32) error
	CleanupOldEventsFunc       func(ctx context.Context, days int32) error
}

var _ db.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) GetUserByEmail(ctx context.Context, email string) (db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return db.User{}, sql.ErrNoRows
}

func (m *MockQuerier) CreateUser(ctx context.Context, arg db.CreateUserParams) (sql.Result, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, arg)
	}
	return Result{LastID: 1, Affected: 1}, nil
}

func (m *MockQuerier) EnqueueEvent(ctx context.Context, arg db.EnqueueEventParams) error {
	if m.EnqueueEventFunc != nil {
		return m.EnqueueEventFunc(ctx, arg)
	}
	return nil
}

func (m *MockQuerier) ClaimPendingEvents(ctx context.Context, arg db.ClaimPendingEventsParams) (sql.Result, error) {
	if m.ClaimPendingEventsFunc != nil {
		return m.ClaimPendingEventsFunc(ctx, arg)
	}
	return Result{}, nil
}

func (m *MockQuerier) GetClaimedEvents(ctx context.Context, processingBy sql.NullString) ([]db.GetClaimedEventsRow, error) {
	if m.GetClaimedEventsFunc != nil {
		return m.GetClaimedEventsFunc(ctx, processingBy)
	}
	return nil, nil
}

func (m *MockQuerier) MarkEventSent(ctx context.Context, id int64) error {
	if m.MarkEventSentFunc != nil {
		return m.MarkEventSentFunc(ctx, id)
	}
	return nil
}

func (m *MockQuerier) MarkEventFailed(ctx context.Context, arg db.MarkEventFailedParams) error {
	if m.MarkEventFailedFunc != nil {
		return m.MarkEventFailedFunc(ctx, arg)
	}
	return nil
}

func (m *MockQuerier) MarkEventDeadLetter(ctx context.Context, arg db.MarkEventDeadLetterParams) error {
	if m.MarkEventDeadLetterFunc != nil {
		return m.MarkEventDeadLetterFunc(ctx, arg)
	}
	return nil
}

func (m *MockQuerier) RecoverStaleProcessing(ctx context.Context, minutes int32) error {
	if m.RecoverStaleProcessingFunc != nil {
		return m.RecoverStaleProcessingFunc(ctx, minutes)
	}
	return nil
}

func (m *MockQuerier) CleanupOldEvents(ctx context.Context, days int32) error {
	if m.CleanupOldEventsFunc != nil {
		return m.CleanupOldEventsFunc(ctx, days)
	}
	return nil
}

// Result is a fixed sql.Result for mocked exec queries.
type Result struct {
	LastID   int64
	Affected int64
}

func (r Result) LastInsertId() (int64, error) { return r.LastID, nil }
func (r Result) RowsAffected() (int64, error) { return r.Affected, nil }
