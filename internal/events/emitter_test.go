package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeo009/lookback-Backend/internal/db"
	"github.com/gyeo009/lookback-Backend/internal/testutils"
)

func TestEmitter_SendEvent(t *testing.T) {
	var got db.EnqueueEventParams
	mock := &testutils.MockQuerier{
		EnqueueEventFunc: func(ctx context.Context, arg db.EnqueueEventParams) error {
			got = arg
			return nil
		},
	}

	emitter := NewEmitter(mock, EventSourceLookbackAPI)
	err := emitter.SendEvent(context.Background(), UserCreatedType, "a@x.com", UserCreated{
		UserID: 1, Email: "a@x.com", Name: "A", GoogleID: "g1",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(got.EventID)
	assert.NoError(t, err, "event id should be a uuid")
	assert.Equal(t, UserCreatedType, got.EventType)
	assert.Equal(t, EventSourceLookbackAPI, got.EventSource)
	assert.Equal(t, "a@x.com", got.EventSubject.String)
	assert.True(t, got.EventSubject.Valid)
	assert.Equal(t, "application/json", got.ContentType)

	var data UserCreated
	require.NoError(t, json.Unmarshal(got.EventData, &data))
	assert.Equal(t, "g1", data.GoogleID)
}

func TestEmitter_EmptySubjectIsNull(t *testing.T) {
	var got db.EnqueueEventParams
	mock := &testutils.MockQuerier{
		EnqueueEventFunc: func(ctx context.Context, arg db.EnqueueEventParams) error {
			got = arg
			return nil
		},
	}

	require.NoError(t, NewEmitter(mock, EventSourceLookbackAPI).SendEvent(context.Background(), UserCreatedType, "", struct{}{}))
	assert.False(t, got.EventSubject.Valid)
}

func TestEmitter_EnqueueFailure(t *testing.T) {
	mock := &testutils.MockQuerier{
		EnqueueEventFunc: func(ctx context.Context, arg db.EnqueueEventParams) error {
			return errors.New("db down")
		},
	}

	err := NewEmitter(mock, EventSourceLookbackAPI).SendEvent(context.Background(), UserCreatedType, "a@x.com", struct{}{})
	assert.ErrorContains(t, err, "db down")
}

func TestEmitter_UnmarshalableData(t *testing.T) {
	err := NewEmitter(&testutils.MockQuerier{}, EventSourceLookbackAPI).SendEvent(context.Background(), UserCreatedType, "", make(chan int))
	assert.ErrorContains(t, err, "marshal")
}
