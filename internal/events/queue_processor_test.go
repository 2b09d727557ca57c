package events

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeo009/lookback-Backend/internal/db"
	"github.com/gyeo009/lookback-Backend/internal/testutils"
)

// fakeClient records sent events and fails those whose ID is in fail.
type fakeClient struct {
	mu   sync.Mutex
	sent []cloudevents.Event
	fail map[string]bool
}

func (c *fakeClient) Send(ctx context.Context, event cloudevents.Event) protocol.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, event)
	if c.fail[event.ID()] {
		return protocol.NewReceipt(false, "publish failed")
	}
	return protocol.ResultACK
}

func (c *fakeClient) Request(ctx context.Context, event cloudevents.Event) (*cloudevents.Event, protocol.Result) {
	return nil, nil
}

func (c *fakeClient) StartReceiver(ctx context.Context, fn any) error { return nil }

func testConfig() QueueProcessorConfig {
	cfg := DefaultQueueProcessorConfig()
	cfg.SendDelay = 0
	return cfg
}

func TestQueueProcessor_ProcessBatch(t *testing.T) {
	var (
		sentIDs       []int64
		failedIDs     []int64
		deadLetterIDs []int64
	)
	mock := &testutils.MockQuerier{
		ClaimPendingEventsFunc: func(ctx context.Context, arg db.ClaimPendingEventsParams) (sql.Result, error) {
			assert.Equal(t, "instance-1", arg.ProcessingBy.String)
			assert.Equal(t, int32(5), arg.RetryCount)
			return testutils.Result{Affected: 3}, nil
		},
		GetClaimedEventsFunc: func(ctx context.Context, processingBy sql.NullString) ([]db.GetClaimedEventsRow, error) {
			return []db.GetClaimedEventsRow{
				{ID: 1, EventID: "ok", EventType: UserCreatedType, EventSource: EventSourceLookbackAPI, EventSubject: sql.NullString{String: "a@x.com", Valid: true}, EventData: []byte(`{"email":"a@x.com"}`), ContentType: "application/json"},
				{ID: 2, EventID: "retry", EventType: UserCreatedType, EventSource: EventSourceLookbackAPI, EventData: []byte(`{}`), ContentType: "application/json", RetryCount: 1},
				{ID: 3, EventID: "dead", EventType: UserCreatedType, EventSource: EventSourceLookbackAPI, EventData: []byte(`{}`), ContentType: "application/json", RetryCount: 4},
			}, nil
		},
		MarkEventSentFunc: func(ctx context.Context, id int64) error {
			sentIDs = append(sentIDs, id)
			return nil
		},
		MarkEventFailedFunc: func(ctx context.Context, arg db.MarkEventFailedParams) error {
			failedIDs = append(failedIDs, arg.ID)
			assert.Contains(t, arg.LastError.String, "publish failed")
			return nil
		},
		MarkEventDeadLetterFunc: func(ctx context.Context, arg db.MarkEventDeadLetterParams) error {
			deadLetterIDs = append(deadLetterIDs, arg.ID)
			return nil
		},
	}
	client := &fakeClient{fail: map[string]bool{"retry": true, "dead": true}}

	p := NewQueueProcessor(mock, client, "instance-1", testConfig())
	require.NoError(t, p.processBatch(context.Background()))

	assert.Equal(t, []int64{1}, sentIDs)
	assert.Equal(t, []int64{2}, failedIDs)
	assert.Equal(t, []int64{3}, deadLetterIDs)

	require.Len(t, client.sent, 3)
	first := client.sent[0]
	assert.Equal(t, "a@x.com", first.Subject())
	assert.Equal(t, "application/json", first.DataContentType())
	assert.JSONEq(t, `{"email":"a@x.com"}`, string(first.Data()))
}

func TestQueueProcessor_NothingClaimed(t *testing.T) {
	mock := &testutils.MockQuerier{
		GetClaimedEventsFunc: func(ctx context.Context, processingBy sql.NullString) ([]db.GetClaimedEventsRow, error) {
			t.Fatal("claimed events should not be read when nothing was claimed")
			return nil, nil
		},
	}

	p := NewQueueProcessor(mock, &fakeClient{}, "instance-1", testConfig())
	assert.NoError(t, p.processBatch(context.Background()))
}

func TestQueueProcessor_ClaimError(t *testing.T) {
	mock := &testutils.MockQuerier{
		ClaimPendingEventsFunc: func(ctx context.Context, arg db.ClaimPendingEventsParams) (sql.Result, error) {
			return nil, errors.New("deadlock")
		},
	}

	p := NewQueueProcessor(mock, &fakeClient{}, "instance-1", testConfig())
	assert.ErrorContains(t, p.processBatch(context.Background()), "deadlock")
}

func TestQueueProcessor_StartStop(t *testing.T) {
	recovered := make(chan struct{}, 10)
	cleaned := make(chan int32, 10)
	mock := &testutils.MockQuerier{
		RecoverStaleProcessingFunc: func(ctx context.Context, minutes int32) error {
			select {
			case recovered <- struct{}{}:
			default:
			}
			return nil
		},
		CleanupOldEventsFunc: func(ctx context.Context, days int32) error {
			select {
			case cleaned <- days:
			default:
			}
			return nil
		},
	}

	cfg := testConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.CleanupInterval = 10 * time.Millisecond
	p := NewQueueProcessor(mock, &fakeClient{}, "instance-1", cfg)

	go p.Start(context.Background())

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatal("stale events were not recovered on start")
	}
	select {
	case days := <-cleaned:
		assert.Equal(t, int32(7), days)
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not run")
	}

	p.Stop()
	p.Stop()
}

func TestPubSubCloudEventsClient_Results(t *testing.T) {
	ok := &PubSubCloudEventsClient{sender: senderFunc(func(ctx context.Context, e cloudevents.Event) error { return nil })}
	bad := &PubSubCloudEventsClient{sender: senderFunc(func(ctx context.Context, e cloudevents.Event) error { return errors.New("topic not found") })}

	event := cloudevents.NewEvent()
	assert.True(t, cloudevents.IsACK(ok.Send(context.Background(), event)))

	res := bad.Send(context.Background(), event)
	assert.True(t, cloudevents.IsNACK(res))
	assert.Contains(t, res.Error(), "topic not found")
}

func TestNoOpClient_ACKs(t *testing.T) {
	event := cloudevents.NewEvent()
	event.SetID("e1")
	assert.True(t, cloudevents.IsACK(NewNoOpClient().Send(context.Background(), event)))
}

type senderFunc func(ctx context.Context, event cloudevents.Event) error

func (f senderFunc) Send(ctx context.Context, event cloudevents.Event) error { return f(ctx, event) }
