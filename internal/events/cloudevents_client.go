package events

import (
	"context"
	"fmt"
	"log/slog"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/protocol"
)

// eventSender is the single method the Pub/Sub client adapter needs.
type eventSender interface {
	Send(ctx context.Context, event cloudevents.Event) error
}

// PubSubCloudEventsClient adapts a PubSubSender to the cloudevents.Client interface.
type PubSubCloudEventsClient struct {
	sender eventSender
}

// NewPubSubCloudEventsClient creates a CloudEvents client that sends events to Pub/Sub.
func NewPubSubCloudEventsClient(sender *PubSubSender) cloudevents.Client {
	return &PubSubCloudEventsClient{sender: sender}
}

// Send transmits a CloudEvent to Pub/Sub. Failures are NACKs.
func (c *PubSubCloudEventsClient) Send(ctx context.Context, event cloudevents.Event) protocol.Result {
	if err := c.sender.Send(ctx, event); err != nil {
		return protocol.NewReceipt(false, "%v", err)
	}
	return protocol.ResultACK
}

// Request is not supported for Pub/Sub (fire-and-forget only).
func (c *PubSubCloudEventsClient) Request(ctx context.Context, event cloudevents.Event) (*cloudevents.Event, protocol.Result) {
	return nil, protocol.NewReceipt(false, "request/response not supported for Pub/Sub")
}

// StartReceiver is not supported for Pub/Sub sender (send-only client).
func (c *PubSubCloudEventsClient) StartReceiver(ctx context.Context, fn any) error {
	return fmt.Errorf("receiver not supported for Pub/Sub sender client")
}

// noopClient ACKs every event. Used when no topic is configured.
type noopClient struct{}

// NewNoOpClient creates a CloudEvents client that discards all events.
func NewNoOpClient() cloudevents.Client {
	return noopClient{}
}

func (noopClient) Send(ctx context.Context, event cloudevents.Event) protocol.Result {
	slog.DebugContext(ctx, "Discarding event", "event_id", event.ID(), "event_type", event.Type())
	return protocol.ResultACK
}

func (noopClient) Request(ctx context.Context, event cloudevents.Event) (*cloudevents.Event, protocol.Result) {
	return nil, protocol.ResultACK
}

func (noopClient) StartReceiver(ctx context.Context, fn any) error {
	<-ctx.Done()
	return nil
}
