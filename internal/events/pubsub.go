// Package events queues CloudEvents in MySQL and relays them to Google Cloud Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pubsub "cloud.google.com/go/pubsub/v2"
	pb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// PubSubSender publishes CloudEvents to a single Pub/Sub topic.
type PubSubSender struct {
	publisher *pubsub.Publisher
	client    *pubsub.Client
}

// NewPubSubSender creates a sender, creating the topic when it does not exist.
func NewPubSubSender(ctx context.Context, projectID, topicID string) (*PubSubSender, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if topicID == "" {
		return nil, fmt.Errorf("topic_id is required")
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	if err := ensureTopic(ctx, client, projectID, topicID); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &PubSubSender{
		publisher: client.Publisher(topicID),
		client:    client,
	}, nil
}

func ensureTopic(ctx context.Context, client *pubsub.Client, projectID, topicID string) error {
	topicPath := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pb.GetTopicRequest{Topic: topicPath}); err == nil {
		return nil
	}

	if _, err := client.TopicAdminClient.CreateTopic(ctx, &pb.Topic{Name: topicPath}); err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	slog.Info("Created Pub/Sub topic", "topic", topicPath)
	return nil
}

// Send publishes a CloudEvent in structured JSON mode.
func (s *PubSubSender) Send(ctx context.Context, event cloudevents.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	attrs := map[string]string{
		"ce-specversion": event.SpecVersion(),
		"ce-type":        event.Type(),
		"ce-source":      event.Source(),
		"ce-id":          event.ID(),
	}
	if subject := event.Subject(); subject != "" {
		attrs["ce-subject"] = subject
	}

	result := s.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the client.
func (s *PubSubSender) Close() error {
	s.publisher.Stop()
	return s.client.Close()
}
