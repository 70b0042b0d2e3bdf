package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// AlertEvent is the message body published for each alert.
type AlertEvent struct {
	EventType string          `json:"event_type"`
	Alert     dashboard.Alert `json:"alert"`
}

// EncodeAlertEvent returns the published payload and its attributes.
func EncodeAlertEvent(a dashboard.Alert) ([]byte, map[string]string, error) {
	data, err := json.Marshal(AlertEvent{EventType: "alert_added", Alert: a})
	if err != nil {
		return nil, nil, fmt.Errorf("encode alert event: %w", err)
	}
	attrs := map[string]string{
		"alert_type": string(a.Type),
	}
	if a.ServiceID != nil {
		attrs["service_id"] = *a.ServiceID
	}
	return data, attrs, nil
}

// PubSubNotifier publishes alerts to a Pub/Sub topic.
type PubSubNotifier struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topic     string
}

// NewPubSubNotifier creates a notifier publishing to topic in projectID.
func NewPubSubNotifier(ctx context.Context, projectID, topic string) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubNotifier{
		client:    client,
		publisher: client.Publisher(topic),
		topic:     topic,
	}, nil
}

// Name returns "pubsub".
func (n *PubSubNotifier) Name() string { return "pubsub" }

// Notify publishes the alert and waits for the server acknowledgement.
func (n *PubSubNotifier) Notify(ctx context.Context, a dashboard.Alert) error {
	data, attrs, err := EncodeAlertEvent(a)
	if err != nil {
		return err
	}

	res := n.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publish alert to %s: %w", n.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (n *PubSubNotifier) Close() error {
	n.publisher.Stop()
	return n.client.Close()
}
