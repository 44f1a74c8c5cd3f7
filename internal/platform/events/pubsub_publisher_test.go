package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubPublisherPublishesEvent(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "storefront-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubPublisher: %v", err)
	}

	occurredAt := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	event := Event{
		Type:       TypeOrderPlaced,
		UserID:     "user-1",
		EntityID:   "order-1",
		OccurredAt: occurredAt,
		Payload:    map[string]any{"orderNumber": "ORD-123456789"},
	}

	if _, err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload Event
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Type != TypeOrderPlaced || payload.EntityID != "order-1" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["type"]; attr != TypeOrderPlaced {
		t.Fatalf("expected type attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["userId"]; attr != "user-1" {
		t.Fatalf("expected userId attribute, got %q", attr)
	}
}

func TestPubSubPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubPublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
