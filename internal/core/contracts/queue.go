package contracts

import "context"

// MessageQueue is the per-conversation ingest pipeline. Messages are
// published by the socket handler and drained by a conversation worker
// which persists and broadcasts them in arrival order.
type MessageQueue interface {
	// PublishToStream appends a payload to the topic's stream.
	PublishToStream(ctx context.Context, topic string, payload []byte) error
	// SubscribeToStream reads the topic's stream through a consumer
	// group, invoking handler per entry until ctx is cancelled.
	SubscribeToStream(ctx context.Context, topic string, conGroup string, handler func(ctx context.Context, messageID string, data []byte) error) error
	// AcknowledgeMessage marks a stream entry as processed.
	AcknowledgeMessage(ctx context.Context, topic, conGroup, mesgID string) error
	// DeleteMessage removes a processed entry from the stream.
	DeleteMessage(ctx context.Context, topic, mesgID string) error
	// DeleteStream removes the whole stream.
	DeleteStream(ctx context.Context, topic string) error
}
