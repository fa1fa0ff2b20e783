package contracts

import "context"

// AsyncWorker drains one conversation's ingest stream.
type AsyncWorker interface {
	// Run starts the consumer loop for one conversation room and
	// returns when ctx is cancelled.
	Run(ctx context.Context, convID string) error
	// ProcessMessage persists a single ingress payload, broadcasts the
	// stored record, then acknowledges and deletes the stream entry.
	ProcessMessage(ctx context.Context, convID, msgID string, rawData []byte) error
}
