package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
)

// ConversationWorker drains one conversation's ingest stream: persist,
// broadcast, then acknowledge and delete the entry. One worker runs per
// active conversation room, spawned and cancelled by the registry.
var _ contracts.AsyncWorker = (*ConversationWorker)(nil)

type ConversationWorker struct {
	log       *slog.Logger
	queue     contracts.MessageQueue
	messaging *services.MessagingService
	conGroup  string
}

func NewConversationWorker(
	log *slog.Logger,
	queue contracts.MessageQueue,
	messaging *services.MessagingService,
	conGroup string,
) *ConversationWorker {
	return &ConversationWorker{
		log:       log,
		queue:     queue,
		messaging: messaging,
		conGroup:  conGroup,
	}
}

func (w *ConversationWorker) Run(ctx context.Context, convID string) error {
	handler := func(ctx context.Context, messageID string, data []byte) error {
		return w.ProcessMessage(ctx, convID, messageID, data)
	}
	if err := w.queue.SubscribeToStream(ctx, convID, w.conGroup, handler); err != nil {
		w.log.ErrorContext(ctx, "worker - run - subscribe to stream failed", "topic", convID, "group", w.conGroup, "err", err)
		return err
	}
	w.log.InfoContext(ctx, "worker - run - subscribed", "topic", convID, "group", w.conGroup)
	return nil
}

func (w *ConversationWorker) ProcessMessage(
	ctx context.Context,
	convID string,
	messageID string,
	raw []byte,
) error {
	var ingress domain.MessageIngress
	if err := json.Unmarshal(raw, &ingress); err != nil {
		w.log.Error("worker - process message - wrong payload", "message_id", messageID, "conv_id", convID)
		// Unparseable entries are acked away so they cannot wedge the
		// stream.
		_ = w.queue.AcknowledgeMessage(ctx, convID, w.conGroup, messageID)
		return err
	}
	if err := w.messaging.PersistAndBroadcast(ctx, &ingress); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - persist and broadcast failed", "message_id", messageID, "conv_id", convID)
		// The originating session has been told; drop the entry rather
		// than redelivering a mutation that already failed terminally.
	}
	if err := w.queue.AcknowledgeMessage(ctx, convID, w.conGroup, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - acknowledge failed", "message_id", messageID, "conv_id", convID)
		return err
	}
	if err := w.queue.DeleteMessage(ctx, convID, messageID); err != nil {
		w.log.ErrorContext(ctx, "worker - process message - delete failed", "message_id", messageID, "conv_id", convID)
	}
	return nil
}
