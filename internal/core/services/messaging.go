package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging-service")

// MessagingService persists and fans out conversation-scoped events.
// Sent messages take the ingest pipeline: the socket handler publishes
// to the conversation's stream and the conversation worker persists and
// broadcasts in arrival order, so per-sender ordering holds end to end.
// Broadcast strictly follows successful persistence; a persistence
// failure is reported only to the originating session.
type MessagingService struct {
	log       *slog.Logger
	registry  contracts.Registry
	queue     contracts.MessageQueue
	convRepo  domain.ConversationRepository
	msgRepo   domain.MessageRepository
	txManager Transactor
}

func NewMessagingService(
	log *slog.Logger,
	registry contracts.Registry,
	queue contracts.MessageQueue,
	convRepo domain.ConversationRepository,
	msgRepo domain.MessageRepository,
	txManager Transactor,
) *MessagingService {
	return &MessagingService{
		log:       log,
		registry:  registry,
		queue:     queue,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		txManager: txManager,
	}
}

// HandleConnect subscribes the session to the room of every conversation
// the user participates in. It runs before the read loop starts, so
// messages sent immediately after connect are not missed.
func (s *MessagingService) HandleConnect(ctx context.Context, c contracts.Client) error {
	ctx, span := tracer.Start(ctx, "MessagingService.HandleConnect", trace.WithAttributes(
		attribute.String("user_id", c.UserID()),
	))
	defer span.End()

	convs, err := s.convRepo.FindForUser(ctx, c.UserID())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation lookup failed")
		s.log.ErrorContext(ctx, "messaging - handle connect - conversation lookup failed", "user_id", c.UserID(), "err", err)
		return err
	}
	for _, conv := range convs {
		s.registry.Join(conv.ID.String(), c)
	}
	span.SetAttributes(attribute.Int("conversation_count", len(convs)))
	s.log.InfoContext(ctx, "messaging - handle connect - subscribed", "user_id", c.UserID(), "conversations", len(convs))
	return nil
}

// HandleEvent dispatches one inbound frame from a messaging session.
// Malformed frames and unknown event types are dropped without a reply.
func (s *MessagingService) HandleEvent(ctx context.Context, c contracts.Client, raw []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.log.DebugContext(ctx, "messaging - handle event - unparseable frame", "session_id", c.SessionID())
		return
	}
	switch env.Type {
	case domain.EvtSendMessage:
		var evt domain.SendMessageEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		s.SendMessage(ctx, c, evt)
	case domain.EvtTyping:
		var evt domain.TypingEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		s.Typing(ctx, c, evt)
	case domain.EvtMarkRead:
		var evt domain.MarkReadEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		s.MarkRead(ctx, c, evt.ConversationID)
	case domain.EvtReact:
		var evt domain.ReactEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return
		}
		s.React(ctx, c, evt.MessageID, evt.Emoji)
	}
}

// SendMessage stamps the payload with the sender identity and publishes
// it to the conversation's ingest stream. The worker completes the
// persist-then-broadcast half.
func (s *MessagingService) SendMessage(ctx context.Context, c contracts.Client, evt domain.SendMessageEvent) {
	ctx, span := tracer.Start(ctx, "MessagingService.SendMessage", trace.WithAttributes(
		attribute.String("conv_id", evt.ConversationID.String()),
		attribute.String("sender_id", c.UserID()),
	))
	defer span.End()

	if evt.ConversationID == uuid.Nil {
		return
	}
	msgType := evt.Type
	if msgType == "" {
		msgType = domain.MessageText
	}
	senderName := evt.SenderName
	if senderName == "" {
		senderName = c.DisplayName()
	}
	ingress := domain.MessageIngress{
		SessionID:      c.SessionID(),
		ConversationID: evt.ConversationID,
		SenderID:       c.UserID(),
		SenderName:     senderName,
		Type:           msgType,
		Content:        evt.Content,
		MediaURL:       evt.MediaURL,
		AcceptedAt:     time.Now().UTC(),
	}
	raw, _ := json.Marshal(ingress)
	if err := s.queue.PublishToStream(ctx, evt.ConversationID.String(), raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream publish failed")
		s.log.ErrorContext(ctx, "messaging - send message - publish to stream failed", "conv_id", evt.ConversationID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to send message"))
		return
	}
	s.log.InfoContext(ctx, "messaging - send message - accepted", "conv_id", evt.ConversationID.String(), "sender_id", c.UserID())
}

// PersistAndBroadcast is the worker half of SendMessage: persist the
// message with server-assigned id and timestamp, then broadcast the
// stored record to the whole room including the sender, whose UI picks
// up the generated fields from it.
func (s *MessagingService) PersistAndBroadcast(ctx context.Context, ingress *domain.MessageIngress) error {
	ctx, span := tracer.Start(ctx, "MessagingService.PersistAndBroadcast", trace.WithAttributes(
		attribute.String("conv_id", ingress.ConversationID.String()),
	))
	defer span.End()

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: ingress.ConversationID,
		SenderID:       ingress.SenderID,
		SenderName:     ingress.SenderName,
		Type:           ingress.Type,
		Content:        ingress.Content,
		MediaURL:       ingress.MediaURL,
		Reactions:      []domain.Reaction{},
		ReadBy:         []string{ingress.SenderID},
	}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.msgRepo.Create(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.log.ErrorContext(ctx, "messaging - persist and broadcast - create failed", "conv_id", ingress.ConversationID.String(), "err", err)
		s.registry.SendTo(ctx, ingress.SessionID, domain.NewErrorEvent("failed to send message"))
		return err
	}
	s.registry.Broadcast(ctx, msg.ConversationID.String(), domain.NewMessage{
		Type:    domain.EvtNewMessage,
		Message: *msg,
	}, "")
	s.log.InfoContext(ctx, "messaging - persist and broadcast - delivered",
		"conv_id", msg.ConversationID.String(), "message_id", msg.ID.String())
	return nil
}

// Typing is ephemeral: relayed to the other room members, never stored.
func (s *MessagingService) Typing(ctx context.Context, c contracts.Client, evt domain.TypingEvent) {
	if evt.ConversationID == uuid.Nil {
		return
	}
	s.registry.Broadcast(ctx, evt.ConversationID.String(), domain.TypingIndicator{
		Type:       domain.EvtTypingIndicator,
		UserID:     c.UserID(),
		SenderName: evt.SenderName,
		Typing:     evt.Typing,
	}, c.SessionID())
}

// MarkRead appends the user to readBy on every unread message of the
// conversation and announces the receipt to all members.
func (s *MessagingService) MarkRead(ctx context.Context, c contracts.Client, convID uuid.UUID) {
	if convID == uuid.Nil {
		return
	}
	if err := s.msgRepo.MarkAllRead(ctx, convID, c.UserID()); err != nil {
		s.log.ErrorContext(ctx, "messaging - mark read - persist failed", "conv_id", convID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to mark messages read"))
		return
	}
	s.registry.Broadcast(ctx, convID.String(), domain.MessagesRead{
		Type:           domain.EvtMessagesRead,
		ConversationID: convID.String(),
		UserID:         c.UserID(),
	}, "")
}

// React upserts the user's reaction (one per user per message, latest
// emoji wins) and broadcasts the updated list to the conversation.
func (s *MessagingService) React(ctx context.Context, c contracts.Client, msgID uuid.UUID, emoji string) {
	if msgID == uuid.Nil || emoji == "" {
		return
	}
	msg, err := s.msgRepo.GetByID(ctx, msgID)
	if err != nil {
		s.log.ErrorContext(ctx, "messaging - react - message lookup failed", "message_id", msgID.String(), "err", err)
		// A reaction to a message that no longer exists is dropped; a
		// lookup that failed for any other reason is reported back.
		if !errors.Is(err, domain.ErrMessageNotFound) {
			s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to react"))
		}
		return
	}
	reactions, err := s.msgRepo.UpsertReaction(ctx, msgID, c.UserID(), emoji)
	if err != nil {
		s.log.ErrorContext(ctx, "messaging - react - upsert failed", "message_id", msgID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to react"))
		return
	}
	s.registry.Broadcast(ctx, msg.ConversationID.String(), domain.ReactionUpdate{
		Type:      domain.EvtReactionUpdate,
		MessageID: msgID.String(),
		Reactions: reactions,
	}, "")
}

// ── REST-facing operations ───────────────────────────────────────────

func (s *MessagingService) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.convRepo.FindForUser(ctx, userID)
}

func (s *MessagingService) CreateDM(ctx context.Context, userID, targetID string) (*domain.Conversation, error) {
	var conv *domain.Conversation
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		conv, txErr = s.convRepo.CreateDM(txCtx, userID, targetID)
		return txErr
	})
	return conv, err
}

func (s *MessagingService) CreateGroup(ctx context.Context, userID, name string, participantIDs []string) (*domain.Conversation, error) {
	all := []string{userID}
	for _, id := range participantIDs {
		if !slices.Contains(all, id) {
			all = append(all, id)
		}
	}
	var conv *domain.Conversation
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		conv, txErr = s.convRepo.CreateGroup(txCtx, name, all)
		return txErr
	})
	return conv, err
}

func (s *MessagingService) ListMessages(ctx context.Context, convID uuid.UUID, limit int) ([]domain.Message, error) {
	return s.msgRepo.ListByConversation(ctx, convID, limit)
}

// DeleteConversation removes the conversation and its messages. Only a
// participant may delete it; afterwards subscribed clients are told to
// evict their local copies.
func (s *MessagingService) DeleteConversation(ctx context.Context, userID string, convID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, convID)
	if err != nil {
		return err
	}
	if !slices.Contains(conv.ParticipantIDs, userID) {
		return domain.ErrNotAParticipant
	}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.msgRepo.DeleteByConversation(txCtx, convID); err != nil {
			return err
		}
		return s.convRepo.Delete(txCtx, convID)
	}); err != nil {
		return err
	}
	if err := s.queue.DeleteStream(ctx, convID.String()); err != nil {
		s.log.WarnContext(ctx, "messaging - delete conversation - stream cleanup failed", "conv_id", convID.String(), "err", err)
	}
	s.registry.Broadcast(ctx, convID.String(), domain.ConversationDeleted{
		Type:           domain.EvtConversationDeleted,
		ConversationID: convID.String(),
	}, "")
	return nil
}

// DeleteMessage removes a single message. Only its author may.
func (s *MessagingService) DeleteMessage(ctx context.Context, userID string, msgID uuid.UUID) error {
	msg, err := s.msgRepo.GetByID(ctx, msgID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return domain.ErrNotMessageAuthor
	}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return s.msgRepo.Delete(txCtx, msgID)
	}); err != nil {
		return err
	}
	s.registry.Broadcast(ctx, msg.ConversationID.String(), domain.MessageDeleted{
		Type:      domain.EvtMessageDeleted,
		MessageID: msgID.String(),
	}, "")
	return nil
}
