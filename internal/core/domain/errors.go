package domain

import "errors"

var (
	ErrInvalidConversationID = errors.New("invalid conversation id")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrInvalidMessageID      = errors.New("invalid message id")
	ErrMessageNotFound       = errors.New("message not found")
	ErrListenRoomNotFound    = errors.New("listen room not found")
	ErrPlayerNotFound        = errors.New("player not found")
	ErrNotAParticipant       = errors.New("user is not a participant of the conversation")
	ErrNotMessageAuthor      = errors.New("user is not the author of the message")
)
