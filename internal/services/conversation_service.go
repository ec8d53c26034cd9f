package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"datachat/internal/conversations"
	"datachat/internal/infrastructure"
)

// ConversationService is a thin layer over the conversation store. It
// exists so the transport never touches storage directly.
type ConversationService struct {
	store  *conversations.Store
	logger *slog.Logger
}

// NewConversationService wraps a store.
func NewConversationService(store *conversations.Store, logger *slog.Logger) *ConversationService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ConversationService{
		store:  store,
		logger: logger.With(slog.String("component", "conversation_service")),
	}
}

// Save creates or replaces a conversation by id.
func (s *ConversationService) Save(ctx context.Context, conv conversations.Conversation) error {
	if len(conv.Messages) == 0 {
		conv.Messages = json.RawMessage("[]")
	}
	return s.store.Save(ctx, conv)
}

// UpdateMessages replaces the message history of an existing conversation.
func (s *ConversationService) UpdateMessages(ctx context.Context, id string, messages json.RawMessage) error {
	if len(messages) == 0 {
		messages = json.RawMessage("[]")
	}
	return s.store.UpdateMessages(ctx, id, messages)
}

// List returns the user's conversation summaries, newest first.
func (s *ConversationService) List(ctx context.Context, userID string) ([]conversations.Conversation, error) {
	return s.store.List(ctx, userID)
}

// Get returns one full conversation or conversations.ErrNotFound.
func (s *ConversationService) Get(ctx context.Context, userID, id string) (conversations.Conversation, error) {
	return s.store.Get(ctx, userID, id)
}

// Delete removes a conversation by id.
func (s *ConversationService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
