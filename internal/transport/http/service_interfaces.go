package http

import (
	"context"
	"encoding/json"

	"datachat/internal/analysis"
	"datachat/internal/conversations"
	"datachat/internal/services"
)

// AnalysisService is the slice of the analysis service the transport
// needs. Satisfied by *services.AnalysisService.
type AnalysisService interface {
	Analyze(ctx context.Context, businessID, query string, sink analysis.Sink) error
}

// ConversationService is the conversation operations the transport
// needs. Satisfied by *services.ConversationService.
type ConversationService interface {
	Save(ctx context.Context, conv conversations.Conversation) error
	UpdateMessages(ctx context.Context, id string, messages json.RawMessage) error
	List(ctx context.Context, userID string) ([]conversations.Conversation, error)
	Get(ctx context.Context, userID, id string) (conversations.Conversation, error)
	Delete(ctx context.Context, id string) error
}

// HealthService is the health operations the transport needs. Satisfied
// by *services.HealthService.
type HealthService interface {
	Check(ctx context.Context) services.HealthStatus
	Version() services.VersionInfo
}
