package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/qualitrack/qualitrack-engine/pkg/models"
	"github.com/qualitrack/qualitrack-engine/pkg/services"
)

// mockAssistantService implements services.AssistantService with function
// fields for per-test behavior.
type mockAssistantService struct {
	AskFunc               func(ctx context.Context, user *models.User, question string, conversationID *uuid.UUID) (*services.AskResult, error)
	ReformulateFunc       func(ctx context.Context, text string, isSubject bool) (string, error)
	ListConversationsFunc func(ctx context.Context, user *models.User) ([]*models.Conversation, error)
	ListMessagesFunc      func(ctx context.Context, user *models.User, conversationID uuid.UUID) ([]*models.Message, error)
}

func (m *mockAssistantService) Ask(ctx context.Context, user *models.User, question string, conversationID *uuid.UUID) (*services.AskResult, error) {
	return m.AskFunc(ctx, user, question, conversationID)
}

func (m *mockAssistantService) Reformulate(ctx context.Context, text string, isSubject bool) (string, error) {
	return m.ReformulateFunc(ctx, text, isSubject)
}

func (m *mockAssistantService) ListConversations(ctx context.Context, user *models.User) ([]*models.Conversation, error) {
	return m.ListConversationsFunc(ctx, user)
}

func (m *mockAssistantService) ListMessages(ctx context.Context, user *models.User, conversationID uuid.UUID) ([]*models.Message, error) {
	return m.ListMessagesFunc(ctx, user, conversationID)
}

var _ services.AssistantService = (*mockAssistantService)(nil)

// mockTimelineService implements services.TimelineService.
type mockTimelineService struct {
	AssessFunc func(ctx context.Context, user *models.User, campaignID uuid.UUID) (*models.TimelineReport, error)
}

func (m *mockTimelineService) Assess(ctx context.Context, user *models.User, campaignID uuid.UUID) (*models.TimelineReport, error) {
	return m.AssessFunc(ctx, user, campaignID)
}

var _ services.TimelineService = (*mockTimelineService)(nil)
