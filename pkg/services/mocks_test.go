package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// mockConversationRepo is an in-memory ConversationRepository. Set the
// error fields to force failures on specific operations.
type mockConversationRepo struct {
	conversations map[uuid.UUID]*models.Conversation
	messages      map[uuid.UUID][]*models.Message

	createErr error
	saveErr   error
	touchErr  error

	touchCalls int
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{
		conversations: make(map[uuid.UUID]*models.Conversation),
		messages:      make(map[uuid.UUID][]*models.Message),
	}
}

func (m *mockConversationRepo) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	if m.createErr != nil {
		return m.createErr
	}
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	m.conversations[conversation.ID] = conversation
	return nil
}

func (m *mockConversationRepo) GetConversation(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	c, ok := m.conversations[id]
	if !ok || c.OwnerID != ownerID {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

func (m *mockConversationRepo) ListConversations(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error) {
	result := make([]*models.Conversation, 0)
	for _, c := range m.conversations {
		if c.OwnerID == ownerID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockConversationRepo) TouchConversation(ctx context.Context, id uuid.UUID) error {
	m.touchCalls++
	if m.touchErr != nil {
		return m.touchErr
	}
	if c, ok := m.conversations[id]; ok {
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (m *mockConversationRepo) SaveMessage(ctx context.Context, message *models.Message) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	m.messages[message.ConversationID] = append(m.messages[message.ConversationID], message)
	return nil
}

func (m *mockConversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	return m.messages[conversationID], nil
}

// mockCampaignRepo serves a single campaign with configurable aggregates.
type mockCampaignRepo struct {
	campaign *models.Campaign
	finished int
	earliest *time.Time
	assigned bool

	getErr error
}

func (m *mockCampaignRepo) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.campaign == nil || m.campaign.ID != id {
		return nil, apperrors.ErrNotFound
	}
	return m.campaign, nil
}

func (m *mockCampaignRepo) CountFinishedCases(ctx context.Context, campaignID uuid.UUID) (int, error) {
	return m.finished, nil
}

func (m *mockCampaignRepo) EarliestExecution(ctx context.Context, campaignID uuid.UUID) (*time.Time, error) {
	return m.earliest, nil
}

func (m *mockCampaignRepo) IsTesterAssigned(ctx context.Context, campaignID, testerID uuid.UUID) (bool, error) {
	return m.assigned, nil
}

// mockExecutor returns canned rows or an error.
type mockExecutor struct {
	rows []map[string]any
	err  error

	lastSQL string
	calls   int
}

func (m *mockExecutor) Execute(ctx context.Context, sqlQuery string) ([]map[string]any, error) {
	m.calls++
	m.lastSQL = sqlQuery
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}
