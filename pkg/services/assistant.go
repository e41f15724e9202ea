package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/llm"
	"github.com/qualitrack/qualitrack-engine/pkg/logging"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
	"github.com/qualitrack/qualitrack-engine/pkg/repositories"
	"github.com/qualitrack/qualitrack-engine/pkg/sqlguard"
)

// User-facing strings on the conversational path. Failures never leak the
// raw cause; it is logged server-side only.
const (
	answerPrefix   = "Here is the data I found:"
	genericApology = "Désolé, une erreur est survenue."
)

// AskResult is the payload returned for a successful (or failed-but-handled)
// ask turn.
type AskResult struct {
	Answer            string           `json:"answer"`
	SQL               string           `json:"sql"`
	Data              []map[string]any `json:"data"`
	Type              models.ChartType `json:"type"`
	ConversationID    uuid.UUID        `json:"conversation_id"`
	ConversationTitle string           `json:"conversation_title"`
}

// AssistantService orchestrates the conversational NL->SQL pipeline and owns
// the conversation store.
type AssistantService interface {
	// Ask runs one conversational turn. The returned error is one of the
	// apperrors sentinels for client faults; pipeline failures are recorded
	// as an error-typed agent message and surface as a generic error.
	Ask(ctx context.Context, user *models.User, question string, conversationID *uuid.UUID) (*AskResult, error)

	// Reformulate rewrites text in a professional tone. Fail-open: on any
	// model failure the original text comes back unchanged.
	Reformulate(ctx context.Context, text string, isSubject bool) (string, error)

	ListConversations(ctx context.Context, user *models.User) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, user *models.User, conversationID uuid.UUID) ([]*models.Message, error)
}

type assistantService struct {
	conversations repositories.ConversationRepository
	generator     *SQLGenerator
	executor      QueryExecutor
	guard         sqlguard.QueryGuard
	schema        *SchemaPolicyProvider
	client        llm.ChatClient
	logger        *zap.Logger
}

// NewAssistantService creates the orchestrator. guard may be the permissive
// default; it is consulted between generation and execution either way.
func NewAssistantService(
	conversations repositories.ConversationRepository,
	generator *SQLGenerator,
	executor QueryExecutor,
	guard sqlguard.QueryGuard,
	schema *SchemaPolicyProvider,
	client llm.ChatClient,
	logger *zap.Logger,
) AssistantService {
	return &assistantService{
		conversations: conversations,
		generator:     generator,
		executor:      executor,
		guard:         guard,
		schema:        schema,
		client:        client,
		logger:        logger.Named("assistant"),
	}
}

var _ AssistantService = (*assistantService)(nil)

func (s *assistantService) Ask(ctx context.Context, user *models.User, question string, conversationID *uuid.UUID) (*AskResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	conversation, err := s.resolveConversation(ctx, user, question, conversationID)
	if err != nil {
		return nil, err
	}

	userMessage := &models.Message{
		ConversationID: conversation.ID,
		Sender:         models.SenderUser,
		Text:           question,
		Type:           models.ChartText,
	}
	if err := s.conversations.SaveMessage(ctx, userMessage); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	sqlQuery, rows, chartType, pipelineErr := s.runPipeline(ctx, user, question)
	if pipelineErr != nil {
		// Raw cause stays server-side; the stored message and the caller
		// both get the localized apology only.
		s.logger.Error("Pipeline failed",
			zap.String("user_id", user.ID.String()),
			zap.String("error", logging.SanitizeError(pipelineErr)))

		errorMessage := &models.Message{
			ConversationID: conversation.ID,
			Sender:         models.SenderAgent,
			Text:           genericApology,
			Type:           models.ChartError,
		}
		if saveErr := s.conversations.SaveMessage(ctx, errorMessage); saveErr != nil {
			s.logger.Error("Failed to save error message", zap.Error(saveErr))
		}

		return nil, fmt.Errorf("pipeline: %w", pipelineErr)
	}

	agentMessage := &models.Message{
		ConversationID: conversation.ID,
		Sender:         models.SenderAgent,
		Text:           answerPrefix,
		Type:           chartType,
		SQL:            sqlQuery,
		Data:           rows,
	}
	if err := s.conversations.SaveMessage(ctx, agentMessage); err != nil {
		return nil, fmt.Errorf("save agent message: %w", err)
	}

	if err := s.conversations.TouchConversation(ctx, conversation.ID); err != nil {
		s.logger.Warn("Failed to touch conversation", zap.Error(err))
	}

	return &AskResult{
		Answer:            answerPrefix,
		SQL:               sqlQuery,
		Data:              rows,
		Type:              chartType,
		ConversationID:    conversation.ID,
		ConversationTitle: conversation.Title,
	}, nil
}

// runPipeline executes generator -> guard -> executor -> classifier.
func (s *assistantService) runPipeline(ctx context.Context, user *models.User, question string) (string, []map[string]any, models.ChartType, error) {
	sqlQuery, err := s.generator.GenerateSQL(ctx, user, question)
	if err != nil {
		return "", nil, models.ChartError, err
	}

	result := sqlguard.ValidateAndNormalize(sqlQuery)
	if result.Error != nil {
		return "", nil, models.ChartError, result.Error
	}
	sqlQuery = result.NormalizedSQL

	if err := s.guard.Check(sqlQuery, s.schema.VisibleTables(user.Role)); err != nil {
		return "", nil, models.ChartError, fmt.Errorf("query rejected: %w", err)
	}

	rows, err := s.executor.Execute(ctx, sqlQuery)
	if err != nil {
		return "", nil, models.ChartError, err
	}

	return sqlQuery, rows, Classify(rows), nil
}

func (s *assistantService) resolveConversation(ctx context.Context, user *models.User, question string, conversationID *uuid.UUID) (*models.Conversation, error) {
	if conversationID != nil {
		conversation, err := s.conversations.GetConversation(ctx, *conversationID, user.ID)
		if err != nil {
			return nil, err
		}
		return conversation, nil
	}

	conversation := &models.Conversation{
		OwnerID: user.ID,
		Title:   models.TitleFromQuestion(question),
	}
	if err := s.conversations.CreateConversation(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

const reformulateBodyPrompt = `Reformule le texte suivant de manière professionnelle, courtoise et concise, en français. Réponds uniquement avec le texte reformulé, sans commentaire.

Texte: %s`

const reformulateSubjectPrompt = `Reformule l'objet d'email suivant de manière professionnelle et concise, en français. Réponds uniquement avec l'objet reformulé, sur une seule ligne, sans commentaire.

Objet: %s`

func (s *assistantService) Reformulate(ctx context.Context, text string, isSubject bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.ErrEmptyMessage
	}

	prompt := fmt.Sprintf(reformulateBodyPrompt, text)
	if isSubject {
		prompt = fmt.Sprintf(reformulateSubjectPrompt, text)
	}

	// Fail-open: this is a UX nicety, not a security boundary.
	reformulated, err := s.client.GenerateResponse(ctx, prompt, "", 0.4)
	if err != nil || strings.TrimSpace(reformulated) == "" {
		if err != nil {
			s.logger.Warn("Reformulation failed, returning original text",
				zap.String("error", logging.SanitizeError(err)))
		}
		return text, nil
	}

	return reformulated, nil
}

func (s *assistantService) ListConversations(ctx context.Context, user *models.User) ([]*models.Conversation, error) {
	return s.conversations.ListConversations(ctx, user.ID)
}

func (s *assistantService) ListMessages(ctx context.Context, user *models.User, conversationID uuid.UUID) ([]*models.Message, error) {
	// Ownership check doubles as existence check.
	if _, err := s.conversations.GetConversation(ctx, conversationID, user.ID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conversationID)
}
