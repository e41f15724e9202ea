package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/database"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// ConversationRepository provides data access for conversations and their
// messages.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	// GetConversation returns apperrors.ErrNotFound when the conversation
	// does not exist or belongs to another user; callers cannot tell the
	// two apart.
	GetConversation(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error)
	TouchConversation(ctx context.Context, id uuid.UUID) error
	SaveMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error)
}

type conversationRepository struct {
	db *database.DB
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(db *database.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

var _ ConversationRepository = (*conversationRepository)(nil)

func (r *conversationRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	query := `
		INSERT INTO conversations (id, owner_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		conversation.ID, conversation.OwnerID, conversation.Title,
		conversation.CreatedAt, conversation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

func (r *conversationRepository) GetConversation(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, owner_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND owner_id = $2`

	var c models.Conversation
	err := r.db.QueryRow(ctx, query, id, ownerID).Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &c, nil
}

func (r *conversationRepository) ListConversations(ctx context.Context, ownerID uuid.UUID) ([]*models.Conversation, error) {
	query := `
		SELECT id, owner_id, title, created_at, updated_at
		FROM conversations
		WHERE owner_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]*models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}

func (r *conversationRepository) TouchConversation(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE conversations SET updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return nil
}

func (r *conversationRepository) SaveMessage(ctx context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()

	dataJSON, err := json.Marshal(message.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal message data: %w", err)
	}
	if message.Data == nil {
		dataJSON = []byte("[]")
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender, text, type, sql_text, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		message.ID, message.ConversationID, message.Sender, message.Text,
		message.Type, message.SQL, dataJSON, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	query := `
		SELECT id, conversation_id, sender, text, type, sql_text, data, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		m, err := scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func scanMessageRows(rows pgx.Rows) (*models.Message, error) {
	var m models.Message
	var sqlText *string
	var dataJSON []byte

	err := rows.Scan(
		&m.ID, &m.ConversationID, &m.Sender, &m.Text, &m.Type,
		&sqlText, &dataJSON, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	if sqlText != nil {
		m.SQL = *sqlText
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &m.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message data: %w", err)
		}
	}

	return &m, nil
}
