package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/llm"
	"github.com/qualitrack/qualitrack-engine/pkg/logging"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
	"github.com/qualitrack/qualitrack-engine/pkg/sqlguard"
)

// SQLGenerator turns a natural-language question into a single SQL
// statement using the shared chat client. Generation runs at temperature 0:
// the output must be deterministic and hallucinated syntax is the dominant
// failure mode.
type SQLGenerator struct {
	client llm.ChatClient
	schema *SchemaPolicyProvider
	logger *zap.Logger
}

// NewSQLGenerator creates a SQLGenerator.
func NewSQLGenerator(client llm.ChatClient, schema *SchemaPolicyProvider, logger *zap.Logger) *SQLGenerator {
	return &SQLGenerator{
		client: client,
		schema: schema,
		logger: logger.Named("sqlgen"),
	}
}

// GenerateSQL builds the role-scoped prompt and returns the sanitized
// statement. Any model failure propagates to the caller; the orchestrator
// owns converting it into a user-safe message.
func (g *SQLGenerator) GenerateSQL(ctx context.Context, user *models.User, question string) (string, error) {
	systemMessage := g.schema.SchemaContext(user.Role) + "\n" + g.schema.SecurityPolicy(user.Role, user.ID.String())
	prompt := fmt.Sprintf("Generate a SQL query to answer: %s", question)

	response, err := g.client.GenerateResponse(ctx, prompt, systemMessage, 0)
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	sqlQuery := sqlguard.StripMarkdownFence(response)
	if sqlQuery == "" {
		return "", fmt.Errorf("model returned an empty statement")
	}

	g.logger.Debug("Generated SQL",
		zap.String("role", string(user.Role)),
		zap.String("sql", logging.TruncateQuery(sqlQuery)))

	return sqlQuery, nil
}
