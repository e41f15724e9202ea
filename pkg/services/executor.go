package services

import (
	"context"
	"fmt"
	"time"

	"github.com/qualitrack/qualitrack-engine/pkg/database"
)

// QueryExecutor runs model-generated SQL and returns column-labeled rows.
// It trusts its input entirely; role scoping happens upstream in the prompt
// and, optionally, in the QueryGuard.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlQuery string) ([]map[string]any, error)
}

type pgQueryExecutor struct {
	db      *database.DB
	timeout time.Duration
}

// NewQueryExecutor creates an executor over the application pool. timeout
// bounds each statement; generated SQL can be arbitrarily expensive.
func NewQueryExecutor(db *database.DB, timeout time.Duration) QueryExecutor {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &pgQueryExecutor{db: db, timeout: timeout}
}

var _ QueryExecutor = (*pgQueryExecutor)(nil)

// Execute runs the statement exactly once and zips column names with row
// values into ordered mappings.
func (e *pgQueryExecutor) Execute(ctx context.Context, sqlQuery string) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.Query(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return resultRows, nil
}
