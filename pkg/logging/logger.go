// Package logging provides the shared zap logger and helpers for keeping
// sensitive material (credentials, generated SQL) out of log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process-wide logger. Local environments get the
// human-readable development encoder; everything else logs JSON.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
