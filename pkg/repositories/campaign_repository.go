package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/database"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// CampaignRepository exposes the campaign aggregates the timeline predictor
// consumes. The predictor never persists anything; every read is fresh.
type CampaignRepository interface {
	// GetCampaign returns apperrors.ErrNotFound for unknown ids.
	GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error)

	// CountFinishedCases counts test cases whose status is not PENDING.
	CountFinishedCases(ctx context.Context, campaignID uuid.UUID) (int, error)

	// EarliestExecution returns the earliest execution date among finished
	// cases, or nil when nothing has been executed.
	EarliestExecution(ctx context.Context, campaignID uuid.UUID) (*time.Time, error)

	// IsTesterAssigned reports whether the user is assigned to the campaign.
	IsTesterAssigned(ctx context.Context, campaignID, testerID uuid.UUID) (bool, error)
}

type campaignRepository struct {
	db *database.DB
}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *database.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

var _ CampaignRepository = (*campaignRepository)(nil)

func (r *campaignRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	query := `
		SELECT id, project_id, title, start_date, estimated_end_date, created_at, planned_case_count
		FROM campaigns
		WHERE id = $1`

	var c models.Campaign
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.ProjectID, &c.Title, &c.StartDate, &c.EstimatedEndDate,
		&c.CreatedAt, &c.PlannedCaseCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &c, nil
}

func (r *campaignRepository) CountFinishedCases(ctx context.Context, campaignID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM test_cases
		WHERE campaign_id = $1 AND status <> 'PENDING'`

	var count int
	if err := r.db.QueryRow(ctx, query, campaignID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count finished cases: %w", err)
	}

	return count, nil
}

func (r *campaignRepository) EarliestExecution(ctx context.Context, campaignID uuid.UUID) (*time.Time, error) {
	query := `
		SELECT MIN(execution_date)
		FROM test_cases
		WHERE campaign_id = $1 AND status <> 'PENDING' AND execution_date IS NOT NULL`

	var earliest *time.Time
	if err := r.db.QueryRow(ctx, query, campaignID).Scan(&earliest); err != nil {
		return nil, fmt.Errorf("failed to get earliest execution: %w", err)
	}

	return earliest, nil
}

func (r *campaignRepository) IsTesterAssigned(ctx context.Context, campaignID, testerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM campaign_testers
			WHERE campaign_id = $1 AND tester_id = $2
		)`

	var assigned bool
	if err := r.db.QueryRow(ctx, query, campaignID, testerID).Scan(&assigned); err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}

	return assigned, nil
}
