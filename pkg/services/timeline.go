package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/llm"
	"github.com/qualitrack/qualitrack-engine/pkg/logging"
	"github.com/qualitrack/qualitrack-engine/pkg/ml"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
	"github.com/qualitrack/qualitrack-engine/pkg/repositories"
)

// Canned insight strings. Everything user-facing stays French.
const (
	insightNoTests       = "Aucun test défini."
	insightWaiting       = "En attente d'exécution."
	insightStalled       = "La campagne a débuté mais aucun test n'a été validé."
	insightCompleted     = "Objectif atteint ! Tous les cas de tests ont été validés avec succès. La campagne est terminée."
	insightUnavailable   = "Analyse IA temporairement indisponible."
	criticalDelayDays    = 5
	insightTemperature   = 0.5
	isoDateLayout        = "2006-01-02"
	insightPromptPattern = `Expert QA Platform Analyser.
Campaign: %s
Progress: %d/%d
Velocity: %.2f tests/day
Projected End: %s
Deadline: %s

Provide a very short professional advice (max 2 sentences) in French.`
)

// TimelineService assesses campaign schedule risk. Reports are computed
// fresh per request; nothing is cached or persisted.
type TimelineService interface {
	// Assess returns apperrors.ErrNotFound for unknown campaigns and
	// apperrors.ErrForbidden when a tester asks about a campaign they are
	// not assigned to.
	Assess(ctx context.Context, user *models.User, campaignID uuid.UUID) (*models.TimelineReport, error)
}

type timelineService struct {
	campaigns repositories.CampaignRepository
	model     *ml.Model // nil when no artifact was loaded; never retried
	client    llm.ChatClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewTimelineService creates the predictor. model may be nil; the service
// then relies on the linear velocity estimate alone.
func NewTimelineService(
	campaigns repositories.CampaignRepository,
	model *ml.Model,
	client llm.ChatClient,
	logger *zap.Logger,
) TimelineService {
	return &timelineService{
		campaigns: campaigns,
		model:     model,
		client:    client,
		logger:    logger.Named("timeline"),
		now:       time.Now,
	}
}

var _ TimelineService = (*timelineService)(nil)

func (s *timelineService) Assess(ctx context.Context, user *models.User, campaignID uuid.UUID) (*models.TimelineReport, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	// Authorization before assessment: testers only see assigned campaigns.
	if user.Role == models.RoleTester {
		assigned, err := s.campaigns.IsTesterAssigned(ctx, campaignID, user.ID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, apperrors.ErrForbidden
		}
	}

	total := campaign.PlannedCaseCount
	finished, err := s.campaigns.CountFinishedCases(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	today := truncateToDate(s.now())
	startDate, err := s.resolveStartDate(ctx, campaign)
	if err != nil {
		return nil, err
	}

	daysElapsed := int(today.Sub(startDate).Hours() / 24)
	if daysElapsed <= 0 {
		daysElapsed = 1
	}

	velocity := float64(finished) / float64(daysElapsed)

	// Terminal case: everything validated.
	if finished >= total && total > 0 {
		projected := today.Format(isoDateLayout)
		return s.report(models.TimelineOptimal, velocity, &projected, 0, insightCompleted, finished, total), nil
	}

	// Zero-velocity cases return early with no projection.
	if velocity == 0 {
		if total == 0 {
			return s.report(models.TimelineInitial, 0, nil, 0, insightNoTests, finished, total), nil
		}
		if daysElapsed <= 1 {
			return s.report(models.TimelineWaiting, 0, nil, 0, insightWaiting, finished, total), nil
		}
		return s.report(models.TimelineWarning, 0, nil, 0, insightStalled, finished, total), nil
	}

	daysNeeded := s.estimateDaysNeeded(total, finished, daysElapsed, velocity)
	projectedEnd := today.AddDate(0, 0, daysNeeded)

	status := models.TimelineOptimal
	delayDays := 0
	if campaign.EstimatedEndDate != nil {
		target := truncateToDate(*campaign.EstimatedEndDate)
		delayDays = int(projectedEnd.Sub(target).Hours() / 24)
		switch {
		case delayDays > criticalDelayDays:
			status = models.TimelineCritical
		case delayDays > 0:
			status = models.TimelineWarning
		}
	}

	insight := s.generateInsight(ctx, campaign, finished, total, velocity, projectedEnd)

	projected := projectedEnd.Format(isoDateLayout)
	return s.report(status, velocity, &projected, delayDays, insight, finished, total), nil
}

// resolveStartDate picks the explicit start date, else the earliest
// execution among finished cases, else the campaign creation date.
func (s *timelineService) resolveStartDate(ctx context.Context, campaign *models.Campaign) (time.Time, error) {
	if campaign.StartDate != nil {
		return truncateToDate(*campaign.StartDate), nil
	}

	earliest, err := s.campaigns.EarliestExecution(ctx, campaign.ID)
	if err != nil {
		return time.Time{}, err
	}
	if earliest != nil {
		return truncateToDate(*earliest), nil
	}

	return truncateToDate(campaign.CreatedAt), nil
}

// estimateDaysNeeded blends the regression model with the linear estimate.
// The model over-predicts on small samples near completion, so the lesser of
// the two estimates wins whenever the artifact is loaded.
func (s *timelineService) estimateDaysNeeded(total, finished, daysElapsed int, velocity float64) int {
	linearDays := int(math.Ceil(float64(total-finished) / velocity))

	if s.model == nil {
		return linearDays
	}

	modelDays := int(math.Ceil(s.model.Predict(ml.Features{
		TotalCases:    float64(total),
		FinishedCases: float64(finished),
		DaysElapsed:   float64(daysElapsed),
		Velocity:      velocity,
	})))

	if modelDays < linearDays {
		return modelDays
	}
	return linearDays
}

func (s *timelineService) generateInsight(ctx context.Context, campaign *models.Campaign, finished, total int, velocity float64, projectedEnd time.Time) string {
	deadline := "non définie"
	if campaign.EstimatedEndDate != nil {
		deadline = campaign.EstimatedEndDate.Format(isoDateLayout)
	}

	prompt := fmt.Sprintf(insightPromptPattern,
		campaign.Title, finished, total, velocity,
		projectedEnd.Format(isoDateLayout), deadline)

	insight, err := s.client.GenerateResponse(ctx, prompt, "", insightTemperature)
	if err != nil || insight == "" {
		if err != nil {
			s.logger.Warn("Insight generation failed",
				zap.String("campaign_id", campaign.ID.String()),
				zap.String("error", logging.SanitizeError(err)))
		}
		return insightUnavailable
	}

	return insight
}

func (s *timelineService) report(status models.TimelineStatus, velocity float64, projectedEnd *string, delayDays int, message string, finished, total int) *models.TimelineReport {
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(finished)/float64(total)*1000) / 10
	}

	if delayDays < 0 {
		delayDays = 0
	}

	return &models.TimelineReport{
		Status:           status,
		Velocity:         math.Round(velocity*100) / 100,
		ProjectedEndDate: projectedEnd,
		DelayDays:        delayDays,
		Message:          message,
		Progress: models.TimelineProgress{
			Finished:   finished,
			Total:      total,
			Percentage: percentage,
		},
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
