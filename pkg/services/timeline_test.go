package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/llm"
	"github.com/qualitrack/qualitrack-engine/pkg/ml"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

var fixedToday = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func insightClient(insight string) *llm.MockChatClient {
	client := llm.NewMockChatClient()
	client.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return insight, nil
	}
	return client
}

func newTestTimeline(t *testing.T, repo *mockCampaignRepo, model *ml.Model, client *llm.MockChatClient) *timelineService {
	t.Helper()
	svc := NewTimelineService(repo, model, client, zaptest.NewLogger(t)).(*timelineService)
	svc.now = func() time.Time { return fixedToday }
	return svc
}

func campaignFixture(total int, startDaysAgo int) *models.Campaign {
	start := fixedToday.AddDate(0, 0, -startDaysAgo)
	return &models.Campaign{
		ID:               uuid.New(),
		ProjectID:        uuid.New(),
		Title:            "Campagne de recette",
		StartDate:        &start,
		CreatedAt:        start,
		PlannedCaseCount: total,
	}
}

func TestAssess_LinearProjection(t *testing.T) {
	campaign := campaignFixture(100, 5)
	repo := &mockCampaignRepo{campaign: campaign, finished: 50}
	svc := newTestTimeline(t, repo, nil, insightClient("Bonne dynamique."))

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, 10.0, report.Velocity)
	require.NotNil(t, report.ProjectedEndDate)
	assert.Equal(t, "2026-03-15", *report.ProjectedEndDate)
	assert.Equal(t, models.TimelineOptimal, report.Status)
	assert.Equal(t, 0, report.DelayDays)
	assert.Equal(t, "Bonne dynamique.", report.Message)
	assert.Equal(t, 50, report.Progress.Finished)
	assert.Equal(t, 100, report.Progress.Total)
	assert.Equal(t, 50.0, report.Progress.Percentage)
}

func TestAssess_ModelWinsWhenLower(t *testing.T) {
	campaign := campaignFixture(100, 5)
	repo := &mockCampaignRepo{campaign: campaign, finished: 50}
	model := &ml.Model{Coefficients: []float64{0, 0, 0, 0}, Intercept: 3}
	svc := newTestTimeline(t, repo, model, insightClient("ok"))

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	require.NotNil(t, report.ProjectedEndDate)
	assert.Equal(t, "2026-03-13", *report.ProjectedEndDate)
}

func TestAssess_LinearWinsWhenModelOvershoots(t *testing.T) {
	campaign := campaignFixture(100, 5)
	repo := &mockCampaignRepo{campaign: campaign, finished: 50}
	model := &ml.Model{Coefficients: []float64{0, 0, 0, 0}, Intercept: 40}
	svc := newTestTimeline(t, repo, model, insightClient("ok"))

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	require.NotNil(t, report.ProjectedEndDate)
	assert.Equal(t, "2026-03-15", *report.ProjectedEndDate)
}

func TestAssess_NoTestsDefined(t *testing.T) {
	campaign := campaignFixture(0, 2)
	repo := &mockCampaignRepo{campaign: campaign, finished: 0}
	client := llm.NewMockChatClient()
	svc := newTestTimeline(t, repo, nil, client)

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TimelineInitial, report.Status)
	assert.Equal(t, 0.0, report.Velocity)
	assert.Nil(t, report.ProjectedEndDate)
	assert.Equal(t, "Aucun test défini.", report.Message)
	assert.Equal(t, 0, client.GenerateResponseCalls)
}

func TestAssess_WaitingOnFirstDay(t *testing.T) {
	campaign := campaignFixture(10, 0)
	repo := &mockCampaignRepo{campaign: campaign, finished: 0}
	svc := newTestTimeline(t, repo, nil, llm.NewMockChatClient())

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TimelineWaiting, report.Status)
	assert.Nil(t, report.ProjectedEndDate)
	assert.Equal(t, "En attente d'exécution.", report.Message)
}

func TestAssess_StalledCampaign(t *testing.T) {
	campaign := campaignFixture(10, 3)
	repo := &mockCampaignRepo{campaign: campaign, finished: 0}
	svc := newTestTimeline(t, repo, nil, llm.NewMockChatClient())

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TimelineWarning, report.Status)
	assert.Nil(t, report.ProjectedEndDate)
	assert.Equal(t, "La campagne a débuté mais aucun test n'a été validé.", report.Message)
}

func TestAssess_CompletedCampaign(t *testing.T) {
	campaign := campaignFixture(10, 4)
	repo := &mockCampaignRepo{campaign: campaign, finished: 10}
	client := llm.NewMockChatClient()
	svc := newTestTimeline(t, repo, nil, client)

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TimelineOptimal, report.Status)
	require.NotNil(t, report.ProjectedEndDate)
	assert.Equal(t, "2026-03-10", *report.ProjectedEndDate)
	assert.Equal(t, 0, report.DelayDays)
	assert.Equal(t, 100.0, report.Progress.Percentage)
	assert.Contains(t, report.Message, "Objectif atteint")
	assert.Equal(t, 0, client.GenerateResponseCalls, "the terminal case needs no insight call")
}

func TestAssess_RiskClassification(t *testing.T) {
	// Velocity 10 over 5 days, 50 of 100 finished: projection lands 5 days out.
	projected := truncateToDate(fixedToday).AddDate(0, 0, 5)

	tests := []struct {
		name          string
		deadlineShift int
		status        models.TimelineStatus
		delayDays     int
	}{
		{"over critical threshold", -6, models.TimelineCritical, 6},
		{"small slip", -3, models.TimelineWarning, 3},
		{"exactly on critical threshold", -5, models.TimelineWarning, 5},
		{"on time", 0, models.TimelineOptimal, 0},
		{"ahead of schedule", 2, models.TimelineOptimal, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := campaignFixture(100, 5)
			deadline := projected.AddDate(0, 0, tt.deadlineShift)
			campaign.EstimatedEndDate = &deadline

			repo := &mockCampaignRepo{campaign: campaign, finished: 50}
			svc := newTestTimeline(t, repo, nil, insightClient("ok"))

			report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.status, report.Status)
			assert.Equal(t, tt.delayDays, report.DelayDays)
		})
	}
}

func TestAssess_PercentageRounding(t *testing.T) {
	campaign := campaignFixture(3, 2)
	repo := &mockCampaignRepo{campaign: campaign, finished: 1}
	svc := newTestTimeline(t, repo, nil, insightClient("ok"))

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, 33.3, report.Progress.Percentage)
	assert.Equal(t, 0.5, report.Velocity)
}

func TestAssess_StartDateFallsBackToEarliestExecution(t *testing.T) {
	campaign := campaignFixture(100, 0)
	campaign.StartDate = nil
	campaign.CreatedAt = fixedToday.AddDate(0, 0, -30)
	earliest := fixedToday.AddDate(0, 0, -5)

	repo := &mockCampaignRepo{campaign: campaign, finished: 50, earliest: &earliest}
	svc := newTestTimeline(t, repo, nil, insightClient("ok"))

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, 10.0, report.Velocity)
}

func TestAssess_TesterMustBeAssigned(t *testing.T) {
	campaign := campaignFixture(10, 2)
	repo := &mockCampaignRepo{campaign: campaign, finished: 5, assigned: false}
	svc := newTestTimeline(t, repo, nil, insightClient("ok"))

	_, err := svc.Assess(context.Background(), testUser(models.RoleTester), campaign.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	repo.assigned = true
	_, err = svc.Assess(context.Background(), testUser(models.RoleTester), campaign.ID)
	assert.NoError(t, err)
}

func TestAssess_UnknownCampaign(t *testing.T) {
	repo := &mockCampaignRepo{}
	svc := newTestTimeline(t, repo, nil, insightClient("ok"))

	_, err := svc.Assess(context.Background(), testUser(models.RoleManager), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAssess_InsightFailureYieldsFallbackMessage(t *testing.T) {
	campaign := campaignFixture(100, 5)
	repo := &mockCampaignRepo{campaign: campaign, finished: 50}

	client := llm.NewMockChatClient()
	client.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error) {
		return "", errors.New("unavailable")
	}
	svc := newTestTimeline(t, repo, nil, client)

	report, err := svc.Assess(context.Background(), testUser(models.RoleManager), campaign.ID)
	require.NoError(t, err)

	assert.Equal(t, "Analyse IA temporairement indisponible.", report.Message)
	assert.NotNil(t, report.ProjectedEndDate, "a failed insight must not drop the projection")
}

func TestEstimateDaysNeeded_LinearOnlyWithoutModel(t *testing.T) {
	svc := &timelineService{}

	// 25 remaining at 4 per day rounds up to 7 days.
	assert.Equal(t, 7, svc.estimateDaysNeeded(50, 25, 5, 4))
}
