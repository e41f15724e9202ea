package models

import (
	"time"

	"github.com/google/uuid"
)

// TestCaseStatus is the execution state of a single test case.
type TestCaseStatus string

const (
	TestCasePending TestCaseStatus = "PENDING"
	TestCasePassed  TestCaseStatus = "PASSED"
	TestCaseFailed  TestCaseStatus = "FAILED"
)

// AnomalySeverity values match the product's French locale.
type AnomalySeverity string

const (
	SeverityFaible   AnomalySeverity = "FAIBLE"
	SeverityMoyenne  AnomalySeverity = "MOYENNE"
	SeverityCritique AnomalySeverity = "CRITIQUE"
)

// Campaign is the aggregate the timeline predictor consumes. The configured
// case count comes from the imported referential, not from the rows actually
// present, so the two can disagree while an import is in flight.
type Campaign struct {
	ID               uuid.UUID  `json:"id"`
	ProjectID        uuid.UUID  `json:"project_id"`
	Title            string     `json:"title"`
	StartDate        *time.Time `json:"start_date"`
	EstimatedEndDate *time.Time `json:"estimated_end_date"`
	CreatedAt        time.Time  `json:"created_at"`
	PlannedCaseCount int        `json:"planned_case_count"`
}

// TestCase carries the fields the predictor and the schema description need.
type TestCase struct {
	ID            uuid.UUID      `json:"id"`
	CampaignID    uuid.UUID      `json:"campaign_id"`
	CaseRef       string         `json:"case_ref"`
	Status        TestCaseStatus `json:"status"`
	TesterID      *uuid.UUID     `json:"tester_id"`
	ExecutionDate *time.Time     `json:"execution_date"`
}
