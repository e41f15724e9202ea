package models

// TimelineStatus classifies a campaign's schedule risk.
type TimelineStatus string

const (
	// TimelineInitial: no tests defined yet.
	TimelineInitial TimelineStatus = "INITIAL"
	// TimelineWaiting: campaign just started, nothing executed yet.
	TimelineWaiting TimelineStatus = "WAITING"
	// TimelineWarning: behind schedule, or started with nothing validated.
	TimelineWarning TimelineStatus = "WARNING"
	// TimelineCritical: projected to miss the target by more than five days.
	TimelineCritical TimelineStatus = "CRITICAL"
	// TimelineOptimal: on track or finished.
	TimelineOptimal TimelineStatus = "OPTIMAL"
)

// TimelineProgress reports completion counts for a campaign.
type TimelineProgress struct {
	Finished   int     `json:"finished"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// TimelineReport is the structured risk assessment for one campaign.
// It is computed fresh per request; nothing is persisted.
type TimelineReport struct {
	Status           TimelineStatus   `json:"status"`
	Velocity         float64          `json:"velocity"`
	ProjectedEndDate *string          `json:"projected_end_date"` // ISO date, null when no projection exists
	DelayDays        int              `json:"delay_days"`
	Message          string           `json:"message"`
	Progress         TimelineProgress `json:"progress"`
}
