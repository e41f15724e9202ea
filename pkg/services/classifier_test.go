package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		rows     []map[string]any
		expected models.ChartType
	}{
		{
			name:     "empty result is a table",
			rows:     []map[string]any{},
			expected: models.ChartTable,
		},
		{
			name:     "nil result is a table",
			rows:     nil,
			expected: models.ChartTable,
		},
		{
			name:     "single cell is a metric",
			rows:     []map[string]any{{"x": 5}},
			expected: models.ChartMetric,
		},
		{
			name: "count column is a bar chart",
			rows: []map[string]any{
				{"count": 5, "status": "PASSED"},
				{"count": 7, "status": "FAILED"},
			},
			expected: models.ChartBar,
		},
		{
			name: "total column is a bar chart",
			rows: []map[string]any{
				{"total": 3, "severity": "CRITIQUE"},
				{"total": 9, "severity": "FAIBLE"},
			},
			expected: models.ChartBar,
		},
		{
			name: "date column is a line chart",
			rows: []map[string]any{
				{"execution_date": "2026-01-01", "passed": 4},
				{"execution_date": "2026-01-02", "passed": 6},
			},
			expected: models.ChartLine,
		},
		{
			name: "time column is a line chart",
			rows: []map[string]any{
				{"created_time": "10:00", "v": 1},
				{"created_time": "11:00", "v": 2},
			},
			expected: models.ChartLine,
		},
		{
			name:     "single date cell is a metric, not a line",
			rows:     []map[string]any{{"execution_date": "2026-01-01"}},
			expected: models.ChartMetric,
		},
		{
			name: "count wins over date when both present",
			rows: []map[string]any{
				{"count": 2, "execution_date": "2026-01-01"},
				{"count": 5, "execution_date": "2026-01-02"},
			},
			expected: models.ChartBar,
		},
		{
			name: "plain columns fall back to table",
			rows: []map[string]any{
				{"title": "Campagne A", "status": "ACTIVE"},
				{"title": "Campagne B", "status": "DONE"},
			},
			expected: models.ChartTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.rows))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	rows := []map[string]any{
		{"count": 5, "status": "PASSED"},
		{"count": 7, "status": "FAILED"},
	}

	first := Classify(rows)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(rows))
	}
}
