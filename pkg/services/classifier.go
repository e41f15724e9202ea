package services

import (
	"strings"

	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// classificationRule maps a result shape to a chart tag. Rules are checked
// in order and the first match wins; the order itself is part of the
// contract (a single-row, single-column date result is a metric, because
// the metric rule runs before the line rule).
type classificationRule struct {
	tag     models.ChartType
	matches func(rows []map[string]any) bool
}

var classificationRules = []classificationRule{
	{
		tag: models.ChartMetric,
		matches: func(rows []map[string]any) bool {
			return len(rows) == 1 && len(rows[0]) == 1
		},
	},
	{
		tag: models.ChartBar,
		matches: func(rows []map[string]any) bool {
			for col := range rows[0] {
				if col == "count" || col == "total" {
					return true
				}
			}
			return false
		},
	},
	{
		tag: models.ChartLine,
		matches: func(rows []map[string]any) bool {
			for col := range rows[0] {
				if strings.Contains(col, "date") || strings.Contains(col, "time") {
					return true
				}
			}
			return false
		},
	},
}

// Classify picks a presentation hint from the shape of a result set. Pure
// function: the same rows always yield the same tag. An empty result is a
// valid table.
func Classify(rows []map[string]any) models.ChartType {
	if len(rows) == 0 {
		return models.ChartTable
	}

	for _, rule := range classificationRules {
		if rule.matches(rows) {
			return rule.tag
		}
	}

	return models.ChartTable
}
