package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdownFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain statement untouched",
			input:    "SELECT id FROM campaigns",
			expected: "SELECT id FROM campaigns",
		},
		{
			name:     "fenced with sql tag",
			input:    "```sql\nSELECT id FROM campaigns\n```",
			expected: "SELECT id FROM campaigns",
		},
		{
			name:     "fenced without tag",
			input:    "```\nSELECT id FROM campaigns\n```",
			expected: "SELECT id FROM campaigns",
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```sql\nSELECT 1\n```\n  ",
			expected: "SELECT 1",
		},
		{
			name:     "sql as column prefix is not a tag",
			input:    "sql_text FROM messages",
			expected: "sql_text FROM messages",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripMarkdownFence(tt.input))
		})
	}
}
