// Package sqlguard normalizes and validates model-generated SQL before it
// reaches the database. Role scoping lives in the prompt, not here; this
// package is the defense-in-depth layer behind that trust boundary.
package sqlguard

import "strings"

// StripMarkdownFence removes a wrapping markdown code fence and a leading
// "sql" language tag from a model response. Models occasionally return
// fenced output despite being instructed not to.
func StripMarkdownFence(response string) string {
	cleaned := strings.TrimSpace(response)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Leading language tag, e.g. "sql\nSELECT ..."
	lower := strings.ToLower(cleaned)
	if strings.HasPrefix(lower, "sql") {
		rest := cleaned[3:]
		if rest == "" || rest[0] == '\n' || rest[0] == '\r' || rest[0] == ' ' {
			cleaned = strings.TrimSpace(rest)
		}
	}

	return cleaned
}
