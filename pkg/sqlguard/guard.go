package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
)

// QueryGuard inspects a normalized statement before execution. The prompt
// asks the model for a single, SELECT-only statement scoped to the caller's
// role, but nothing downstream of the prompt verifies that — a guard is the
// place to add real enforcement without changing the pipeline contract.
type QueryGuard interface {
	// Check returns nil if the statement may be executed. allowedTables is
	// the set of tables the caller's role may see, lowercased.
	Check(sqlQuery string, allowedTables []string) error
}

// ============================================================================
// Permissive guard
// ============================================================================

// PermissiveGuard accepts every statement. It preserves the original
// pipeline contract where the prompt is the only security layer.
type PermissiveGuard struct{}

// NewPermissiveGuard creates the default, contract-preserving guard.
func NewPermissiveGuard() *PermissiveGuard {
	return &PermissiveGuard{}
}

// Check implements QueryGuard.
func (g *PermissiveGuard) Check(sqlQuery string, allowedTables []string) error {
	return nil
}

// ============================================================================
// Restrictive guard
// ============================================================================

var (
	mutatingVerbPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy)\b`)
	selectStarPattern   = regexp.MustCompile(`(?i)select\s+\*`)
	// Table references following FROM/JOIN, optionally double-quoted.
	tableRefPattern = regexp.MustCompile(`(?i)\b(?:from|join)\s+"?([a-zA-Z_][a-zA-Z0-9_]*)"?`)
)

// RestrictiveGuard rejects mutating verbs, SELECT *, references to tables
// outside the caller's visible schema, and statements carrying a SQL
// injection fingerprint.
type RestrictiveGuard struct{}

// NewRestrictiveGuard creates the strict guard.
func NewRestrictiveGuard() *RestrictiveGuard {
	return &RestrictiveGuard{}
}

// Check implements QueryGuard.
func (g *RestrictiveGuard) Check(sqlQuery string, allowedTables []string) error {
	if strings.TrimSpace(sqlQuery) == "" {
		return fmt.Errorf("empty statement")
	}

	if m := mutatingVerbPattern.FindString(sqlQuery); m != "" {
		return fmt.Errorf("mutating verb %q not allowed", strings.ToUpper(m))
	}

	if selectStarPattern.MatchString(sqlQuery) {
		return fmt.Errorf("SELECT * not allowed; columns must be listed explicitly")
	}

	if len(allowedTables) > 0 {
		allowed := make(map[string]struct{}, len(allowedTables))
		for _, t := range allowedTables {
			allowed[strings.ToLower(t)] = struct{}{}
		}
		for _, match := range tableRefPattern.FindAllStringSubmatch(sqlQuery, -1) {
			name := strings.ToLower(match[1])
			if _, ok := allowed[name]; !ok {
				return fmt.Errorf("table %q is not visible to this role", name)
			}
		}
	}

	if isSQLi, fingerprint := libinjection.IsSQLi(sqlQuery); isSQLi {
		// Generated SELECTs legitimately contain SQL syntax, so only the
		// fingerprints characteristic of stacked/commented attacks are
		// treated as hostile.
		fp := string(fingerprint)
		if strings.ContainsAny(fp, ";c") {
			return fmt.Errorf("injection fingerprint %q detected", fp)
		}
	}

	return nil
}

var (
	_ QueryGuard = (*PermissiveGuard)(nil)
	_ QueryGuard = (*RestrictiveGuard)(nil)
)
