package services

import (
	"fmt"
	"strings"

	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// SchemaPolicyProvider builds the role-scoped schema description and the
// security policy text injected into the SQL-generation prompt. It never
// executes SQL itself; its output is advisory text consumed by the model,
// which is why a QueryGuard exists downstream.
type SchemaPolicyProvider struct{}

// NewSchemaPolicyProvider creates a SchemaPolicyProvider.
func NewSchemaPolicyProvider() *SchemaPolicyProvider {
	return &SchemaPolicyProvider{}
}

const schemaHeader = `You are an expert PostgreSQL Data Analyst. Use the following database schema to answer user questions by generating a valid SQL query.

Tables and Columns:
`

const schemaRules = `
Rules:
- Return ONLY the SQL query. Do not include markdown formatting like ` + "```sql" + ` or explanations.
- Return exactly one statement. Never return multiple statements.
- Never use SELECT *; list the needed columns explicitly.
- Use standard PostgreSQL syntax.
- All identifiers are lowercase snake_case; do not double-quote them.
- For anomalies: severity values are French ('FAIBLE', 'MOYENNE', 'CRITIQUE').
- For campaigns: the column is 'title', not 'name'.`

// usersTable is only described to ADMIN callers. Non-admin schema text must
// never mention it by name.
const usersTable = `1. users (id, username, email, role, is_active, created_at)
`

const sharedTables = `2. projects (id, name, description, status, start_date, end_date)
3. campaigns (id, project_id, title, description, status, start_date, estimated_end_date, planned_case_count, created_at)
4. campaign_testers (campaign_id, tester_id, assigned_at)
5. test_cases (id, campaign_id, case_ref, payload, status, tester_id, execution_date)
   - status values: 'PENDING', 'PASSED', 'FAILED'
6. anomalies (id, test_case_id, title, description, severity, created_by, created_at)
   - severity values: 'FAIBLE', 'MOYENNE', 'CRITIQUE'
`

// SchemaContext returns the schema description visible to the given role.
func (p *SchemaPolicyProvider) SchemaContext(role models.Role) string {
	var b strings.Builder
	b.WriteString(schemaHeader)
	if role == models.RoleAdmin {
		b.WriteString(usersTable)
	}
	b.WriteString(sharedTables)
	b.WriteString(schemaRules)
	return b.String()
}

// SecurityPolicy returns the role-dependent directives appended to the
// system prompt. For testers the caller's id is embedded in mandatory filter
// predicates.
func (p *SchemaPolicyProvider) SecurityPolicy(role models.Role, userID string) string {
	switch role {
	case models.RoleAdmin:
		return `
Security policy: none. This user is an administrator with unrestricted access to all tables.`

	case models.RoleManager:
		return `
Security policy (MANAGER):
- You must NOT generate queries that identify individual users or accounts.
- If the question asks about users, accounts, logins or testers as people, do not generate SQL; answer exactly: "Cette information n'est pas accessible pour votre rôle."
- Aggregated, anonymous statistics over campaigns, test cases, projects and anomalies are allowed.`

	case models.RoleTester:
		return fmt.Sprintf(`
Security policy (TESTER, user id = '%s'):
- Campaigns: only campaigns this user is assigned to. Every query touching campaigns MUST include: JOIN campaign_testers ct ON ct.campaign_id = campaigns.id AND ct.tester_id = '%s'.
- Test cases: only rows where test_cases.tester_id = '%s' OR the test case belongs to one of the user's assigned campaigns (campaign_testers.tester_id = '%s').
- Anomalies: only rows where anomalies.created_by = '%s' OR the anomaly is linked to an accessible test case.
- Never generate a query returning data outside these filters.`,
			userID, userID, userID, userID, userID)

	default:
		// Unknown roles get the most restrictive treatment available.
		return `
Security policy: refuse every question; answer exactly: "Cette information n'est pas accessible pour votre rôle."`
	}
}

// VisibleTables lists the tables the role may reference, lowercased. The
// QueryGuard uses this to reject out-of-schema references.
func (p *SchemaPolicyProvider) VisibleTables(role models.Role) []string {
	tables := []string{"projects", "campaigns", "campaign_testers", "test_cases", "anomalies"}
	if role == models.RoleAdmin {
		tables = append([]string{"users"}, tables...)
	}
	return tables
}
