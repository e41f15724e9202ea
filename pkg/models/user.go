package models

import "github.com/google/uuid"

// Role determines which parts of the schema a user may query and which
// row-level filters are injected into generated SQL.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleTester  Role = "TESTER"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleAdmin, RoleManager, RoleTester}

// IsValidRole checks if the given role is valid.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// User is the identity the host application supplies with each request.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// IsAdmin returns true for the unrestricted role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
