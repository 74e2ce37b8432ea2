package model

import "github.com/google/uuid"

// Role is the closed set of portal roles. Authorization decisions are made
// against this union rather than raw claim strings.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFinance Role = "finance"
	RoleUser    Role = "user"
)

// ParseRole maps a claim string onto the role union.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleFinance, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Name   string
	Role   Role
}
