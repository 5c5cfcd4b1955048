package entity

import "time"

// Role is the business role a user declares at signup. It drives dashboard
// authorization.
type Role string

const (
	RoleUnknown    Role = ""
	RoleQA         Role = "qa"
	RoleQC         Role = "qc"
	RoleProduction Role = "production"
	RoleRegulatory Role = "regulatory"
	RoleSales      Role = "sales"
	RoleManagement Role = "management"
	RoleAdmin      Role = "admin"
)

// RoleFromString parses a role value, returning RoleUnknown for anything
// unrecognized.
func RoleFromString(s string) Role {
	switch Role(s) {
	case RoleQA, RoleQC, RoleProduction, RoleRegulatory, RoleSales, RoleManagement, RoleAdmin:
		return Role(s)
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	return string(r)
}

// User is the identity-provider view of an account.
type User struct {
	ID            string
	Email         string
	Name          string
	Role          Role
	Department    string
	EmailVerified bool
	DataSource    string
	CreatedAt     time.Time
}

// HasSelectedDataSource reports whether onboarding data-source selection is done.
func (u User) HasSelectedDataSource() bool {
	return u.DataSource != ""
}

// NewUser is the payload for creating an account at the identity provider.
type NewUser struct {
	Email      string
	Password   string
	Name       string
	Role       Role
	Department string
}
