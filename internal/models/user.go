package models

import "time"

// UserRole represents a user's role in the scrum process.
type UserRole string

const (
	UserRoleMember       UserRole = "MEMBER"
	UserRoleProductOwner UserRole = "PRODUCT_OWNER"
	UserRoleScrumMaster  UserRole = "SCRUM_MASTER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleMember, UserRoleProductOwner, UserRoleScrumMaster:
		return true
	}
	return false
}

// User is an account known to the tracking service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
