package domain

import "time"

type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleRank orders roles: admin > staff.
func RoleRank(r string) int {
	switch Role(r) {
	case RoleAdmin:
		return 2
	case RoleStaff:
		return 1
	default:
		return 0
	}
}

type AdminUser struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Identity is what a successful credential check yields.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
