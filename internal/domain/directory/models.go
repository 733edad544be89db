// Package directory holds the employee register shared by the dashboards
// and the access gate.
package directory

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("directory: user not found")

// Roles recognised by the access gate. HR and admin share the HR surface.
const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

type User struct {
	ID               string
	Email            string
	Name             string
	Role             string
	Department       string
	IsActive         bool
	AnnualLeaveTotal int
	AnnualLeaveUsed  int
	SickLeaveTotal   int
	SickLeaveUsed    int
	CreatedAt        time.Time
}

// IsHR reports whether the role grants access to the HR surface.
func IsHR(role string) bool {
	return role == RoleHR || role == RoleAdmin
}
