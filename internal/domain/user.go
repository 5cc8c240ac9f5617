package domain

import "time"

// Role represents a user's role in the system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleDriver   Role = "DRIVER"
	RoleCustomer Role = "CUSTOMER"
)

// IsValid reports whether r is a recognized role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleDriver || r == RoleCustomer
}

// User represents a customer, driver, or admin account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	IsSuperAdmin bool // exactly one bootstrap elevated admin; immutable after creation
	Approved     bool // drivers require explicit admin approval before receiving work
	Active       bool // drivers toggle this to signal availability
	VehicleType  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
