package auth

import "time"

// Roles assignable to a user account.
const (
	RoleAdmin    = "admin"
	RoleStandard = "standard"
)

// Account statuses. New registrations stay pending until an admin
// approves them; only active accounts may sign in.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents a platform account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string
	Role   string
	Status string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Active reports whether the account has been approved and not disabled.
func (p Principal) Active() bool { return p.Status == StatusActive }
