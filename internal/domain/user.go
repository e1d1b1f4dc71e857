package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account row. PasswordHash is never the plain credential.
type User struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Category is either a default category (visible to everyone, no owner) or
// a category owned by a single user.
type Category struct {
	ID        string
	UserID    string // empty for default categories
	Name      string
	IsDefault bool
	CreatedAt time.Time
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller may run administrator commands.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
