package domain

import "time"

type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

type User struct {
	ID           int32     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Location     string    `json:"location"`
	Role         UserRole  `json:"role"`
	IsBanned     bool      `json:"is_banned"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the authenticated identity invoking an operation. System marks
// transitions triggered by scheduled jobs rather than by a person.
type Actor struct {
	ID     int32
	Role   UserRole
	System bool
}

func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin || a.System
}

// SystemActor is used by maintenance jobs.
var SystemActor = Actor{ID: 0, Role: UserRoleAdmin, System: true}
