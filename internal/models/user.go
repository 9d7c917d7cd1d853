package models

import (
	"time"

	"github.com/google/uuid"
)

// Role separates attendees from administrative accounts.
type Role string

const (
	RoleAttendee Role = "attendee"
	RoleAdmin    Role = "admin"
)

// User is an attendee or administrator. Attendees are created (or updated)
// on their first registration; email is the immutable lookup key.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Role      Role      `json:"role"`
	Password  string    `json:"-"` // bcrypt hash, empty for attendee accounts
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Company string    `json:"company,omitempty"`
	Role    Role      `json:"role"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Company: u.Company,
		Role:    u.Role,
	}
}
