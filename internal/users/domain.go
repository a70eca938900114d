package users

import "time"

// User represents a managed user account.
type User struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	CouncilID           string    `json:"councilId,omitempty"`
	AvatarURL           string    `json:"avatarUrl,omitempty"`
	AcceptNotifications bool      `json:"acceptNotifications"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// CreateUserInput carries the fields required to create an account.
type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	CouncilID string
	AvatarURL string
}

// UpdateUserInput carries profile fields any user may change on their own
// record. Role and council moves are admin-only and travel separately.
type UpdateUserInput struct {
	Name                *string
	AvatarURL           *string
	AcceptNotifications *bool
}
