package auth

import "time"

// User represents an authenticated user account joined with its council
// affiliation. CouncilID is empty only for admins.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                string
	CouncilID           string
	CouncilName         string
	AvatarURL           string
	AcceptNotifications bool
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
