package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleUser:
		return true
	}
	return false
}

// User is an approved account. ProfilePicture is a base64 data URL.
type User struct {
	ID             int
	Username       string
	PasswordHash   string
	Email          string
	FirstName      *string
	LastName       *string
	Role           string
	ProfilePicture *string
	CreatedAt      time.Time
}

// UserRequest is a self-registration waiting for an admin to approve it.
type UserRequest struct {
	ID           int
	Username     string
	PasswordHash string
	Email        string
	Processed    bool
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
