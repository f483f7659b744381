package dto

import (
	"time"

	"stockroom/internal/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateProfileRequest struct {
	Email     string  `json:"email"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
}

type ProfilePictureRequest struct {
	ProfilePicture string `json:"profilePicture"`
}

type ApproveRequest struct {
	RequestID int    `json:"requestId"`
	Role      string `json:"role"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

type CreateUserRequest struct {
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Role      string  `json:"role"`
}

type UserDTO struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName *string   `json:"firstname"`
	LastName  *string   `json:"lastname"`
	Role           string    `json:"role"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewUserDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

type UserRequestDTO struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	TraceID string         `json:"traceId"`
	Request UserRequestDTO `json:"request"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	TraceID   string    `json:"traceId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserDTO   `json:"user"`
}

type UserResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	TraceID string  `json:"traceId"`
	User    UserDTO `json:"user"`
}

type UsersResponse struct {
	Success bool      `json:"success"`
	TraceID string    `json:"traceId"`
	Users   []UserDTO `json:"users"`
}

type RequestsResponse struct {
	Success  bool             `json:"success"`
	TraceID  string           `json:"traceId"`
	Requests []UserRequestDTO `json:"requests"`
}

type ApproveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
	UserID  int    `json:"userId"`
}
