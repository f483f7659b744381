package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockroom/internal/auth/service"
	"stockroom/internal/auth/token"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/httpx"
)

type AuthService interface {
	Register(ctx context.Context, in service.Registration) (*domain.UserRequest, error)
	Login(ctx context.Context, username, password string) (*service.Session, error)
	Me(ctx context.Context, userID int) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int, email string, firstName, lastName *string) error
	ChangePassword(ctx context.Context, userID int, current, next string) error
	UpdateProfilePicture(ctx context.Context, userID int, picture string) error
	PendingRequests(ctx context.Context) ([]domain.UserRequest, error)
	Approve(ctx context.Context, requestID int, role string) (int, error)
	Users(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, userID int, role string) error
	CreateUser(ctx context.Context, in service.NewUser) (*domain.User, error)
}

type Middleware func(http.Handler) http.Handler

type AuthController struct {
	service      AuthService
	authenticate Middleware
	requireAdmin Middleware
	logger       *zap.Logger
}

func NewAuthController(svc AuthService, authenticate, requireAdmin Middleware, logger *zap.Logger) *AuthController {
	return &AuthController{
		service:      svc,
		authenticate: authenticate,
		requireAdmin: requireAdmin,
		logger:       logger,
	}
}

func (c *AuthController) Routes(r chi.Router) {
	r.Post("/register", c.Register)
	r.Post("/login", c.Login)

	r.Group(func(r chi.Router) {
		r.Use(c.authenticate)
		r.Get("/me", c.Me)
		r.Put("/update-profile", c.UpdateProfile)
		r.Put("/change-password", c.ChangePassword)
		r.Put("/upload-profile-picture", c.UploadProfilePicture)

		r.Group(func(r chi.Router) {
			r.Use(c.requireAdmin)
			r.Get("/admin/requests", c.PendingRequests)
			r.Post("/admin/approve", c.Approve)
			r.Get("/users", c.Users)
			r.Post("/users", c.CreateUser)
			r.Put("/users/{id}/role", c.UpdateRole)
		})
	})
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	created, err := c.service.Register(r.Context(), service.Registration{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, dto.RegisterResponse{
		Success: true,
		Message: "Registration submitted and pending admin approval",
		TraceID: traceID,
		Request: dto.UserRequestDTO{ID: created.ID, Username: created.Username, Email: created.Email},
	}, logger)
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	session, err := c.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		Success:   true,
		Message:   "Login successful",
		TraceID:   traceID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      dto.NewUserDTO(session.User),
	}, logger)
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	userID, err := currentUserID(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	user, err := c.service.Me(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.UserResponse{
		Success: true,
		TraceID: traceID,
		User:    dto.NewUserDTO(*user),
	}, logger)
}

func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	userID, err := currentUserID(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.service.UpdateProfile(r.Context(), userID, req.Email, blankToNil(req.FirstName), blankToNil(req.LastName)); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Profile updated successfully",
		TraceID: traceID,
	}, logger)
}

func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	userID, err := currentUserID(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Password changed successfully",
		TraceID: traceID,
	}, logger)
}

// UploadProfilePicture replaces the caller's picture. The user comes from the
// token, never from the body.
func (c *AuthController) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	userID, err := currentUserID(r)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.ProfilePictureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.service.UpdateProfilePicture(r.Context(), userID, req.ProfilePicture); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Profile picture updated successfully",
		TraceID: traceID,
	}, logger)
}

func (c *AuthController) PendingRequests(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	requests, err := c.service.PendingRequests(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	out := make([]dto.UserRequestDTO, 0, len(requests))
	for _, req := range requests {
		out = append(out, dto.UserRequestDTO{
			ID:        req.ID,
			Username:  req.Username,
			Email:     req.Email,
			CreatedAt: req.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, dto.RequestsResponse{Success: true, TraceID: traceID, Requests: out}, logger)
}

func (c *AuthController) Approve(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.ApproveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	userID, err := c.service.Approve(r.Context(), req.RequestID, req.Role)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.ApproveResponse{
		Success: true,
		Message: "User approved",
		TraceID: traceID,
		UserID:  userID,
	}, logger)
}

func (c *AuthController) Users(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	users, err := c.service.Users(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	out := make([]dto.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserDTO(u))
	}

	httpx.WriteJSON(w, http.StatusOK, dto.UsersResponse{Success: true, TraceID: traceID, Users: out}, logger)
}

func (c *AuthController) CreateUser(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	user, err := c.service.CreateUser(r.Context(), service.NewUser{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: blankToNil(req.FirstName),
		LastName:  blankToNil(req.LastName),
		Role:      req.Role,
	})
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, dto.UserResponse{
		Success: true,
		Message: "User created successfully",
		TraceID: traceID,
		User:    dto.NewUserDTO(*user),
	}, logger)
}

func (c *AuthController) UpdateRole(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.RoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.service.UpdateRole(r.Context(), int(id), req.Role); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Role updated successfully",
		TraceID: traceID,
	}, logger)
}

func currentUserID(r *http.Request) (int, error) {
	claims, ok := token.FromContext(r.Context())
	if !ok || claims.UserID <= 0 {
		return 0, apperrors.NewUnauthorizedError("Authentication required")
	}
	return claims.UserID, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
