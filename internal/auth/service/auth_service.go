package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

const (
	maxUsernameLen = 50
	maxPasswordLen = 255
	maxEmailLen    = 100
	maxNameLen     = 100
	minPasswordLen = 4

	profilePicturePrefix = "data:image/"
	// about 5MB of image once base64 encoded
	maxProfilePictureLen = 7_000_000
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	EmailTaken(ctx context.Context, email string, excludeID int) (bool, error)
	Insert(ctx context.Context, u domain.User) (int, error)
	UpdateProfile(ctx context.Context, u domain.User) error
	UpdatePassword(ctx context.Context, id int, hash string) error
	UpdateProfilePicture(ctx context.Context, id int, picture string) error
	UpdateRole(ctx context.Context, id int, role string) error
}

type RequestRepository interface {
	IdentityTaken(ctx context.Context, username, email string) (bool, error)
	HasPending(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, req domain.UserRequest) (int, error)
	ListPending(ctx context.Context) ([]domain.UserRequest, error)
	Approve(ctx context.Context, requestID int, role string, at time.Time) (int, error)
}

type TokenIssuer interface {
	Generate(userID int, username, role string) (string, time.Time, error)
}

type Registration struct {
	Username string
	Email    string
	Password string
}

type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName *string
	LastName  *string
	Role      string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

type AuthService struct {
	users    UserRepository
	requests RequestRepository
	issuer   TokenIssuer
	logger   *zap.Logger
	cost     int
	now      func() time.Time
}

func NewAuthService(users UserRepository, requests RequestRepository, issuer TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		requests: requests,
		issuer:   issuer,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Register files a pending request. The account only exists once an admin
// approves it.
func (s *AuthService) Register(ctx context.Context, in Registration) (*domain.UserRequest, error) {
	if err := validateCredentials(in.Username, in.Email, in.Password); err != nil {
		return nil, err
	}

	taken, err := s.requests.IdentityTaken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.NewConflictError("Username or email already exists or pending")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	req := domain.UserRequest{Username: in.Username, Email: in.Email, PasswordHash: hash}
	req.ID, err = s.requests.Insert(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration submitted", zap.Int("requestId", req.ID), zap.String("username", in.Username))
	return &req, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("Username and password are required")
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.NewValidationError("Username contains invalid characters")
	}
	if len(username) > maxUsernameLen || len(password) > maxPasswordLen {
		return nil, apperrors.NewValidationError("Input too long")
	}

	pending, err := s.requests.HasPending(ctx, username)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperrors.NewForbiddenError("Your account is waiting for administrator approval")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, invalidCredentials()
	}

	token, expires, err := s.issuer.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", zap.Int("userId", user.ID), zap.String("role", user.Role))
	return &Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID int) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int, email string, firstName, lastName *string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("Email is required")
	}
	if !emailPattern.MatchString(email) || len(email) > maxEmailLen {
		return apperrors.NewValidationError("Invalid email format")
	}
	if tooLong(firstName) || tooLong(lastName) {
		return apperrors.NewValidationError("Input too long")
	}

	taken, err := s.users.EmailTaken(ctx, email, userID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflictError("Email already in use")
	}

	return s.users.UpdateProfile(ctx, domain.User{
		ID:        userID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
}

// UpdateProfilePicture stores picture, a base64 data URL of an image.
func (s *AuthService) UpdateProfilePicture(ctx context.Context, userID int, picture string) error {
	picture = strings.TrimSpace(picture)
	if picture == "" {
		return apperrors.NewValidationError("profilePicture is required", apperrors.ValidationDetail{
			Field:   "profilePicture",
			Message: "profilePicture is required",
		})
	}
	if !strings.HasPrefix(picture, profilePicturePrefix) {
		return apperrors.NewValidationError("Invalid image format", apperrors.ValidationDetail{
			Field:   "profilePicture",
			Message: "must be a data:image/ URL",
		})
	}
	if len(picture) > maxProfilePictureLen {
		return apperrors.NewValidationError("Image too large. Maximum 5MB", apperrors.ValidationDetail{
			Field:   "profilePicture",
			Message: fmt.Sprintf("encoded image must be at most %d bytes", maxProfilePictureLen),
		})
	}

	if err := s.users.UpdateProfilePicture(ctx, userID, picture); err != nil {
		return err
	}

	s.logger.Info("profile picture updated", zap.Int("userId", userID), zap.Int("bytes", len(picture)))
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int, current, next string) error {
	if current == "" || next == "" {
		return apperrors.NewValidationError("All fields are required")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperrors.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := s.hash(next)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int("userId", userID))
	return nil
}

func (s *AuthService) PendingRequests(ctx context.Context) ([]domain.UserRequest, error) {
	return s.requests.ListPending(ctx)
}

// Approve accepts a pending registration as admin or staff.
func (s *AuthService) Approve(ctx context.Context, requestID int, role string) (int, error) {
	if requestID <= 0 || role == "" {
		return 0, apperrors.NewValidationError("requestId and role are required")
	}
	if role != domain.RoleAdmin && role != domain.RoleStaff {
		return 0, apperrors.NewValidationError("Invalid role")
	}

	userID, err := s.requests.Approve(ctx, requestID, role, s.now())
	if err != nil {
		return 0, err
	}

	s.logger.Info("registration approved",
		zap.Int("requestId", requestID),
		zap.Int("userId", userID),
		zap.String("role", role),
	)
	return userID, nil
}

func (s *AuthService) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) UpdateRole(ctx context.Context, userID int, role string) error {
	if !domain.IsValidRole(role) {
		return apperrors.NewValidationError("Invalid role")
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	s.logger.Info("role updated", zap.Int("userId", userID), zap.String("role", role))
	return nil
}

// CreateUser adds an active account directly, bypassing the approval queue.
func (s *AuthService) CreateUser(ctx context.Context, in NewUser) (*domain.User, error) {
	if err := validateCredentials(in.Username, in.Email, in.Password); err != nil {
		return nil, err
	}
	if tooLong(in.FirstName) || tooLong(in.LastName) {
		return nil, apperrors.NewValidationError("Input too long")
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.IsValidRole(role) {
		return nil, apperrors.NewValidationError("Invalid role")
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		CreatedAt:    s.now(),
	}
	user.ID, err = s.users.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.Int("userId", user.ID), zap.String("role", role))
	return &user, nil
}

func (s *AuthService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.NewValidationError("Input too long")
		}
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func validateCredentials(username, email, password string) error {
	if username == "" || email == "" || password == "" {
		return apperrors.NewValidationError("username, email and password are required")
	}
	if !usernamePattern.MatchString(username) {
		return apperrors.NewValidationError("Username can only contain letters, numbers, underscore and hyphen")
	}
	if !emailPattern.MatchString(email) {
		return apperrors.NewValidationError("Invalid email format")
	}
	if len(username) > maxUsernameLen || len(password) > maxPasswordLen || len(email) > maxEmailLen {
		return apperrors.NewValidationError("Input too long")
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}
	return nil
}

func tooLong(s *string) bool {
	return s != nil && len(*s) > maxNameLen
}

func invalidCredentials() error {
	return apperrors.NewUnauthorizedError("Invalid username or password")
}
