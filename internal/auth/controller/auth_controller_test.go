package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/auth/middleware"
	"stockroom/internal/auth/service"
	"stockroom/internal/auth/token"
	"stockroom/internal/config"
	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

type mockService struct {
	registerFn       func(ctx context.Context, in service.Registration) (*domain.UserRequest, error)
	loginFn          func(ctx context.Context, username, password string) (*service.Session, error)
	meFn             func(ctx context.Context, userID int) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, userID int, email string, firstName, lastName *string) error
	changePasswordFn func(ctx context.Context, userID int, current, next string) error
	pictureFn        func(ctx context.Context, userID int, picture string) error
	pendingFn        func(ctx context.Context) ([]domain.UserRequest, error)
	approveFn        func(ctx context.Context, requestID int, role string) (int, error)
	usersFn          func(ctx context.Context) ([]domain.User, error)
	updateRoleFn     func(ctx context.Context, userID int, role string) error
	createUserFn     func(ctx context.Context, in service.NewUser) (*domain.User, error)
}

func (m *mockService) Register(ctx context.Context, in service.Registration) (*domain.UserRequest, error) {
	return m.registerFn(ctx, in)
}

func (m *mockService) Login(ctx context.Context, username, password string) (*service.Session, error) {
	return m.loginFn(ctx, username, password)
}

func (m *mockService) Me(ctx context.Context, userID int) (*domain.User, error) {
	return m.meFn(ctx, userID)
}

func (m *mockService) UpdateProfile(ctx context.Context, userID int, email string, firstName, lastName *string) error {
	return m.updateProfileFn(ctx, userID, email, firstName, lastName)
}

func (m *mockService) ChangePassword(ctx context.Context, userID int, current, next string) error {
	return m.changePasswordFn(ctx, userID, current, next)
}

func (m *mockService) UpdateProfilePicture(ctx context.Context, userID int, picture string) error {
	return m.pictureFn(ctx, userID, picture)
}

func (m *mockService) PendingRequests(ctx context.Context) ([]domain.UserRequest, error) {
	return m.pendingFn(ctx)
}

func (m *mockService) Approve(ctx context.Context, requestID int, role string) (int, error) {
	return m.approveFn(ctx, requestID, role)
}

func (m *mockService) Users(ctx context.Context) ([]domain.User, error) {
	return m.usersFn(ctx)
}

func (m *mockService) UpdateRole(ctx context.Context, userID int, role string) error {
	return m.updateRoleFn(ctx, userID, role)
}

func (m *mockService) CreateUser(ctx context.Context, in service.NewUser) (*domain.User, error) {
	return m.createUserFn(ctx, in)
}

type testEnv struct {
	router chi.Router
	issuer *token.Issuer
}

func newEnv(t *testing.T, svc *mockService) *testEnv {
	t.Helper()
	issuer, err := token.NewIssuer(config.AuthConfig{JWTSecret: "secret", Issuer: "stockroom", ExpMinutes: 5})
	require.NoError(t, err)

	authn := middleware.NewAuthenticator(issuer, zap.NewNop())
	c := NewAuthController(svc, authn.Authenticate, middleware.RequireRole(zap.NewNop(), domain.RoleAdmin), zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api/auth", c.Routes)
	return &testEnv{router: r, issuer: issuer}
}

func (e *testEnv) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func (e *testEnv) token(t *testing.T, userID int, role string) string {
	t.Helper()
	tok, _, err := e.issuer.Generate(userID, "user"+role, role)
	require.NoError(t, err)
	return tok
}

func TestRegister_Created(t *testing.T) {
	var got service.Registration
	env := newEnv(t, &mockService{
		registerFn: func(ctx context.Context, in service.Registration) (*domain.UserRequest, error) {
			got = in
			return &domain.UserRequest{ID: 3, Username: in.Username, Email: in.Email}, nil
		},
	})

	rec, body := env.do(t, http.MethodPost, "/api/auth/register",
		`{"username":" dana ","email":"dana@example.com","password":"pass"}`, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Registration submitted and pending admin approval", body["message"])
	assert.Equal(t, "dana", got.Username)
	assert.Equal(t, float64(3), body["request"].(map[string]interface{})["id"])
}

func TestRegister_Conflict(t *testing.T) {
	env := newEnv(t, &mockService{
		registerFn: func(ctx context.Context, in service.Registration) (*domain.UserRequest, error) {
			return nil, apperrors.NewConflictError("Username or email already exists or pending")
		},
	})

	rec, body := env.do(t, http.MethodPost, "/api/auth/register", `{"username":"a","email":"a@b.co","password":"pass"}`, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username or email already exists or pending", body["message"])
}

func TestLogin(t *testing.T) {
	env := newEnv(t, &mockService{
		loginFn: func(ctx context.Context, username, password string) (*service.Session, error) {
			switch username {
			case "pending":
				return nil, apperrors.NewForbiddenError("Your account is waiting for administrator approval")
			case "alice":
				return &service.Session{
					Token:     "tok",
					ExpiresAt: time.Unix(1700000000, 0).UTC(),
					User:      domain.User{ID: 1, Username: "alice", Role: domain.RoleStaff},
				}, nil
			}
			return nil, apperrors.NewUnauthorizedError("Invalid username or password")
		},
	})

	rec, body := env.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "staff", body["user"].(map[string]interface{})["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = env.do(t, http.MethodPost, "/api/auth/login", `{"username":"pending","password":"pw"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/api/auth/login", `{"username":"bob","password":"pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	env := newEnv(t, &mockService{
		meFn: func(ctx context.Context, userID int) (*domain.User, error) {
			return &domain.User{ID: userID, Username: "alice", Role: domain.RoleUser}, nil
		},
	})

	rec, _ := env.do(t, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := env.do(t, http.MethodGet, "/api/auth/me", "", env.token(t, 7, domain.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), body["user"].(map[string]interface{})["id"])
}

func TestChangePassword_UsesTokenUser(t *testing.T) {
	var gotID int
	env := newEnv(t, &mockService{
		changePasswordFn: func(ctx context.Context, userID int, current, next string) error {
			gotID = userID
			if current != "old" {
				return apperrors.NewUnauthorizedError("Current password is incorrect")
			}
			return nil
		},
	})
	tok := env.token(t, 5, domain.RoleUser)

	rec, body := env.do(t, http.MethodPut, "/api/auth/change-password", `{"currentPassword":"old","newPassword":"newer"}`, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password changed successfully", body["message"])
	assert.Equal(t, 5, gotID)

	rec, body = env.do(t, http.MethodPut, "/api/auth/change-password", `{"currentPassword":"x","newPassword":"newer"}`, tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Current password is incorrect", body["message"])
}

func TestUploadProfilePicture_UsesTokenUser(t *testing.T) {
	var gotID int
	var gotPicture string
	env := newEnv(t, &mockService{
		pictureFn: func(ctx context.Context, userID int, picture string) error {
			gotID, gotPicture = userID, picture
			if picture == "nope" {
				return apperrors.NewValidationError("Invalid image format")
			}
			return nil
		},
	})
	tok := env.token(t, 8, domain.RoleUser)

	rec, body := env.do(t, http.MethodPut, "/api/auth/upload-profile-picture",
		`{"userId":1,"profilePicture":"data:image/png;base64,AAAA"}`, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Profile picture updated successfully", body["message"])
	assert.Equal(t, 8, gotID)
	assert.Equal(t, "data:image/png;base64,AAAA", gotPicture)

	rec, body = env.do(t, http.MethodPut, "/api/auth/upload-profile-picture", `{"profilePicture":"nope"}`, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid image format", body["message"])

	rec, _ = env.do(t, http.MethodPut, "/api/auth/upload-profile-picture", `{"profilePicture":"data:image/png;base64,AAAA"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	env := newEnv(t, &mockService{
		pendingFn: func(ctx context.Context) ([]domain.UserRequest, error) {
			return []domain.UserRequest{{ID: 1, Username: "dana", Email: "d@x.io"}}, nil
		},
		approveFn: func(ctx context.Context, requestID int, role string) (int, error) {
			return 11, nil
		},
		updateRoleFn: func(ctx context.Context, userID int, role string) error {
			if userID != 4 {
				return apperrors.NewNotFoundError("User not found")
			}
			return nil
		},
		usersFn: func(ctx context.Context) ([]domain.User, error) {
			return nil, nil
		},
	})

	rec, _ := env.do(t, http.MethodGet, "/api/auth/admin/requests", "", env.token(t, 2, domain.RoleStaff))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := env.token(t, 1, domain.RoleAdmin)

	rec, body := env.do(t, http.MethodGet, "/api/auth/admin/requests", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["requests"], 1)

	rec, body = env.do(t, http.MethodPost, "/api/auth/admin/approve", `{"requestId":1,"role":"staff"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(11), body["userId"])

	rec, body = env.do(t, http.MethodGet, "/api/auth/users", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["users"])

	rec, _ = env.do(t, http.MethodPut, "/api/auth/users/4/role", `{"role":"staff"}`, admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPut, "/api/auth/users/9/role", `{"role":"staff"}`, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser_Admin(t *testing.T) {
	env := newEnv(t, &mockService{
		createUserFn: func(ctx context.Context, in service.NewUser) (*domain.User, error) {
			return &domain.User{ID: 9, Username: in.Username, Email: in.Email, Role: in.Role}, nil
		},
	})

	rec, body := env.do(t, http.MethodPost, "/api/auth/users",
		`{"username":"ops","email":"ops@x.io","password":"pass","role":"staff","firstname":"  "}`,
		env.token(t, 1, domain.RoleAdmin))

	require.Equal(t, http.StatusCreated, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ops", user["username"])
	assert.Nil(t, user["firstname"])
}
