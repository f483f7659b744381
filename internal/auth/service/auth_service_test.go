package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

type fakeUsers struct {
	byID   map[int]domain.User
	nextID int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int]domain.User{}, nextID: 1}
}

func (f *fakeUsers) List(context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id int) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("User not found")
	}
	return &u, nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("User not found")
}

func (f *fakeUsers) EmailTaken(_ context.Context, email string, excludeID int) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Insert(_ context.Context, u domain.User) (int, error) {
	for _, existing := range f.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, apperrors.NewConflictError("Username or email already exists")
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.byID[u.ID] = u
	return u.ID, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u domain.User) error {
	existing, ok := f.byID[u.ID]
	if !ok {
		return apperrors.NewNotFoundError("User not found")
	}
	existing.Email, existing.FirstName, existing.LastName = u.Email, u.FirstName, u.LastName
	f.byID[u.ID] = existing
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int, hash string) error {
	existing, ok := f.byID[id]
	if !ok {
		return apperrors.NewNotFoundError("User not found")
	}
	existing.PasswordHash = hash
	f.byID[id] = existing
	return nil
}

func (f *fakeUsers) UpdateProfilePicture(_ context.Context, id int, picture string) error {
	existing, ok := f.byID[id]
	if !ok {
		return apperrors.NewNotFoundError("User not found")
	}
	existing.ProfilePicture = &picture
	f.byID[id] = existing
	return nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id int, role string) error {
	existing, ok := f.byID[id]
	if !ok {
		return apperrors.NewNotFoundError("User not found")
	}
	existing.Role = role
	f.byID[id] = existing
	return nil
}

type fakeRequests struct {
	users   *fakeUsers
	pending map[int]domain.UserRequest
	nextID  int
}

func (f *fakeRequests) IdentityTaken(ctx context.Context, username, email string) (bool, error) {
	if _, err := f.users.FindByUsername(ctx, username); err == nil {
		return true, nil
	}
	if taken, _ := f.users.EmailTaken(ctx, email, 0); taken {
		return true, nil
	}
	for _, r := range f.pending {
		if r.Username == username || r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequests) HasPending(_ context.Context, username string) (bool, error) {
	for _, r := range f.pending {
		if r.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequests) Insert(_ context.Context, req domain.UserRequest) (int, error) {
	f.nextID++
	req.ID = f.nextID
	f.pending[req.ID] = req
	return req.ID, nil
}

func (f *fakeRequests) ListPending(context.Context) ([]domain.UserRequest, error) {
	var out []domain.UserRequest
	for _, r := range f.pending {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRequests) Approve(ctx context.Context, requestID int, role string, _ time.Time) (int, error) {
	req, ok := f.pending[requestID]
	if !ok {
		return 0, apperrors.NewNotFoundError("Request not found")
	}
	id, err := f.users.Insert(ctx, domain.User{
		Username:     req.Username,
		PasswordHash: req.PasswordHash,
		Email:        req.Email,
		Role:         role,
	})
	if err != nil {
		return 0, err
	}
	delete(f.pending, requestID)
	return id, nil
}

type fakeIssuer struct {
	err error
}

func (f fakeIssuer) Generate(userID int, username, role string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "token-for-" + username, time.Unix(1700000000, 0), nil
}

type fixture struct {
	users    *fakeUsers
	requests *fakeRequests
	svc      *AuthService
}

func newFixture() *fixture {
	users := newFakeUsers()
	requests := &fakeRequests{users: users, pending: map[int]domain.UserRequest{}}
	svc := NewAuthService(users, requests, fakeIssuer{}, zap.NewNop())
	svc.cost = bcrypt.MinCost
	return &fixture{users: users, requests: requests, svc: svc}
}

func (f *fixture) approvedUser(t *testing.T, username, password, role string) int {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), NewUser{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return u.ID
}

func TestRegister_ThenLoginIsPendingUntilApproved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.Register(ctx, Registration{Username: "dana", Email: "dana@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", req.PasswordHash)

	_, err = f.svc.Login(ctx, "dana", "s3cret")
	_, ok := apperrors.IsForbiddenError(err)
	require.True(t, ok)

	userID, err := f.svc.Approve(ctx, req.ID, domain.RoleStaff)
	require.NoError(t, err)

	session, err := f.svc.Login(ctx, "dana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "token-for-dana", session.Token)
	assert.Equal(t, userID, session.User.ID)
	assert.Equal(t, domain.RoleStaff, session.User.Role)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()

	cases := map[string]Registration{
		"missing fields": {Username: "a"},
		"bad username":   {Username: "a b", Email: "a@b.co", Password: "pass"},
		"bad email":      {Username: "ab", Email: "nope", Password: "pass"},
		"long username":  {Username: strings.Repeat("a", 51), Email: "a@b.co", Password: "pass"},
		"short password": {Username: "ab", Email: "a@b.co", Password: "abc"},
		"long email":     {Username: "ab", Email: strings.Repeat("a", 95) + "@b.com", Password: "pass"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), in)
			_, ok := apperrors.IsValidationError(err)
			assert.True(t, ok, "%v", err)
		})
	}
}

func TestRegister_DuplicateIdentity(t *testing.T) {
	f := newFixture()
	f.approvedUser(t, "erin", "pass1", domain.RoleUser)

	_, err := f.svc.Register(context.Background(), Registration{Username: "erin", Email: "new@example.com", Password: "pass"})

	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, "Username or email already exists or pending", ce.Message)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture()
	f.approvedUser(t, "frank", "right", domain.RoleUser)

	_, err := f.svc.Login(context.Background(), "frank", "wrong")
	_, ok := apperrors.IsUnauthorizedError(err)
	assert.True(t, ok)

	_, err = f.svc.Login(context.Background(), "ghost", "whatever")
	_, ok = apperrors.IsUnauthorizedError(err)
	assert.True(t, ok)

	_, err = f.svc.Login(context.Background(), "fr@nk", "whatever")
	_, ok = apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestLogin_IssuerFailure(t *testing.T) {
	f := newFixture()
	f.approvedUser(t, "gina", "pass", domain.RoleUser)
	f.svc.issuer = fakeIssuer{err: errors.New("signing failed")}

	_, err := f.svc.Login(context.Background(), "gina", "pass")

	assert.EqualError(t, err, "signing failed")
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	id := f.approvedUser(t, "hank", "old-pass", domain.RoleUser)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, id, "not-it", "new-pass")
	ue, ok := apperrors.IsUnauthorizedError(err)
	require.True(t, ok)
	assert.Equal(t, "Current password is incorrect", ue.Message)

	require.NoError(t, f.svc.ChangePassword(ctx, id, "old-pass", "new-pass"))

	_, err = f.svc.Login(ctx, "hank", "new-pass")
	assert.NoError(t, err)

	_, ok = apperrors.IsValidationError(f.svc.ChangePassword(ctx, id, "new-pass", "abc"))
	assert.True(t, ok)
}

func TestApprove_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Approve(context.Background(), 1, domain.RoleUser)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid role", ve.Message)

	_, err = f.svc.Approve(context.Background(), 99, domain.RoleAdmin)
	_, ok = apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture()
	id := f.approvedUser(t, "ivy", "pass", domain.RoleUser)

	require.NoError(t, f.svc.UpdateRole(context.Background(), id, domain.RoleAdmin))
	u, _ := f.svc.Me(context.Background(), id)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, ok := apperrors.IsValidationError(f.svc.UpdateRole(context.Background(), id, "root"))
	assert.True(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	id := f.approvedUser(t, "jack", "pass", domain.RoleUser)
	f.approvedUser(t, "kate", "pass", domain.RoleUser)
	first := "Jack"

	require.NoError(t, f.svc.UpdateProfile(context.Background(), id, " jack@corp.io ", &first, nil))
	u, _ := f.svc.Me(context.Background(), id)
	assert.Equal(t, "jack@corp.io", u.Email)
	assert.Equal(t, "Jack", *u.FirstName)

	err := f.svc.UpdateProfile(context.Background(), id, "kate@example.com", nil, nil)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestUpdateProfilePicture(t *testing.T) {
	f := newFixture()
	id := f.approvedUser(t, "lena", "pass", domain.RoleUser)
	ctx := context.Background()
	picture := "data:image/png;base64,iVBORw0KGgo="

	require.NoError(t, f.svc.UpdateProfilePicture(ctx, id, picture))
	u, _ := f.svc.Me(ctx, id)
	require.NotNil(t, u.ProfilePicture)
	assert.Equal(t, picture, *u.ProfilePicture)

	tests := []struct {
		name    string
		picture string
		message string
	}{
		{"empty", "  ", "profilePicture is required"},
		{"not an image", "data:text/plain;base64,aGk=", "Invalid image format"},
		{"too large", profilePicturePrefix + strings.Repeat("A", maxProfilePictureLen), "Image too large. Maximum 5MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve, ok := apperrors.IsValidationError(f.svc.UpdateProfilePicture(ctx, id, tt.picture))
			require.True(t, ok)
			assert.Equal(t, tt.message, ve.Message)
		})
	}

	u, _ = f.svc.Me(ctx, id)
	assert.Equal(t, picture, *u.ProfilePicture)

	_, ok := apperrors.IsNotFoundError(f.svc.UpdateProfilePicture(ctx, 999, picture))
	assert.True(t, ok)
}

func TestCreateUser_DefaultsToUserRole(t *testing.T) {
	f := newFixture()

	u, err := f.svc.CreateUser(context.Background(), NewUser{Username: "lee", Email: "lee@example.com", Password: "pass"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pass")))
}
