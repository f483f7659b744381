package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/testutil"
)

func TestNewRepositories(t *testing.T) {
	db := &sql.DB{}

	assert.Equal(t, db, NewMySQLUserRepository(db).db)
	assert.Equal(t, db, NewMySQLRequestRepository(db).db)
}

// Integration Tests

func setup(t *testing.T) *sql.DB {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return db
}

func TestUserRepository_InsertFindAndUpdate(t *testing.T) {
	db := setup(t)
	repo := NewMySQLUserRepository(db)
	ctx := context.Background()

	id, err := repo.Insert(ctx, domain.User{Username: "alice", PasswordHash: "h", Email: "a@x.io", Role: domain.RoleStaff})
	require.NoError(t, err)

	u, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, domain.RoleStaff, u.Role)
	assert.Nil(t, u.FirstName)

	_, err = repo.FindByUsername(ctx, "ALICE")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok, "username lookup is case-sensitive")

	first := "Alice"
	require.NoError(t, repo.UpdateProfile(ctx, domain.User{ID: id, Email: "alice@x.io", FirstName: &first}))
	require.NoError(t, repo.UpdatePassword(ctx, id, "h2"))
	require.NoError(t, repo.UpdateRole(ctx, id, domain.RoleAdmin))
	require.NoError(t, repo.UpdateProfilePicture(ctx, id, "data:image/png;base64,AAAA"))

	u, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", u.Email)
	assert.Equal(t, "Alice", *u.FirstName)
	assert.Equal(t, "h2", u.PasswordHash)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	require.NotNil(t, u.ProfilePicture)
	assert.Equal(t, "data:image/png;base64,AAAA", *u.ProfilePicture)

	_, ok = apperrors.IsNotFoundError(repo.UpdateRole(ctx, 9999, domain.RoleUser))
	assert.True(t, ok)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := setup(t)
	repo := NewMySQLUserRepository(db)
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.User{Username: "bob", PasswordHash: "h", Email: "b@x.io", Role: domain.RoleUser})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, domain.User{Username: "bob", PasswordHash: "h", Email: "other@x.io", Role: domain.RoleUser})

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestRequestRepository_RegisterAndApprove(t *testing.T) {
	db := setup(t)
	requests := NewMySQLRequestRepository(db)
	users := NewMySQLUserRepository(db)
	ctx := context.Background()

	reqID, err := requests.Insert(ctx, domain.UserRequest{Username: "carol", PasswordHash: "h", Email: "c@x.io"})
	require.NoError(t, err)

	taken, err := requests.IdentityTaken(ctx, "someone", "c@x.io")
	require.NoError(t, err)
	assert.True(t, taken)

	pending, err := requests.HasPending(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, pending)

	list, err := requests.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "carol", list[0].Username)

	userID, err := requests.Approve(ctx, reqID, domain.RoleStaff, time.Now())
	require.NoError(t, err)

	u, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "carol", u.Username)
	assert.Equal(t, domain.RoleStaff, u.Role)

	pending, err = requests.HasPending(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, pending)

	_, err = requests.Approve(ctx, reqID, domain.RoleStaff, time.Now())
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}
