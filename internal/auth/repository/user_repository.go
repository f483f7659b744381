package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

const userColumns = `id, username, password, email, firstname, lastname, role, profile_picture, created_at`

type MySQLUserRepository struct {
	db mysql.DBTX
}

func NewMySQLUserRepository(db mysql.DBTX) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

func (r *MySQLUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return findUser(row)
}

// FindByUsername matches case-sensitively.
func (r *MySQLUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE BINARY username = ?`, username)
	return findUser(row)
}

func (r *MySQLUserRepository) EmailTaken(ctx context.Context, email string, excludeID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`, email, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking user email: %w", err)
	}
	return n > 0, nil
}

func (r *MySQLUserRepository) Insert(ctx context.Context, u domain.User) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password, email, firstname, lastname, role)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Email, u.FirstName, u.LastName, u.Role,
	)
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return 0, apperrors.NewConflictError("Username or email already exists")
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user id: %w", err)
	}
	return int(id), nil
}

func (r *MySQLUserRepository) UpdateProfile(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, firstname = ?, lastname = ? WHERE id = ?`,
		u.Email, u.FirstName, u.LastName, u.ID,
	)
	if err != nil {
		if mysql.IsDuplicateEntry(err) {
			return apperrors.NewConflictError("Email already in use")
		}
		return fmt.Errorf("updating profile of user %d: %w", u.ID, err)
	}
	return requireUser(res, u.ID)
}

func (r *MySQLUserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("updating password of user %d: %w", id, err)
	}
	return requireUser(res, id)
}

func (r *MySQLUserRepository) UpdateProfilePicture(ctx context.Context, id int, picture string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET profile_picture = ? WHERE id = ?`, picture, id)
	if err != nil {
		return fmt.Errorf("updating profile picture of user %d: %w", id, err)
	}
	return requireUser(res, id)
}

func (r *MySQLUserRepository) UpdateRole(ctx context.Context, id int, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("updating role of user %d: %w", id, err)
	}
	return requireUser(res, id)
}

func findUser(row *sql.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("User not found")
		}
		return nil, err
	}
	return u, nil
}

func requireUser(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows for user %d: %w", id, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("User not found")
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var first, last, picture sql.NullString
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &first, &last, &u.Role, &picture, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning user row: %w", err)
	}
	if first.Valid {
		u.FirstName = &first.String
	}
	if last.Valid {
		u.LastName = &last.String
	}
	u.ProfilePicture = mysql.NullableString(picture)
	return &u, nil
}
