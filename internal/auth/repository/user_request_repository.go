package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

// MySQLRequestRepository stores self-registrations until an admin approves them.
type MySQLRequestRepository struct {
	db *sql.DB
}

func NewMySQLRequestRepository(db *sql.DB) *MySQLRequestRepository {
	return &MySQLRequestRepository{db: db}
}

// IdentityTaken reports whether username or email belongs to an existing user
// or to a request still waiting for approval.
func (r *MySQLRequestRepository) IdentityTaken(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE BINARY username = ? OR BINARY email = ?) +
			(SELECT COUNT(*) FROM user_requests
			 WHERE processed = 0 AND (BINARY username = ? OR BINARY email = ?))`,
		username, email, username, email,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking identity: %w", err)
	}
	return n > 0, nil
}

func (r *MySQLRequestRepository) HasPending(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_requests WHERE BINARY username = ? AND processed = 0`, username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking pending request: %w", err)
	}
	return n > 0, nil
}

func (r *MySQLRequestRepository) Insert(ctx context.Context, req domain.UserRequest) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_requests (username, password, email) VALUES (?, ?, ?)`,
		req.Username, req.PasswordHash, req.Email,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting user request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting user request id: %w", err)
	}
	return int(id), nil
}

func (r *MySQLRequestRepository) ListPending(ctx context.Context) ([]domain.UserRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, email, created_at
		FROM user_requests
		WHERE processed = 0
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying user requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.UserRequest
	for rows.Next() {
		var req domain.UserRequest
		if err := rows.Scan(&req.ID, &req.Username, &req.Email, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user request row: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user request rows: %w", err)
	}

	return requests, nil
}

// Approve turns a pending request into a user with the given role. The insert
// and the processed flag commit together.
func (r *MySQLRequestRepository) Approve(ctx context.Context, requestID int, role string, at time.Time) (int, error) {
	var userID int
	err := mysql.WithinTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var req domain.UserRequest
		err := tx.QueryRowContext(ctx, `
			SELECT id, username, email, password
			FROM user_requests
			WHERE id = ? AND processed = 0
			FOR UPDATE`, requestID,
		).Scan(&req.ID, &req.Username, &req.Email, &req.PasswordHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NewNotFoundError("Request not found")
			}
			return fmt.Errorf("fetching user request %d: %w", requestID, err)
		}

		userID, err = NewMySQLUserRepository(tx).Insert(ctx, domain.User{
			Username:     req.Username,
			PasswordHash: req.PasswordHash,
			Email:        req.Email,
			Role:         role,
		})
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE user_requests SET processed = 1, processed_at = ? WHERE id = ?`, at, requestID,
		); err != nil {
			return fmt.Errorf("marking user request %d processed: %w", requestID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}
