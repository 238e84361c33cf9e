package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/togather-app/togather/internal/apperror"
	"github.com/togather-app/togather/internal/model"
	"github.com/togather-app/togather/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// userColumns is the SELECT list shared by every user query, in the order
// scanUser expects.
const userColumns = `id, useremail, nickname, password, pre_pwd, thumbnail,
	birthday, birthday_flag, is_first, access_token, refresh_token,
	created_at, updated_at, deleted_at`

// Create inserts a new user row.
//
// ID GENERATION:
// We generate an xid here (not in the service) so that ID assignment lives
// with the storage layer, same as timestamp assignment. xids are sortable by
// creation time, which makes eyeballing the table pleasant.
//
// CONFLICT TRANSLATION:
// The partial UNIQUE index on useremail rejects a second live row with the
// same email. modernc.org/sqlite surfaces that as a constraint error, which
// we translate to apperror.Conflict so the service and handler layers never
// see driver-specific errors. This is what closes the window between the
// service's existence pre-check and the INSERT.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, useremail, nickname, password, pre_pwd, thumbnail,
			birthday, birthday_flag, is_first, access_token, refresh_token,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Nickname,
		user.Password,
		user.PrePassword,
		user.Thumbnail,
		nullTime(user.Birthday),
		user.BirthdayFlag,
		user.IsFirst,
		user.AccessToken,
		user.RefreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves the live user with the given email.
// Returns apperror.ErrNotFound if no such user exists (or it was soft-deleted).
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE useremail = ? AND deleted_at IS NULL`,
		email,
	)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}

	return u, nil
}

// GetByID retrieves the live user with the given internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return u, nil
}

// Update persists the user's mutable profile fields.
// Tokens are NOT written here — SaveTokens owns those columns, so a profile
// save can never clobber a concurrently issued token pair.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET nickname = ?, password = ?, pre_pwd = ?, thumbnail = ?,
		     birthday = ?, birthday_flag = ?, is_first = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		user.Nickname,
		user.Password,
		user.PrePassword,
		user.Thumbnail,
		nullTime(user.Birthday),
		user.BirthdayFlag,
		user.IsFirst,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// SaveTokens attaches a freshly issued access/refresh pair to the user row.
// One UPDATE writes both columns, so the pair is recorded atomically —
// either both tokens land or neither does.
func (db *DB) SaveTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET access_token = ?, refresh_token = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		accessToken,
		refreshToken,
		time.Now(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving tokens for user %s: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: saving tokens for user %s: %w", userID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}

// MarkTutorialComplete clears the is_first flag for the given email.
//
// Deliberately does NOT check RowsAffected: setting the flag on an
// already-completed tutorial affects one row with the same values, and an
// unknown email affects zero — both are no-op successes. The operation is
// idempotent by construction.
func (db *DB) MarkTutorialComplete(ctx context.Context, email string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_first = 0, updated_at = ?
		 WHERE useremail = ? AND deleted_at IS NULL`,
		time.Now(),
		email,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking tutorial complete for %s: %w", email, err)
	}
	return nil
}

// scanUser reads one user row into a model.User.
// Accepts *sql.Row (QueryRow result); nullable columns go through sql.Null*.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		birthday  sql.NullTime
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Nickname,
		&u.Password,
		&u.PrePassword,
		&u.Thumbnail,
		&birthday,
		&u.BirthdayFlag,
		&u.IsFirst,
		&u.AccessToken,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		u.Birthday = &birthday.Time
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}

	return &u, nil
}

// nullTime converts a *time.Time into the driver-friendly any value.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
//
// modernc.org/sqlite doesn't export a stable error type for constraint
// violations, so we match the SQLite error text ("UNIQUE constraint failed:
// users.useremail"). Crude but reliable — the message is part of SQLite's
// documented error surface.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
