package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
// foreign_keys=ON makes the mute row cascade on user deletion.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertToken inserts a new user with the given workspace token or replaces
// the token of an existing one. The enabled flag and cursor survive a
// token refresh; a full workspace switch goes through DeleteUser instead.
func (r *SQLiteRepo) UpsertToken(ctx context.Context, telegramID int64, token string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, yonote_token, notifications_enabled, created_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			yonote_token = excluded.yonote_token`,
		telegramID, token, time.Now().UTC().Unix(),
	)
	return err
}

// GetUser returns a user by Telegram id or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, yonote_token, notifications_enabled, last_event_id, created_at
		FROM users
		WHERE user_id = ?`,
		telegramID,
	)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all registered users. A single SELECT is a consistent
// snapshot under SQLite's single-writer model.
func (r *SQLiteRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, yonote_token, notifications_enabled, last_event_id, created_at
		FROM users`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetEnabled toggles the global notifications flag for a user.
func (r *SQLiteRepo) SetEnabled(ctx context.Context, telegramID int64, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET notifications_enabled = ?
		WHERE user_id = ?`,
		boolToInt(enabled), telegramID,
	)
	return err
}

// SetLastEventID advances the user's feed cursor.
func (r *SQLiteRepo) SetLastEventID(ctx context.Context, telegramID int64, eventID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET last_event_id = ?
		WHERE user_id = ?`,
		eventID, telegramID,
	)
	return err
}

// DeleteUser removes the user row; the mute row goes with it via the
// ON DELETE CASCADE constraint.
func (r *SQLiteRepo) DeleteUser(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, telegramID)
	return err
}

// GetMuteUntil returns the stored mute deadline or ErrNotFound.
func (r *SQLiteRepo) GetMuteUntil(ctx context.Context, telegramID int64) (time.Time, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT disabled_until FROM notification_mutes WHERE user_id = ?`,
		telegramID,
	)
	var unix int64
	if err := row.Scan(&unix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}
	return time.Unix(unix, 0).UTC(), nil
}

// UpsertMute writes the mute deadline, replacing any previous window.
func (r *SQLiteRepo) UpsertMute(ctx context.Context, telegramID int64, until time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_mutes (user_id, disabled_until)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			disabled_until = excluded.disabled_until`,
		telegramID, until.UTC().Unix(),
	)
	return err
}

// DeleteMute removes the mute row; deleting an absent row is a no-op.
func (r *SQLiteRepo) DeleteMute(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM notification_mutes WHERE user_id = ?`,
		telegramID,
	)
	return err
}

func scanUser(scan func(dest ...any) error) (*domain.User, error) {
	var (
		id         int64
		token      sql.NullString
		enabledInt int
		lastEvent  sql.NullString
		createdAt  int64
	)
	if err := scan(&id, &token, &enabledInt, &lastEvent, &createdAt); err != nil {
		return nil, err
	}
	return &domain.User{
		TelegramID:           id,
		YonoteToken:          token.String,
		NotificationsEnabled: enabledInt != 0,
		LastEventID:          lastEvent.String,
		CreatedAt:            time.Unix(createdAt, 0).UTC(),
	}, nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
