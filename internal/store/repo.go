package store

import (
	"context"
	"errors"
	"time"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for connected users and mute windows.
type Repo interface {
	// UpsertToken creates the user row on first connect or replaces the
	// workspace token of an existing one.
	UpsertToken(ctx context.Context, telegramID int64, token string) error
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	// ListUsers returns a consistent snapshot of all registered users.
	ListUsers(ctx context.Context) ([]domain.User, error)
	SetEnabled(ctx context.Context, telegramID int64, enabled bool) error
	SetLastEventID(ctx context.Context, telegramID int64, eventID string) error
	// DeleteUser removes the user row and, via cascade, its mute window.
	DeleteUser(ctx context.Context, telegramID int64) error

	// GetMuteUntil returns the raw mute deadline or ErrNotFound. Expiry is
	// the mute store's concern, not the repo's.
	GetMuteUntil(ctx context.Context, telegramID int64) (time.Time, error)
	UpsertMute(ctx context.Context, telegramID int64, until time.Time) error
	DeleteMute(ctx context.Context, telegramID int64) error

	Close() error
}
