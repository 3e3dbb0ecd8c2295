// Package mute implements per-user temporary notification suppression as a
// single write-through abstraction: an in-memory TTL cache in front of the
// durable mute rows. The rows are the source of truth; every mutation
// touches both tiers, and expiry is lazy (expired rows are deleted on the
// next expiry-aware read).
package mute

import (
	"context"
	"errors"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/novikov-denis/yonote-tg-bot/internal/store"
)

// Repo is the durable tier the mute store sits on.
type Repo interface {
	GetMuteUntil(ctx context.Context, telegramID int64) (time.Time, error)
	UpsertMute(ctx context.Context, telegramID int64, until time.Time) error
	DeleteMute(ctx context.Context, telegramID int64) error
}

// Store gates notification delivery per user.
type Store struct {
	repo  Repo
	cache *gocache.Cache
	now   func() time.Time
}

// New creates a mute store over the given durable repo.
func New(repo Repo) *Store {
	return &Store{
		repo:  repo,
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
		now:   time.Now,
	}
}

func cacheKey(telegramID int64) string {
	return strconv.FormatInt(telegramID, 10)
}

// Disable suppresses notifications for the given duration, replacing any
// previous window. The cache entry carries the same deadline as its TTL, so
// it can never outlive the durable row.
func (s *Store) Disable(ctx context.Context, telegramID int64, d time.Duration) error {
	until := s.now().Add(d)
	if err := s.repo.UpsertMute(ctx, telegramID, until); err != nil {
		return err
	}
	s.cache.Set(cacheKey(telegramID), until, d)
	return nil
}

// Enable lifts the mute. Calling it when no mute is active is a no-op
// success.
func (s *Store) Enable(ctx context.Context, telegramID int64) error {
	if err := s.repo.DeleteMute(ctx, telegramID); err != nil {
		return err
	}
	s.cache.Delete(cacheKey(telegramID))
	return nil
}

// IsEnabled reports whether notifications may be delivered right now. A
// mute whose deadline has passed is treated as absent and removed from both
// tiers on the spot.
func (s *Store) IsEnabled(ctx context.Context, telegramID int64) (bool, error) {
	now := s.now()

	if v, ok := s.cache.Get(cacheKey(telegramID)); ok {
		until := v.(time.Time)
		if now.Before(until) {
			return false, nil
		}
		if err := s.Enable(ctx, telegramID); err != nil {
			return false, err
		}
		return true, nil
	}

	until, err := s.repo.GetMuteUntil(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if now.Before(until) {
		s.cache.Set(cacheKey(telegramID), until, until.Sub(now))
		return false, nil
	}
	if err := s.Enable(ctx, telegramID); err != nil {
		return false, err
	}
	return true, nil
}

// DisabledUntil returns the active mute deadline, or nil when none is
// stored. It is a display-only read and does not trigger lazy expiry;
// IsEnabled stays the authoritative gate at send time.
func (s *Store) DisabledUntil(ctx context.Context, telegramID int64) (*time.Time, error) {
	if v, ok := s.cache.Get(cacheKey(telegramID)); ok {
		until := v.(time.Time)
		return &until, nil
	}
	until, err := s.repo.GetMuteUntil(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &until, nil
}
