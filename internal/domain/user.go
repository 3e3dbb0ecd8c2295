package domain

import "time"

// User is one Telegram principal with a connected Yonote workspace.
type User struct {
	TelegramID           int64
	YonoteToken          string // empty until a workspace is connected
	NotificationsEnabled bool
	LastEventID          string // newest processed event id; empty on first run
	CreatedAt            time.Time
}
