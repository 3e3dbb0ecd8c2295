package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/novikov-denis/yonote-tg-bot/internal/store"
)

type mutePreset struct {
	d     time.Duration
	label string
}

var mutePresets = map[string]mutePreset{
	"disable_1h":  {time.Hour, "1 hour"},
	"disable_4h":  {4 * time.Hour, "4 hours"},
	"disable_24h": {24 * time.Hour, "24 hours"},
}

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	u, err := r.repo.GetUser(ctx, chatID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		r.log.Error("get user failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, "Something went wrong, please try again later.", nil)
		return
	}

	if u != nil && u.YonoteToken != "" {
		r.send(chatID, connectedGreeting, mainMenuKeyboard())
		return
	}
	r.send(chatID, welcomeText, connectKeyboard())
}

func (r *Router) handleConnect(_ context.Context, chatID int64, msgID int) {
	r.editText(chatID, msgID, connectInstructions)
	r.setWaitingForToken(chatID, true)
}

// handleTokenInput validates the pasted workspace token. The message with
// the credential is removed from the chat regardless of the outcome.
func (r *Router) handleTokenInput(ctx context.Context, chatID int64, msgID int, token string) {
	// The token must not stay in the chat history.
	_, _ = r.bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID))

	api := r.newCheck(token)
	defer api.Close()

	if _, err := api.AuthInfo(ctx); err != nil {
		r.log.Info("token validation failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, invalidTokenText, nil)
		return
	}

	if err := r.repo.UpsertToken(ctx, chatID, token); err != nil {
		r.log.Error("save token failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, "Could not save the connection, please try again.", nil)
		return
	}
	r.setWaitingForToken(chatID, false)

	// Best-effort sweep of the recent conversation, in case the token was
	// pasted more than once.
	for i := 1; i <= 20; i++ {
		_, _ = r.bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID-i))
	}

	r.send(chatID, connectedText, mainMenuKeyboard())
}

func (r *Router) handleSettings(ctx context.Context, chatID int64, msgID int) {
	enabled, err := r.mutes.IsEnabled(ctx, chatID)
	if err != nil {
		r.log.Error("mute check failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, "Could not read your settings.", nil)
		return
	}

	text := settingsTitle
	if !enabled {
		text = settingsTitle + "\n\n🔕 Notifications are off"
		if until, err := r.mutes.DisabledUntil(ctx, chatID); err == nil && until != nil {
			if left := time.Until(*until); left > 0 {
				text += fmt.Sprintf(" (%s left)", formatLeft(left))
			}
		}
	}
	r.edit(chatID, msgID, text, settingsKeyboard(enabled))
}

func (r *Router) handleMuteMenu(_ context.Context, chatID int64, msgID int) {
	r.edit(chatID, msgID, muteMenuText, mutePresetsKeyboard())
}

func (r *Router) handleMutePreset(ctx context.Context, chatID int64, msgID int, data string) {
	preset, ok := mutePresets[data]
	if !ok {
		return
	}
	if err := r.mutes.Disable(ctx, chatID, preset.d); err != nil {
		r.log.Error("mute failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, "Could not mute notifications.", nil)
		return
	}
	r.edit(chatID, msgID,
		fmt.Sprintf("🔕 Notifications are off for %s.\n\nThey will turn back on automatically.", preset.label),
		backKeyboard())
}

func (r *Router) handleUnmute(ctx context.Context, chatID int64, msgID int) {
	if err := r.mutes.Enable(ctx, chatID); err != nil {
		r.log.Error("unmute failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, "Could not unmute notifications.", nil)
		return
	}
	r.edit(chatID, msgID, "🔔 Notifications are on!", mainMenuKeyboard())
}

// handleChangeWorkspace is a full disconnect: the user row goes away
// (taking the mute row with it) and the mute cache entry is dropped so it
// cannot outlive the deleted row.
func (r *Router) handleChangeWorkspace(ctx context.Context, chatID int64, msgID int) {
	if err := r.repo.DeleteUser(ctx, chatID); err != nil {
		r.log.Error("delete user failed", zap.Int64("chat", chatID), zap.Error(err))
		r.send(chatID, "Could not disconnect the workspace.", nil)
		return
	}
	if err := r.mutes.Enable(ctx, chatID); err != nil {
		r.log.Warn("clear mute after disconnect failed", zap.Int64("chat", chatID), zap.Error(err))
	}
	r.edit(chatID, msgID, workspaceDisconnectedText, connectKeyboard())
}

// formatLeft renders a duration as "1h 30m" or "45m".
func formatLeft(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
