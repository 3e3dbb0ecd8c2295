package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/novikov-denis/yonote-tg-bot/internal/mute"
	"github.com/novikov-denis/yonote-tg-bot/internal/store"
	"github.com/novikov-denis/yonote-tg-bot/internal/yonote"
)

// TokenChecker validates a workspace token. Implemented by *yonote.Client.
type TokenChecker interface {
	AuthInfo(ctx context.Context) (*yonote.AuthInfo, error)
	Close()
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot      *tgbotapi.BotAPI
	log      *zap.Logger
	repo     store.Repo
	mutes    *mute.Store
	newCheck func(token string) TokenChecker

	// chats currently awaiting a token message
	waiting map[int64]bool
	mu      sync.RWMutex
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, mutes *mute.Store,
	newCheck func(token string) TokenChecker,
) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		mutes:    mutes,
		newCheck: newCheck,
		waiting:  make(map[int64]bool),
	}
}

func (r *Router) setWaitingForToken(chatID int64, v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v {
		r.waiting[chatID] = true
	} else {
		delete(r.waiting, chatID)
	}
}

func (r *Router) waitingForToken(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting[chatID]
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case r.waitingForToken(chatID):
			r.handleTokenInput(ctx, chatID, msg.MessageID, text)
		default:
			reply := tgbotapi.NewMessage(chatID, "Use the menu to control the bot.")
			reply.ReplyMarkup = mainMenuKeyboard()
			_, _ = r.bot.Send(reply)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		chatID := cb.Message.Chat.ID
		msgID := cb.Message.MessageID
		_, _ = r.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

		switch cb.Data {
		case "connect":
			r.handleConnect(ctx, chatID, msgID)
		case "settings":
			r.handleSettings(ctx, chatID, msgID)
		case "disable_notifications":
			r.handleMuteMenu(ctx, chatID, msgID)
		case "disable_1h", "disable_4h", "disable_24h":
			r.handleMutePreset(ctx, chatID, msgID, cb.Data)
		case "enable_notifications":
			r.handleUnmute(ctx, chatID, msgID)
		case "change_workspace":
			r.handleChangeWorkspace(ctx, chatID, msgID)
		case "back_to_main":
			r.edit(chatID, msgID, mainMenuText, mainMenuKeyboard())
		default:
			// Unknown callback — ignore silently
		}
		return
	}
}

// SendNotification delivers a rendered notification with link previews
// suppressed. Transient Telegram errors are retried a few times; this makes
// Router satisfy poller.Sender.
func (r *Router) SendNotification(chatID int64, html string) error {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	return retry.Do(
		func() error {
			_, err := r.bot.Send(msg)
			return err
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn("retrying notification send", zap.Uint("attempt", n), zap.Error(err))
		}),
	)
}

func (r *Router) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("send failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) edit(chatID int64, msgID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup)
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("edit failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) editText(chatID int64, msgID int, text string) {
	msg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Error("edit failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}
