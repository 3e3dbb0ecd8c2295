// Package poller drives the notification cycle: on a fixed interval it walks
// all registered users, fetches their workspace event feed, picks out unseen
// comment events and hands the rendered notifications to the sender. One
// user's failure never aborts the cycle.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/novikov-denis/yonote-tg-bot/internal/domain"
	"github.com/novikov-denis/yonote-tg-bot/internal/notify"
	"github.com/novikov-denis/yonote-tg-bot/internal/store"
)

// WorkspaceClient is the slice of the Yonote API the cycle consumes.
type WorkspaceClient interface {
	Events(ctx context.Context, limit, offset int) ([]domain.Event, error)
	Document(ctx context.Context, id string) (*domain.Document, error)
	Close()
}

// ClientFactory builds a per-user workspace client from a stored token.
// The cycle closes every client it creates, including on error paths.
type ClientFactory func(token string) WorkspaceClient

// Sender delivers a rendered notification to a chat.
type Sender interface {
	SendNotification(chatID int64, html string) error
}

// MuteGate answers whether a user's notifications are currently enabled.
type MuteGate interface {
	IsEnabled(ctx context.Context, telegramID int64) (bool, error)
}

// Authorizer decides whether the user should be notified about an event on
// a document. The default allows everything; a real author/collaborator
// check can be plugged in here later.
type Authorizer interface {
	ShouldNotify(user domain.User, event domain.Event, doc domain.Document) bool
}

type allowAll struct{}

func (allowAll) ShouldNotify(domain.User, domain.Event, domain.Document) bool { return true }

// Poller periodically runs the notification cycle.
type Poller struct {
	repo      store.Repo
	mutes     MuteGate
	newClient ClientFactory
	sender    Sender
	formatter *notify.Formatter
	authz     Authorizer
	log       *zap.Logger

	interval  time.Duration
	pageLimit int
	fanout    int

	running atomic.Bool
}

// New creates a Poller.
func New(repo store.Repo, mutes MuteGate, newClient ClientFactory, sender Sender,
	formatter *notify.Formatter, log *zap.Logger, interval time.Duration, pageLimit int,
) *Poller {
	return &Poller{
		repo:      repo,
		mutes:     mutes,
		newClient: newClient,
		sender:    sender,
		formatter: formatter,
		authz:     allowAll{},
		log:       log,
		interval:  interval,
		pageLimit: pageLimit,
		fanout:    4,
	}
}

// Run starts the loop until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopping")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one notification cycle. A tick that would overlap a cycle still
// in flight is skipped instead of stacking.
func (p *Poller) tick(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.log.Warn("previous cycle still running, skipping tick")
		return
	}
	defer p.running.Store(false)

	users, err := p.repo.ListUsers(ctx)
	if err != nil {
		p.log.Error("list users failed", zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.fanout)
	for _, u := range users {
		u := u
		g.Go(func() error {
			p.checkUser(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
}

// checkUser processes one user's feed. All failures are logged and
// swallowed here so other users keep being served.
func (p *Poller) checkUser(ctx context.Context, u domain.User) {
	if !u.NotificationsEnabled || u.YonoteToken == "" {
		return
	}

	enabled, err := p.mutes.IsEnabled(ctx, u.TelegramID)
	if err != nil {
		p.log.Error("mute check failed", zap.Int64("user", u.TelegramID), zap.Error(err))
		return
	}
	if !enabled {
		return
	}

	api := p.newClient(u.YonoteToken)
	defer api.Close()

	events, err := api.Events(ctx, p.pageLimit, 0)
	if err != nil {
		p.log.Error("fetch events failed", zap.Int64("user", u.TelegramID), zap.Error(err))
		return
	}

	fresh := domain.NewEventsSince(u.LastEventID, events)
	if len(fresh) == 0 {
		return
	}

	// Advance the cursor before delivery: a crash mid-delivery then costs at
	// most one missed notification per event, never unbounded re-delivery.
	if err := p.repo.SetLastEventID(ctx, u.TelegramID, fresh[0].ID); err != nil {
		p.log.Error("advance cursor failed", zap.Int64("user", u.TelegramID), zap.Error(err))
		return
	}

	for _, event := range fresh {
		switch domain.MatchComment(event.Name) {
		case domain.MatchNone:
			continue
		case domain.MatchFuzzy:
			p.log.Warn("fuzzy comment event match",
				zap.Int64("user", u.TelegramID),
				zap.String("event", event.ID),
				zap.String("name", event.Name))
		case domain.MatchExact:
		}
		p.notify(ctx, u, event, api)
	}
}

// notify fetches the event's document and delivers one message. A failure
// skips this event only, not the whole user.
func (p *Poller) notify(ctx context.Context, u domain.User, event domain.Event, api WorkspaceClient) {
	if event.DocumentID == "" {
		p.log.Warn("comment event without document id",
			zap.Int64("user", u.TelegramID), zap.String("event", event.ID))
		return
	}

	doc, err := api.Document(ctx, event.DocumentID)
	if err != nil {
		p.log.Error("fetch document failed",
			zap.Int64("user", u.TelegramID),
			zap.String("document", event.DocumentID),
			zap.Error(err))
		return
	}

	if !p.authz.ShouldNotify(u, event, *doc) {
		return
	}

	msg := p.formatter.Format(event, *doc, time.Now())
	if err := p.sender.SendNotification(u.TelegramID, msg); err != nil {
		p.log.Error("send notification failed",
			zap.Int64("user", u.TelegramID),
			zap.String("event", event.ID),
			zap.Error(err))
	}
}
