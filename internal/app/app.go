package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/novikov-denis/yonote-tg-bot/internal/config"
	"github.com/novikov-denis/yonote-tg-bot/internal/mute"
	"github.com/novikov-denis/yonote-tg-bot/internal/notify"
	"github.com/novikov-denis/yonote-tg-bot/internal/poller"
	"github.com/novikov-denis/yonote-tg-bot/internal/store"
	"github.com/novikov-denis/yonote-tg-bot/internal/telegram"
	"github.com/novikov-denis/yonote-tg-bot/internal/yonote"
)

// App owns the bot, the notification poller and the supporting resources.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	poller  *poller.Poller
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting yonote-tg-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Duration("poll_interval", a.cfg.PollInterval),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	mutes := mute.New(repo)

	newClient := func(token string) *yonote.Client {
		return yonote.New(token,
			yonote.WithBaseURL(a.cfg.YonoteAPIBase),
			yonote.WithTimeout(a.cfg.APITimeout),
		)
	}

	a.router = telegram.NewRouter(a.bot, a.log, repo, mutes,
		func(token string) telegram.TokenChecker { return newClient(token) })

	a.poller = poller.New(repo, mutes,
		func(token string) poller.WorkspaceClient { return newClient(token) },
		a.router,
		notify.New(a.cfg.YonoteAppBase),
		a.log, a.cfg.PollInterval, a.cfg.EventsPageLimit)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.poller.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
