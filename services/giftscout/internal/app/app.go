package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	gscfg "github.com/faringet/telegram-gift-scraper/services/giftscout/config"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/botapi"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/crawler"
	mtclient "github.com/faringet/telegram-gift-scraper/services/giftscout/internal/mtproto"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/ratelimit"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/storage"
)

type App struct {
	cfg *gscfg.GiftScout
	log *slog.Logger

	client   *mtclient.Client
	store    storage.Store
	bot      *botapi.Client
	notifier *botapi.AdminNotifier
	pacer    *ratelimit.Limiter
}

func New(cfg *gscfg.GiftScout, log *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is nil")
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "app"))

	client, err := mtclient.New(cfg.MTProto, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLite(storage.SQLiteConfig{
		Path:           cfg.Storage.DBPath,
		BusyTimeout:    cfg.Storage.BusyTimeout,
		JournalModeWAL: true,
	})
	if err != nil {
		return nil, err
	}

	b, err := botapi.New(cfg.TelegramBot, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		client:   client,
		store:    store,
		bot:      b,
		notifier: botapi.NewAdminNotifier(b, cfg.Admins.IDs, log),
		pacer:    ratelimit.New(cfg.Crawl.Pace, cfg.MTProto.RateLimit.Burst),
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Run держит MTProto-сессию и внутри нее крутит бота до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("run started",
		slog.Int("admins", len(a.cfg.Admins.IDs)),
		slog.Int("limit_users", a.cfg.Crawl.LimitUsers),
		slog.Int("message_scan_cap", a.cfg.Crawl.MessageScanCap),
		slog.Duration("pace", a.cfg.Crawl.Pace),
		slog.String("db_path", a.cfg.Storage.DBPath),
	)

	if err := a.bot.Ping(ctx); err != nil {
		a.log.Error("bot ping failed", slog.Any("err", err))
		return err
	}

	return a.client.WithClient(ctx, func(ctx context.Context, td *telegram.Client) error {
		sess := mtclient.NewSession(tg.NewClient(td), a.store, a.log)

		c := crawler.New(crawler.Config{
			LimitUsers:     a.cfg.Crawl.LimitUsers,
			MessageScanCap: a.cfg.Crawl.MessageScanCap,
			HistoryPage:    a.cfg.Crawl.HistoryPage,
			GiftPage:       a.cfg.Crawl.GiftPage,
		}, sess, a.pacer, a.notifier, a.log)

		bot := botapi.NewBot(botapi.Config{
			Admins:     a.cfg.Admins.IDs,
			LimitUsers: a.cfg.Crawl.LimitUsers,
			ChunkLimit: a.cfg.Crawl.ChunkLimit,
			SendDelay:  a.cfg.TelegramBot.SendDelay,
		}, a.bot, c, a.log)

		err := bot.Run(ctx, a.bot.Updates(ctx))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
