package mtproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"

	cfg "github.com/faringet/telegram-gift-scraper/pkg/config"
)

type Client struct {
	cfg cfg.MTProto
	log *slog.Logger
	td  *telegram.Client
}

func New(c cfg.MTProto, logg *slog.Logger) (*Client, error) {
	if logg == nil {
		logg = slog.Default()
	}
	logg = logg.With(slog.String("component", "giftscout.mtproto"))

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("mtproto config: %w", err)
	}

	return &Client{
		cfg: c,
		log: logg,
		td:  newTelegramClient(c),
	}, nil
}

// WithClient поднимает соединение, при необходимости авторизуется и держит
// сессию, пока работает fn.
func (c *Client) WithClient(ctx context.Context, fn func(ctx context.Context, td *telegram.Client) error) error {
	if c == nil || c.td == nil {
		return errors.New("mtproto: client is nil")
	}

	return c.td.Run(ctx, func(ctx context.Context) error {
		if err := authorizeIfNeeded(ctx, c.td, c.cfg, c.log); err != nil {
			return err
		}
		if err := logSelf(ctx, c.td, c.log); err != nil {
			return err
		}
		return fn(ctx, c.td)
	})
}

func newTelegramClient(c cfg.MTProto) *telegram.Client {
	storage := &session.FileStorage{Path: c.Session}

	device := telegram.DeviceConfig{
		DeviceModel:    c.Device.Model,
		SystemVersion:  c.Device.System,
		AppVersion:     c.Device.AppVersion,
		LangCode:       c.Device.LangCode,
		SystemLangCode: c.Device.SystemLang,
	}

	return telegram.NewClient(c.APIID, c.APIHash, telegram.Options{
		SessionStorage: storage,
		Device:         device,
	})
}

func logSelf(ctx context.Context, td *telegram.Client, log *slog.Logger) error {
	u, err := td.Self(ctx)
	if err != nil {
		return fmt.Errorf("telegram self: %w", err)
	}
	if u == nil {
		return errors.New("telegram self: nil user")
	}

	log.Info("authorized as user",
		slog.Int64("id", u.ID),
		slog.String("username", u.Username),
		slog.Bool("bot", u.Bot),
	)
	return nil
}
