package botapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	cfg "github.com/faringet/telegram-gift-scraper/pkg/config"
)

// Messenger: то, чем бот отвечает оператору.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (messageID int, err error)
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Client struct {
	log *slog.Logger
	bot *tgbotapi.BotAPI
	cfg cfg.TelegramBot
}

var _ Messenger = (*Client)(nil)

func New(c cfg.TelegramBot, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, errors.New("botapi: token is required")
	}
	log = log.With(slog.String("component", "giftscout.botapi"))

	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, fmt.Errorf("botapi: init: %w", err)
	}

	bot.Debug = c.Debug

	return &Client{
		log: log,
		bot: bot,
		cfg: c,
	}, nil
}

// call выполняет блокирующий запрос Bot API, но не держит вызывающего
// дольше ctx.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type resp struct {
		v T
		e error
	}
	ch := make(chan resp, 1)

	go func() {
		v, e := fn()
		ch <- resp{v: v, e: e}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.e
	}
}

func (c *Client) Send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	if chatID == 0 {
		return 0, errors.New("botapi: chatID is required")
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(text))
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = *kb
	}

	m, err := call(ctx, func() (tgbotapi.Message, error) { return c.bot.Send(msg) })
	if err != nil {
		return 0, fmt.Errorf("botapi: send: %w", err)
	}
	return m.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	e := tgbotapi.NewEditMessageText(chatID, messageID, strings.TrimSpace(text))
	e.DisableWebPagePreview = true
	e.ReplyMarkup = kb

	if _, err := call(ctx, func() (tgbotapi.Message, error) { return c.bot.Send(e) }); err != nil {
		return fmt.Errorf("botapi: edit: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	d := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := call(ctx, func() (*tgbotapi.APIResponse, error) { return c.bot.Request(d) }); err != nil {
		return fmt.Errorf("botapi: delete: %w", err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := call(ctx, func() (*tgbotapi.APIResponse, error) { return c.bot.Request(cb) }); err != nil {
		return fmt.Errorf("botapi: answer callback: %w", err)
	}
	return nil
}

// Updates: long polling до отмены ctx.
func (c *Client) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(c.cfg.PollTimeout / time.Second)

	ch := c.bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		c.bot.StopReceivingUpdates()
	}()
	return ch
}

func (c *Client) Ping(ctx context.Context) error {
	u, err := call(ctx, c.bot.GetMe)
	if err != nil {
		return fmt.Errorf("botapi: getMe: %w", err)
	}
	c.log.Info("botapi ready",
		slog.String("username", "@"+u.UserName),
		slog.Int64("id", u.ID),
	)
	return nil
}

func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
