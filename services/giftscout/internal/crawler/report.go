package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/remote"
)

// ErrRateLimited: сервер дважды подряд попросил подождать.
var ErrRateLimited = errors.New("crawler: rate limited")

// UserReport проверяет одного юзера. ok == false: подходящих подарков нет
// или список скрыт; это не ошибка.
func (c *Crawler) UserReport(ctx context.Context, id gifts.Identity, filters []string) (report string, ok bool, err error) {
	log := c.log.With(slog.String("user", id.String()))
	det := remote.NewDetector("юзер "+id.String(), c.notifier, log)

	cr := &crawl{
		Crawler: c,
		fetcher: gifts.NewFetcher(guard(c.sess, det), c.cfg.GiftPage, log),
		log:     log,
	}

	r, err := cr.lookup(ctx, id)
	if err != nil {
		return "", false, err
	}

	switch r.Outcome {
	case gifts.OutcomeOK:
		g := gifts.Apply(r.Gifts, filters)
		log.Info("user report",
			slog.Int64("user_id", r.User.ID),
			slog.Int("eligible", r.Gifts.Total()),
			slog.Int("matched", len(g)),
		)
		if len(g) == 0 {
			return "", false, nil
		}
		return gifts.FormatReport(r.User, g), true, nil
	case gifts.OutcomeHidden:
		return "", false, nil
	case gifts.OutcomeRetry:
		return "", false, fmt.Errorf("%w: retry after %s", ErrRateLimited, r.RetryAfter)
	default:
		return "", false, fmt.Errorf("user %s: %w", id, r.Err)
	}
}

// Join вступает в чат по ссылке-приглашению или @username.
func (c *Crawler) Join(ctx context.Context, link string) (ChatRef, error) {
	det := remote.NewDetector("вступление в "+link, c.notifier, c.log)
	if err := c.pacer.Wait(ctx); err != nil {
		return ChatRef{}, err
	}
	chat, err := guard(c.sess, det).JoinChat(ctx, link)
	if err != nil {
		return ChatRef{}, err
	}
	c.log.Info("joined chat", slog.String("link", link), slog.String("chat", chat.String()), slog.String("title", chat.Title))
	return chat, nil
}
