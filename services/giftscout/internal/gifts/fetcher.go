package gifts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/remote"
)

// ErrNoGiftList: сервер ответил, но списка подарков в ответе нет.
var ErrNoGiftList = errors.New("gifts: no gift list in response")

// Source: часть session-клиента, нужная для инвентаря.
type Source interface {
	ResolveUser(ctx context.Context, id Identity) (User, error)
	SavedGifts(ctx context.Context, u User, limit int) ([]RawGift, error)
}

type Outcome int

const (
	OutcomeOK      Outcome = iota // Gifts может быть пустым: это тоже успех
	OutcomeHidden                 // профиль скрыт / списка нет
	OutcomeRetry                  // FLOOD_WAIT, ждать RetryAfter
	OutcomeLockout                // аккаунт-парсер заблокирован
	OutcomeFailed                 // ошибка на этом юзере, пропускаем
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeHidden:
		return "hidden"
	case OutcomeRetry:
		return "retry"
	case OutcomeLockout:
		return "lockout"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "failed"
	}
}

type Result struct {
	User       User
	Gifts      Group
	Outcome    Outcome
	RetryAfter time.Duration
	Err        error
}

type Fetcher struct {
	src      Source
	pageSize int
	log      *slog.Logger
}

func NewFetcher(src Source, pageSize int, log *slog.Logger) *Fetcher {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		src:      src,
		pageSize: pageSize,
		log:      log.With(slog.String("component", "gift_fetcher")),
	}
}

// Fetch сам ничего не повторяет: на FLOOD_WAIT отдает OutcomeRetry,
// а темп и повтор решает вызывающий.
func (f *Fetcher) Fetch(ctx context.Context, id Identity) Result {
	var user User
	switch {
	case id.User != nil && id.User.Resolved():
		user = *id.User
	default:
		u, err := f.src.ResolveUser(ctx, id)
		if err != nil {
			res := failure(err)
			if id.User != nil {
				res.User = *id.User
			} else {
				res.User = User{ID: id.ID, Username: id.Username}
			}
			return res
		}
		user = u
	}

	raw, err := f.src.SavedGifts(ctx, user, f.pageSize)
	if err != nil {
		res := failure(err)
		res.User = user
		return res
	}

	items := Reportable(raw)
	f.log.Debug("inventory classified",
		slog.Int64("user_id", user.ID),
		slog.Int("raw", len(raw)),
		slog.Int("reportable", len(items)),
	)

	return Result{User: user, Gifts: GroupItems(items), Outcome: OutcomeOK}
}

func failure(err error) Result {
	if errors.Is(err, ErrNoGiftList) {
		return Result{Outcome: OutcomeHidden, Gifts: Group{}, Err: err}
	}
	kind, after := remote.Classify(err)
	res := Result{Err: err, RetryAfter: after}
	switch kind {
	case remote.KindRateLimited:
		res.Outcome = OutcomeRetry
	case remote.KindLockout:
		res.Outcome = OutcomeLockout
	case remote.KindHidden:
		res.Outcome = OutcomeHidden
		res.Gifts = Group{}
	case remote.KindCanceled:
		res.Outcome = OutcomeCanceled
	default:
		res.Outcome = OutcomeFailed
	}
	return res
}
