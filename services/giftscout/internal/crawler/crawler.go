package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/remote"
)

const (
	DefaultLimitUsers     = 20
	DefaultMessageScanCap = 3000
	DefaultHistoryPage    = 100

	progressEvery = 100
)

type Config struct {
	LimitUsers     int // по умолчанию, если в запросе не задано
	MessageScanCap int
	HistoryPage    int
	GiftPage       int
}

type Crawler struct {
	cfg      Config
	sess     Session
	pacer    Pacer
	notifier remote.Notifier
	log      *slog.Logger
}

func New(cfg Config, sess Session, pacer Pacer, notifier remote.Notifier, log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LimitUsers <= 0 {
		cfg.LimitUsers = DefaultLimitUsers
	}
	if cfg.MessageScanCap <= 0 {
		cfg.MessageScanCap = DefaultMessageScanCap
	}
	if cfg.HistoryPage <= 0 || cfg.HistoryPage > DefaultHistoryPage {
		cfg.HistoryPage = DefaultHistoryPage
	}
	if cfg.GiftPage <= 0 {
		cfg.GiftPage = gifts.DefaultPageSize
	}
	return &Crawler{
		cfg:      cfg,
		sess:     sess,
		pacer:    pacer,
		notifier: notifier,
		log:      log.With(slog.String("component", "crawler")),
	}
}

type Request struct {
	Chat       string
	LimitUsers int
	Filters    []string // снимок FilterSet оператора
}

type Status int

const (
	StatusCompleted Status = iota
	StatusAborted          // блокировка аккаунта-парсера
	StatusCanceled         // отмена оператором
	StatusFailed           // чат недоступен / история не читается
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusCanceled:
		return "canceled"
	default:
		return "failed"
	}
}

type Result struct {
	ID         string
	Chat       ChatRef
	Status     Status
	StopReason string
	Blocks     []string // в порядке обнаружения юзеров
	Scanned    int      // сообщений просмотрено
	Examined   int      // юзеров проверено
	Err        error
}

func (r Result) Found() int { return len(r.Blocks) }

// crawl: состояние одного обхода.
type crawl struct {
	*Crawler
	res     *Result
	req     Request
	fetcher *gifts.Fetcher
	seen    map[int64]struct{}
	log     *slog.Logger
}

// Crawl обходит историю чата от новых к старым и собирает отчеты по уникальным
// авторам. Result заполнен всегда, в том числе частичный при ошибке.
// Ошибка != nil для StatusAborted/StatusCanceled/StatusFailed.
func (c *Crawler) Crawl(ctx context.Context, req Request) (Result, error) {
	if req.LimitUsers <= 0 {
		req.LimitUsers = c.cfg.LimitUsers
	}

	res := Result{ID: uuid.NewString(), Status: StatusCompleted}
	log := c.log.With(slog.String("crawl_id", res.ID), slog.String("chat", req.Chat))

	det := remote.NewDetector("чат "+req.Chat, c.notifier, log)
	sess := guard(c.sess, det)

	cr := &crawl{
		Crawler: c,
		res:     &res,
		req:     req,
		fetcher: gifts.NewFetcher(sess, c.cfg.GiftPage, log),
		seen:    map[int64]struct{}{},
		log:     log,
	}

	log.Info("crawl start",
		slog.Int("limit_users", req.LimitUsers),
		slog.Int("message_scan_cap", c.cfg.MessageScanCap),
		slog.Any("filters", req.Filters),
	)

	err := cr.run(ctx, sess)
	cr.finish(err)

	log.Info("crawl done",
		slog.String("status", res.Status.String()),
		slog.String("stop_reason", res.StopReason),
		slog.Int("scanned", res.Scanned),
		slog.Int("examined", res.Examined),
		slog.Int("found", res.Found()),
	)
	return res, res.Err
}

func (cr *crawl) run(ctx context.Context, sess Session) error {
	if err := cr.pacer.Wait(ctx); err != nil {
		return err
	}
	chat, err := sess.ResolveChat(ctx, cr.req.Chat)
	if err != nil {
		if kind, _ := remote.Classify(err); kind == remote.KindLockout || kind == remote.KindCanceled {
			return err
		}
		// Мягкий режим: пробуем историю по сырому вводу, сервер сам откажет если что.
		cr.log.Warn("chat resolve failed, falling back to raw input", slog.Any("err", err))
		chat = ChatRef{Raw: cr.req.Chat}
	}
	cr.res.Chat = chat

	offsetID := 0
	for {
		if reason, done := cr.capped(); done {
			cr.res.StopReason = reason
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		msgs, err := cr.history(ctx, sess, chat, offsetID)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			cr.res.StopReason = "history_exhausted"
			return nil
		}

		oldest := 0
		for _, m := range msgs {
			if reason, done := cr.capped(); done {
				cr.res.StopReason = reason
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			cr.res.Scanned++
			if oldest == 0 || m.ID < oldest {
				oldest = m.ID
			}
			if cr.res.Scanned%progressEvery == 0 {
				cr.log.Info("crawl progress",
					slog.Int("scanned", cr.res.Scanned),
					slog.Int("examined", cr.res.Examined),
					slog.Int("found", cr.res.Found()),
				)
			}

			if err := cr.visit(ctx, m); err != nil {
				return err
			}
		}

		if oldest == 0 {
			cr.res.StopReason = "no_message_ids"
			return nil
		}
		if oldest == offsetID {
			cr.res.StopReason = "stuck_offset"
			return nil
		}
		offsetID = oldest
	}
}

func (cr *crawl) capped() (string, bool) {
	if cr.res.Found() >= cr.req.LimitUsers {
		return "limit_reached", true
	}
	if cr.res.Scanned >= cr.cfg.MessageScanCap {
		return "scan_cap", true
	}
	return "", false
}

// visit: одно сообщение. Ошибка только фатальная (блокировка, отмена).
func (cr *crawl) visit(ctx context.Context, m Message) error {
	a := m.Author
	if a == nil {
		return nil
	}
	if _, ok := cr.seen[a.ID]; ok {
		return nil
	}
	cr.seen[a.ID] = struct{}{}
	if a.Bot || a.Deleted {
		return nil
	}

	r, err := cr.lookup(ctx, gifts.FromUser(*a))
	if err != nil {
		return err
	}
	cr.res.Examined++

	switch r.Outcome {
	case gifts.OutcomeOK:
		g := gifts.Apply(r.Gifts, cr.req.Filters)
		if len(g) > 0 {
			cr.res.Blocks = append(cr.res.Blocks, gifts.FormatReport(r.User, g))
		}
		cr.log.Debug("user checked",
			slog.Int64("user_id", a.ID),
			slog.Int("eligible", r.Gifts.Total()),
			slog.Int("matched", len(g)),
			slog.Int("found", cr.res.Found()),
		)
	case gifts.OutcomeHidden:
		cr.log.Debug("user gifts hidden", slog.Int64("user_id", a.ID))
	default:
		cr.log.Error("user check failed, skipping",
			slog.Int64("user_id", a.ID),
			slog.String("outcome", r.Outcome.String()),
			slog.Any("err", r.Err),
		)
	}
	return nil
}

// lookup: Fetch с темпом и одним повтором после FLOOD_WAIT.
// Ошибку возвращает только для блокировки и отмены.
func (cr *crawl) lookup(ctx context.Context, id gifts.Identity) (gifts.Result, error) {
	if err := cr.pacer.Wait(ctx); err != nil {
		return gifts.Result{}, err
	}
	r := cr.fetcher.Fetch(ctx, id)
	if r.Outcome == gifts.OutcomeRetry {
		cr.log.Warn("flood wait on user lookup, retrying once",
			slog.String("user", id.String()),
			slog.Duration("retry_after", r.RetryAfter),
		)
		cr.pacer.Backoff(r.RetryAfter)
		if err := cr.pacer.Wait(ctx); err != nil {
			return gifts.Result{}, err
		}
		r = cr.fetcher.Fetch(ctx, id)
	}

	switch r.Outcome {
	case gifts.OutcomeLockout, gifts.OutcomeCanceled:
		return r, r.Err
	}
	return r, nil
}

func (cr *crawl) history(ctx context.Context, sess Session, chat ChatRef, offsetID int) ([]Message, error) {
	if err := cr.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	msgs, err := sess.History(ctx, chat, offsetID, cr.cfg.HistoryPage)
	if kind, after := remote.Classify(err); err != nil && kind == remote.KindRateLimited {
		cr.log.Warn("flood wait on history, retrying once",
			slog.Int("offset_id", offsetID),
			slog.Duration("retry_after", after),
		)
		cr.pacer.Backoff(after)
		if err := cr.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		msgs, err = sess.History(ctx, chat, offsetID, cr.cfg.HistoryPage)
	}
	if err != nil {
		return nil, fmt.Errorf("history offset=%d: %w", offsetID, err)
	}
	return msgs, nil
}

func (cr *crawl) finish(err error) {
	if err == nil {
		return
	}
	cr.res.Err = err
	kind, _ := remote.Classify(err)
	switch {
	case kind == remote.KindLockout || errors.Is(err, remote.ErrLockout):
		cr.res.Status = StatusAborted
		cr.res.StopReason = "lockout"
	case kind == remote.KindCanceled || errors.Is(err, context.DeadlineExceeded):
		cr.res.Status = StatusCanceled
		cr.res.StopReason = "canceled"
	default:
		cr.res.Status = StatusFailed
		cr.res.StopReason = "chat_error"
	}
}
