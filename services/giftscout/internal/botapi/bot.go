package botapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/crawler"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/remote"
)

// Crawler: операции ядра, которые дергает оператор.
type Crawler interface {
	Crawl(ctx context.Context, req crawler.Request) (crawler.Result, error)
	UserReport(ctx context.Context, id gifts.Identity, filters []string) (string, bool, error)
	Join(ctx context.Context, link string) (crawler.ChatRef, error)
}

type Config struct {
	Admins     []int64
	LimitUsers int
	ChunkLimit int
	SendDelay  time.Duration
}

type state int

const (
	stateIdle state = iota
	stateAwaitChat
	stateAwaitUser
	stateAwaitJoin
	stateAwaitFilter
)

// session: состояние диалога с одним админом. Фильтры живут здесь,
// в задачу уходит снимок.
type session struct {
	mu      sync.Mutex
	state   state
	filters *gifts.FilterSet
	cancel  context.CancelFunc // != nil, пока идет задача
}

type Bot struct {
	cfg     Config
	msg     Messenger
	crawler Crawler
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
	jobs     sync.WaitGroup
}

func NewBot(cfg Config, msg Messenger, c Crawler, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ChunkLimit <= 0 {
		cfg.ChunkLimit = crawler.DefaultChunkLimit
	}
	return &Bot{
		cfg:      cfg,
		msg:      msg,
		crawler:  c,
		log:      log.With(slog.String("component", "bot")),
		sessions: map[int64]*session{},
	}
}

// Run обрабатывает апдейты до закрытия канала или отмены ctx и ждет
// завершения запущенных задач.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.log.Info("bot started", slog.Int("admins", len(b.cfg.Admins)))
	defer b.Wait()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("shutdown", slog.Any("err", ctx.Err()))
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.Handle(ctx, u)
		}
	}
}

// Wait: дождаться фоновых задач.
func (b *Bot) Wait() { b.jobs.Wait() }

func (b *Bot) Handle(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) isAdmin(id int64) bool {
	for _, a := range b.cfg.Admins {
		if a == id {
			return true
		}
	}
	return false
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{filters: gifts.NewFilterSet()}
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	chatID := m.Chat.ID
	if !b.isAdmin(m.From.ID) {
		if m.IsCommand() && m.Command() == "start" {
			b.send(ctx, chatID, textNoAccess, nil)
		}
		b.log.Warn("message from non-admin ignored", slog.Int64("user_id", m.From.ID))
		return
	}

	s := b.session(chatID)
	if m.IsCommand() {
		b.command(ctx, s, chatID, m.Command(), strings.TrimSpace(m.CommandArguments()))
		return
	}

	text := strings.TrimSpace(m.Text)
	s.mu.Lock()
	st := s.state
	s.state = stateIdle
	s.mu.Unlock()

	switch st {
	case stateAwaitChat:
		b.startChat(ctx, s, chatID, text)
	case stateAwaitUser:
		b.startUser(ctx, s, chatID, text)
	case stateAwaitJoin:
		b.startJoin(ctx, s, chatID, text)
	case stateAwaitFilter:
		b.addFilter(ctx, s, chatID, text)
	default:
		b.send(ctx, chatID, textMenu, mainMenu())
	}
}

func (b *Bot) command(ctx context.Context, s *session, chatID int64, cmd, args string) {
	b.log.Info("command", slog.Int64("chat_id", chatID), slog.String("cmd", cmd), slog.String("args", args))

	switch cmd {
	case "start":
		b.setState(s, stateIdle)
		b.send(ctx, chatID, textWelcome, mainMenu())
	case "menu":
		b.setState(s, stateIdle)
		b.send(ctx, chatID, "Меню:", mainMenu())
	case "chat":
		if args == "" {
			b.prompt(ctx, s, chatID, stateAwaitChat, promptChat)
			return
		}
		b.startChat(ctx, s, chatID, args)
	case "user":
		if args == "" {
			b.prompt(ctx, s, chatID, stateAwaitUser, promptUser)
			return
		}
		b.startUser(ctx, s, chatID, args)
	case "join":
		if args == "" {
			b.prompt(ctx, s, chatID, stateAwaitJoin, promptJoin)
			return
		}
		b.startJoin(ctx, s, chatID, args)
	case "filter":
		if args == "" {
			b.prompt(ctx, s, chatID, stateAwaitFilter, promptFilter)
			return
		}
		b.addFilter(ctx, s, chatID, args)
	case "filters":
		b.send(ctx, chatID, filtersText(s.filters.Snapshot()), mainMenu())
	case "clear_filters":
		s.filters.Clear()
		b.send(ctx, chatID, textFiltersGone, mainMenu())
	case "cancel":
		b.cancel(ctx, s, chatID)
	default:
		b.send(ctx, chatID, textUnknownCmd, nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		return
	}
	if !b.isAdmin(q.From.ID) {
		return
	}
	if err := b.msg.AnswerCallback(ctx, q.ID, ""); err != nil {
		b.log.Warn("answer callback failed", slog.Any("err", err))
	}

	chatID, msgID := q.Message.Chat.ID, q.Message.MessageID
	s := b.session(chatID)

	switch q.Data {
	case cbParseChat:
		b.setState(s, stateAwaitChat)
		b.edit(ctx, chatID, msgID, promptChat, cancelMenu())
	case cbParseUser:
		b.setState(s, stateAwaitUser)
		b.edit(ctx, chatID, msgID, promptUser, cancelMenu())
	case cbJoinChat:
		b.setState(s, stateAwaitJoin)
		b.edit(ctx, chatID, msgID, promptJoin, cancelMenu())
	case cbAddFilter:
		b.setState(s, stateAwaitFilter)
		b.edit(ctx, chatID, msgID, promptFilter, cancelMenu())
	case cbListFilters:
		b.edit(ctx, chatID, msgID, filtersText(s.filters.Snapshot()), mainMenu())
	case cbClearFilters:
		s.filters.Clear()
		b.edit(ctx, chatID, msgID, textFiltersGone, mainMenu())
	case cbCancel:
		b.setState(s, stateIdle)
		b.edit(ctx, chatID, msgID, textCanceled, mainMenu())
	default:
		b.log.Warn("unknown callback", slog.String("data", q.Data))
	}
}

func (b *Bot) setState(s *session, st state) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (b *Bot) prompt(ctx context.Context, s *session, chatID int64, st state, text string) {
	b.setState(s, st)
	b.send(ctx, chatID, text, cancelMenu())
}

func (b *Bot) addFilter(ctx context.Context, s *session, chatID int64, name string) {
	if !s.filters.Add(name) {
		b.send(ctx, chatID, filtersText(s.filters.Snapshot()), mainMenu())
		return
	}
	b.send(ctx, chatID, filterAdded(strings.TrimSpace(name), s.filters.Snapshot()), mainMenu())
}

func (b *Bot) cancel(ctx context.Context, s *session, chatID int64) {
	s.mu.Lock()
	cancel := s.cancel
	s.state = stateIdle
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		b.send(ctx, chatID, textStopping, nil)
		return
	}
	b.send(ctx, chatID, textCanceled, mainMenu())
}

// start запускает задачу в фоне. Одна задача на сессию; отмена: /cancel.
func (b *Bot) start(ctx context.Context, s *session, chatID int64, name string, job func(jobCtx context.Context)) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		b.send(ctx, chatID, textBusy, nil)
		return
	}
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		defer func() {
			s.mu.Lock()
			s.cancel = nil
			s.mu.Unlock()
			cancel()
		}()

		start := time.Now()
		job(jobCtx)
		b.log.Info("job done",
			slog.String("job", name),
			slog.Int64("chat_id", chatID),
			slog.Duration("duration", time.Since(start)),
		)
	}()
}

func (b *Bot) startUser(ctx context.Context, s *session, chatID int64, arg string) {
	if arg == "" {
		b.send(ctx, chatID, promptUser, cancelMenu())
		b.setState(s, stateAwaitUser)
		return
	}
	id := gifts.ParseIdentity(arg)
	filters := s.filters.Snapshot()

	b.start(ctx, s, chatID, "user", func(jobCtx context.Context) {
		msgID := b.send(ctx, chatID, fmt.Sprintf("⏳ Собираю подарки пользователя %s...", id), nil)

		report, ok, err := b.crawler.UserReport(jobCtx, id, filters)
		var text string
		switch {
		case err != nil && errors.Is(err, remote.ErrLockout):
			text = fmt.Sprintf("❌ Критическая ошибка доступа или бан парсера!\n%v", err)
		case err != nil:
			text = fmt.Sprintf("❌ Ошибка парсинга: %v", err)
		case !ok:
			text = textNoUserGifts
		default:
			text = userResult(report)
		}
		b.replace(ctx, chatID, msgID, text)
		b.send(ctx, chatID, textMenu, mainMenu())
	})
}

func (b *Bot) startJoin(ctx context.Context, s *session, chatID int64, link string) {
	if link == "" {
		b.send(ctx, chatID, promptJoin, cancelMenu())
		b.setState(s, stateAwaitJoin)
		return
	}

	b.start(ctx, s, chatID, "join", func(jobCtx context.Context) {
		msgID := b.send(ctx, chatID, "⏳ Пытаюсь вступить в чат...", nil)

		var text string
		chat, err := b.crawler.Join(jobCtx, link)
		switch {
		case err != nil && errors.Is(err, remote.ErrLockout):
			text = fmt.Sprintf("❌ Критическая ошибка доступа или бан парсера!\n%v", err)
		case err != nil:
			text = fmt.Sprintf("❌ Ошибка: %v", err)
		case chat.Title != "":
			text = fmt.Sprintf("✅ Парсер успешно вступил в %s (%s)!", link, chat.Title)
		default:
			text = fmt.Sprintf("✅ Парсер успешно вступил в %s!", link)
		}
		b.replace(ctx, chatID, msgID, text)
		b.send(ctx, chatID, textMenu, mainMenu())
	})
}

// parseChatArgs: "<чат> [лимит]".
func parseChatArgs(args string) (chat string, limit int, err error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 0:
		return "", 0, errors.New("chat is required")
	case 1:
		return fields[0], 0, nil
	case 2:
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return "", 0, fmt.Errorf("limit must be a positive number, got %q", fields[1])
		}
		return fields[0], n, nil
	default:
		return "", 0, errors.New("too many arguments")
	}
}

func (b *Bot) startChat(ctx context.Context, s *session, chatID int64, args string) {
	chat, limit, err := parseChatArgs(args)
	if err != nil {
		b.send(ctx, chatID, "❌ Формат: /chat <@username|id> [лимит]", nil)
		return
	}
	if limit == 0 {
		limit = b.cfg.LimitUsers
	}
	req := crawler.Request{Chat: chat, LimitUsers: limit, Filters: s.filters.Snapshot()}

	b.start(ctx, s, chatID, "chat", func(jobCtx context.Context) {
		msgID := b.send(ctx, chatID, fmt.Sprintf("⏳ Начинаю парсинг чата %s...\nЭто займет некоторое время.", chat), nil)

		// Ошибка уже в res.Status/res.Err, частичная выдача все равно уходит.
		res, _ := b.crawler.Crawl(jobCtx, req)

		if res.Found() == 0 && res.Status == crawler.StatusCompleted {
			b.replace(ctx, chatID, msgID, textNoChatUsers)
			b.send(ctx, chatID, textMenu, mainMenu())
			return
		}

		if msgID != 0 {
			if err := b.msg.Delete(ctx, chatID, msgID); err != nil {
				b.log.Warn("delete progress message failed", slog.Any("err", err))
			}
		}
		for i, chunk := range crawler.Chunk(crawlBlocks(res.Blocks), b.cfg.ChunkLimit) {
			if i > 0 {
				if err := SleepCtx(ctx, b.cfg.SendDelay); err != nil {
					return
				}
			}
			b.send(ctx, chatID, chunk, nil)
		}
		b.send(ctx, chatID, crawlSummary(res), nil)
		b.send(ctx, chatID, textMenu, mainMenu())
	})
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) int {
	id, err := b.msg.Send(ctx, chatID, text, kb)
	if err != nil {
		b.log.Error("send failed", slog.Int64("chat_id", chatID), slog.Any("err", err))
		return 0
	}
	return id
}

func (b *Bot) edit(ctx context.Context, chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if err := b.msg.Edit(ctx, chatID, msgID, text, kb); err != nil {
		b.log.Error("edit failed", slog.Int64("chat_id", chatID), slog.Int("message_id", msgID), slog.Any("err", err))
	}
}

// replace правит сообщение-прогресс, а если его нет: шлет новое.
func (b *Bot) replace(ctx context.Context, chatID int64, msgID int, text string) {
	if msgID == 0 {
		b.send(ctx, chatID, text, nil)
		return
	}
	b.edit(ctx, chatID, msgID, text, nil)
}
