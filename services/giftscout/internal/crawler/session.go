package crawler

import (
	"context"
	"strconv"
	"time"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/remote"
)

type ChatKind int

const (
	ChatUnknown ChatKind = iota // не смогли разрешить, работаем с тем, что ввели
	ChatChannel                 // канал или супергруппа
	ChatBasic                   // обычная группа
	ChatPrivate                 // диалог с юзером
)

// ChatRef: адрес чата для истории. Без Kind/AccessHash адаптер попробует
// использовать Raw как есть.
type ChatRef struct {
	Raw        string
	Kind       ChatKind
	ID         int64
	AccessHash int64
	Title      string
}

func (c ChatRef) String() string {
	if c.ID != 0 {
		return strconv.FormatInt(c.ID, 10)
	}
	return c.Raw
}

// Message: сообщение истории. Author == nil: от имени канала/анонимного админа
// или сервисное без автора.
type Message struct {
	ID     int
	Author *gifts.User
}

// Session: все, что ядро берет у MTProto-клиента.
type Session interface {
	gifts.Source
	ResolveChat(ctx context.Context, ref string) (ChatRef, error)
	History(ctx context.Context, chat ChatRef, offsetID, limit int) ([]Message, error)
	JoinChat(ctx context.Context, link string) (ChatRef, error)
}

// Pacer: дисциплина темпа между удаленными вызовами.
type Pacer interface {
	Wait(ctx context.Context) error
	Backoff(d time.Duration)
}

// guarded пропускает каждый удаленный вызов через Detector.
type guarded struct {
	sess Session
	det  *remote.Detector
}

func guard(s Session, d *remote.Detector) Session {
	return guarded{sess: s, det: d}
}

func (g guarded) ResolveUser(ctx context.Context, id gifts.Identity) (gifts.User, error) {
	u, err := g.sess.ResolveUser(ctx, id)
	return u, g.det.Check(ctx, "resolve user "+id.String(), err)
}

func (g guarded) SavedGifts(ctx context.Context, u gifts.User, limit int) ([]gifts.RawGift, error) {
	raw, err := g.sess.SavedGifts(ctx, u, limit)
	return raw, g.det.Check(ctx, "payments.getSavedStarGifts "+strconv.FormatInt(u.ID, 10), err)
}

func (g guarded) ResolveChat(ctx context.Context, ref string) (ChatRef, error) {
	c, err := g.sess.ResolveChat(ctx, ref)
	return c, g.det.Check(ctx, "resolve chat "+ref, err)
}

func (g guarded) History(ctx context.Context, chat ChatRef, offsetID, limit int) ([]Message, error) {
	msgs, err := g.sess.History(ctx, chat, offsetID, limit)
	return msgs, g.det.Check(ctx, "messages.getHistory "+chat.String()+" offset="+strconv.Itoa(offsetID), err)
}

func (g guarded) JoinChat(ctx context.Context, link string) (ChatRef, error) {
	c, err := g.sess.JoinChat(ctx, link)
	return c, g.det.Check(ctx, "join "+link, err)
}
