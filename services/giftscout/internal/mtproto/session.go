package mtproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/crawler"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/storage"
)

// PeerStore: кэш access_hash между запусками.
type PeerStore interface {
	SavePeers(ctx context.Context, peers []storage.Peer) error
	PeerByID(ctx context.Context, kind storage.PeerKind, id int64) (storage.Peer, bool, error)
	PeerByUsername(ctx context.Context, username string) (storage.Peer, bool, error)
}

// Session: crawler.Session поверх сырого tg API. Сам ничего не повторяет и
// не ждет: темп и повторы у вызывающего.
type Session struct {
	api   *tg.Client
	store PeerStore
	log   *slog.Logger
}

var _ crawler.Session = (*Session)(nil)

func NewSession(api *tg.Client, store PeerStore, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		api:   api,
		store: store,
		log:   log.With(slog.String("component", "mtproto_session")),
	}
}

func (s *Session) ResolveUser(ctx context.Context, id gifts.Identity) (gifts.User, error) {
	switch {
	case id.User != nil:
		u := *id.User
		if u.Resolved() {
			return u, nil
		}
		if p, ok := s.cached(ctx, storage.PeerUser, u.ID); ok && p.AccessHash != 0 {
			u.AccessHash = p.AccessHash
			return u, nil
		}
		return s.userByID(ctx, u.ID, 0)

	case id.ID != 0:
		if p, ok := s.cached(ctx, storage.PeerUser, id.ID); ok && p.AccessHash != 0 {
			return gifts.User{ID: p.ID, AccessHash: p.AccessHash, Username: p.Username}, nil
		}
		return s.userByID(ctx, id.ID, 0)

	case id.Username != "":
		if p, ok := s.cachedName(ctx, id.Username); ok && p.Kind == storage.PeerUser && p.AccessHash != 0 {
			return gifts.User{ID: p.ID, AccessHash: p.AccessHash, Username: p.Username}, nil
		}
		res, err := s.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: id.Username})
		if err != nil {
			return gifts.User{}, fmt.Errorf("resolve @%s: %w", id.Username, err)
		}
		s.remember(ctx, res.Users, res.Chats)

		pu, ok := res.Peer.(*tg.PeerUser)
		if !ok {
			return gifts.User{}, fmt.Errorf("resolve @%s: not a user", id.Username)
		}
		if u, ok := indexUsers(res.Users)[pu.UserID]; ok {
			return userFrom(u), nil
		}
		return gifts.User{}, fmt.Errorf("resolve @%s: user %d missing in response", id.Username, pu.UserID)
	}
	return gifts.User{}, errors.New("resolve user: empty identity")
}

func (s *Session) userByID(ctx context.Context, id, hash int64) (gifts.User, error) {
	users, err := s.api.UsersGetUsers(ctx, []tg.InputUserClass{&tg.InputUser{UserID: id, AccessHash: hash}})
	if err != nil {
		return gifts.User{}, fmt.Errorf("users.getUsers %d: %w", id, err)
	}
	s.remember(ctx, users, nil)
	if u, ok := indexUsers(users)[id]; ok {
		return userFrom(u), nil
	}
	return gifts.User{}, fmt.Errorf("users.getUsers %d: not found", id)
}

func (s *Session) SavedGifts(ctx context.Context, u gifts.User, limit int) ([]gifts.RawGift, error) {
	res, err := s.api.PaymentsGetSavedStarGifts(ctx, &tg.PaymentsGetSavedStarGiftsRequest{
		Peer:   &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash},
		Offset: "",
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("saved gifts %d: %w", u.ID, err)
	}
	if res == nil {
		return nil, gifts.ErrNoGiftList
	}
	s.remember(ctx, res.Users, res.Chats)

	out := make([]gifts.RawGift, 0, len(res.Gifts))
	for _, sg := range res.Gifts {
		if sg.Gift == nil {
			continue
		}
		out = append(out, rawGift(sg))
	}
	return out, nil
}

func (s *Session) ResolveChat(ctx context.Context, ref string) (crawler.ChatRef, error) {
	ref = strings.TrimSpace(ref)
	if kind, id, ok := parseChatID(ref); ok {
		c, err := s.chatByID(ctx, kind, id)
		c.Raw = ref
		return c, err
	}

	name := gifts.NormalizeUsername(ref)
	if name == "" {
		return crawler.ChatRef{}, fmt.Errorf("resolve chat %q: empty username", ref)
	}
	if p, ok := s.cachedName(ctx, name); ok && (p.Kind != storage.PeerChannel || p.AccessHash != 0) {
		c := peerFromStore(p)
		c.Raw = ref
		return c, nil
	}

	res, err := s.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: name})
	if err != nil {
		return crawler.ChatRef{}, fmt.Errorf("resolve @%s: %w", name, err)
	}
	s.remember(ctx, res.Users, res.Chats)

	var want int64
	switch p := res.Peer.(type) {
	case *tg.PeerChannel:
		want = p.ChannelID
	case *tg.PeerChat:
		want = p.ChatID
	case *tg.PeerUser:
		u, ok := indexUsers(res.Users)[p.UserID]
		if !ok {
			return crawler.ChatRef{}, fmt.Errorf("resolve @%s: user %d missing in response", name, p.UserID)
		}
		return crawler.ChatRef{Raw: ref, Kind: crawler.ChatPrivate, ID: u.ID, AccessHash: u.AccessHash, Title: u.Username}, nil
	}
	for _, cc := range res.Chats {
		if c, ok := chatRef(cc); ok && c.ID == want {
			c.Raw = ref
			return c, nil
		}
	}
	return crawler.ChatRef{}, fmt.Errorf("resolve @%s: chat not found", name)
}

// chatByID: сначала кэш, потом список чатов аккаунта.
func (s *Session) chatByID(ctx context.Context, kind crawler.ChatKind, id int64) (crawler.ChatRef, error) {
	switch kind {
	case crawler.ChatBasic:
		return crawler.ChatRef{Kind: crawler.ChatBasic, ID: id}, nil
	case crawler.ChatChannel:
		if p, ok := s.cached(ctx, storage.PeerChannel, id); ok && p.AccessHash != 0 {
			return peerFromStore(p), nil
		}
	default:
		for _, k := range []storage.PeerKind{storage.PeerChannel, storage.PeerChat, storage.PeerUser} {
			if p, ok := s.cached(ctx, k, id); ok {
				return peerFromStore(p), nil
			}
		}
	}

	res, err := s.api.MessagesGetAllChats(ctx, nil)
	if err != nil {
		return crawler.ChatRef{}, fmt.Errorf("messages.getAllChats: %w", err)
	}
	var chats []tg.ChatClass
	switch v := res.(type) {
	case *tg.MessagesChats:
		chats = v.Chats
	case *tg.MessagesChatsSlice:
		chats = v.Chats
	}
	s.remember(ctx, nil, chats)

	for _, cc := range chats {
		c, ok := chatRef(cc)
		if !ok || c.ID != id {
			continue
		}
		if kind == crawler.ChatUnknown || kind == c.Kind {
			return c, nil
		}
	}
	return crawler.ChatRef{}, fmt.Errorf("chat %d: not found among account chats", id)
}

func (s *Session) History(ctx context.Context, chat crawler.ChatRef, offsetID, limit int) ([]crawler.Message, error) {
	peer, ok := inputPeer(chat)
	if !ok {
		resolved, err := s.ResolveChat(ctx, chat.Raw)
		if err != nil {
			return nil, fmt.Errorf("history %q: %w", chat.Raw, err)
		}
		if peer, ok = inputPeer(resolved); !ok {
			return nil, fmt.Errorf("history %q: chat is not addressable", chat.Raw)
		}
	}

	res, err := s.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     peer,
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("history(%s, offset=%d): %w", chat, offsetID, err)
	}

	page := extractHistory(res)
	s.remember(ctx, page.users, page.chats)
	return messages(page), nil
}

func (s *Session) JoinChat(ctx context.Context, link string) (crawler.ChatRef, error) {
	if hash, ok := inviteHash(link); ok {
		upd, err := s.api.MessagesImportChatInvite(ctx, hash)
		if err != nil {
			if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
				return crawler.ChatRef{Raw: link}, nil
			}
			return crawler.ChatRef{}, fmt.Errorf("import invite: %w", err)
		}
		chats := chatsOf(upd)
		s.remember(ctx, usersOf(upd), chats)
		for _, cc := range chats {
			if c, ok := chatRef(cc); ok {
				c.Raw = link
				return c, nil
			}
		}
		return crawler.ChatRef{Raw: link}, nil
	}

	chat, err := s.ResolveChat(ctx, link)
	if err != nil {
		return crawler.ChatRef{}, err
	}
	if chat.Kind != crawler.ChatChannel {
		return crawler.ChatRef{}, fmt.Errorf("join %s: only channels and supergroups can be joined by username", link)
	}
	upd, err := s.api.ChannelsJoinChannel(ctx, &tg.InputChannel{ChannelID: chat.ID, AccessHash: chat.AccessHash})
	if err != nil {
		return crawler.ChatRef{}, fmt.Errorf("channels.joinChannel %d: %w", chat.ID, err)
	}
	s.remember(ctx, usersOf(upd), chatsOf(upd))
	return chat, nil
}

func (s *Session) remember(ctx context.Context, users []tg.UserClass, chats []tg.ChatClass) {
	if s.store == nil {
		return
	}
	peers := peersOf(users, chats)
	if len(peers) == 0 {
		return
	}
	if err := s.store.SavePeers(ctx, peers); err != nil {
		s.log.Warn("peer cache save failed", slog.Int("peers", len(peers)), slog.Any("err", err))
	}
}

func (s *Session) cached(ctx context.Context, kind storage.PeerKind, id int64) (storage.Peer, bool) {
	if s.store == nil {
		return storage.Peer{}, false
	}
	p, ok, err := s.store.PeerByID(ctx, kind, id)
	if err != nil {
		s.log.Warn("peer cache lookup failed", slog.String("kind", string(kind)), slog.Int64("id", id), slog.Any("err", err))
		return storage.Peer{}, false
	}
	return p, ok
}

func (s *Session) cachedName(ctx context.Context, username string) (storage.Peer, bool) {
	if s.store == nil {
		return storage.Peer{}, false
	}
	p, ok, err := s.store.PeerByUsername(ctx, username)
	if err != nil {
		s.log.Warn("peer cache lookup failed", slog.String("username", username), slog.Any("err", err))
		return storage.Peer{}, false
	}
	return p, ok
}
