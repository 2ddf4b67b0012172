package mtproto

import (
	"strconv"
	"strings"

	"github.com/gotd/td/tg"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/crawler"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/storage"
)

// rawGift переводит сохраненный подарок в RawGift. Ничего не решает сам,
// только переносит наличие полей.
func rawGift(sg tg.SavedStarGift) gifts.RawGift {
	switch g := sg.Gift.(type) {
	case *tg.StarGift:
		_, hasUpgrade := g.GetUpgradeStars()
		_, hasTotal := g.GetAvailabilityTotal()
		return gifts.RawGift{
			Kind:                 gifts.RawRegular,
			Title:                g.Title,
			StickerAttrs:         stickerAttrs(g.Sticker),
			HasUpgradeStars:      hasUpgrade,
			CanUpgrade:           sg.CanUpgrade,
			HasAvailabilityTotal: hasTotal,
		}
	case *tg.StarGiftUnique:
		ownerName, hasName := g.GetOwnerName()
		_, hasOwnerID := g.GetOwnerID()
		return gifts.RawGift{
			Kind:       gifts.RawUnique,
			Title:      g.Title,
			CanUpgrade: sg.CanUpgrade,
			OwnerName:  ownerName,
			HasOwner:   hasName || hasOwnerID,
		}
	default:
		return gifts.RawGift{Kind: gifts.RawUnknown}
	}
}

func stickerAttrs(doc tg.DocumentClass) []gifts.StickerAttr {
	d, ok := doc.(*tg.Document)
	if !ok {
		return nil
	}
	out := make([]gifts.StickerAttr, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		switch v := a.(type) {
		case *tg.DocumentAttributeSticker:
			out = append(out, gifts.StickerAttr{Kind: gifts.AttrSticker, Alt: v.Alt})
		case *tg.DocumentAttributeCustomEmoji:
			out = append(out, gifts.StickerAttr{Kind: gifts.AttrCustomEmoji, Alt: v.Alt})
		default:
			out = append(out, gifts.StickerAttr{Kind: gifts.AttrOther})
		}
	}
	return out
}

// userFrom: hash у min-объекта для обращения не годится, такой юзер
// потом разрешается заново.
func userFrom(u *tg.User) gifts.User {
	out := gifts.User{
		ID:       u.ID,
		Username: u.Username,
		Bot:      u.Bot,
		Deleted:  u.Deleted,
	}
	if !u.Min {
		out.AccessHash = u.AccessHash
	}
	return out
}

func indexUsers(users []tg.UserClass) map[int64]*tg.User {
	out := make(map[int64]*tg.User, len(users))
	for _, uc := range users {
		if u, ok := uc.(*tg.User); ok {
			out[u.ID] = u
		}
	}
	return out
}

// peersOf собирает все, что стоит запомнить: access_hash нужен для обращения
// по числовому id. min-объекты без полноценного hash тоже пишем, хранилище
// не затирает им уже известный.
func peersOf(users []tg.UserClass, chats []tg.ChatClass) []storage.Peer {
	out := make([]storage.Peer, 0, len(users)+len(chats))
	for _, uc := range users {
		u, ok := uc.(*tg.User)
		if !ok {
			continue
		}
		p := storage.Peer{Kind: storage.PeerUser, ID: u.ID, Username: u.Username}
		if !u.Min {
			p.AccessHash = u.AccessHash
		}
		out = append(out, p)
	}
	for _, cc := range chats {
		if ref, ok := chatRef(cc); ok {
			p := storage.Peer{ID: ref.ID, Title: ref.Title, Username: ref.Raw}
			switch ref.Kind {
			case crawler.ChatChannel:
				p.Kind = storage.PeerChannel
				p.AccessHash = ref.AccessHash
			case crawler.ChatBasic:
				p.Kind = storage.PeerChat
			default:
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// chatRef: адрес чата из объекта ответа. Raw заполняется username, если есть.
func chatRef(cc tg.ChatClass) (crawler.ChatRef, bool) {
	switch c := cc.(type) {
	case *tg.Channel:
		ref := crawler.ChatRef{Raw: c.Username, Kind: crawler.ChatChannel, ID: c.ID, Title: c.Title}
		if !c.Min {
			ref.AccessHash = c.AccessHash
		}
		return ref, true
	case *tg.ChannelForbidden:
		return crawler.ChatRef{Kind: crawler.ChatChannel, ID: c.ID, AccessHash: c.AccessHash, Title: c.Title}, true
	case *tg.Chat:
		return crawler.ChatRef{Kind: crawler.ChatBasic, ID: c.ID, Title: c.Title}, true
	case *tg.ChatForbidden:
		return crawler.ChatRef{Kind: crawler.ChatBasic, ID: c.ID, Title: c.Title}, true
	default:
		return crawler.ChatRef{}, false
	}
}

func peerFromStore(p storage.Peer) crawler.ChatRef {
	ref := crawler.ChatRef{Raw: p.Username, ID: p.ID, AccessHash: p.AccessHash, Title: p.Title}
	switch p.Kind {
	case storage.PeerChannel:
		ref.Kind = crawler.ChatChannel
	case storage.PeerChat:
		ref.Kind = crawler.ChatBasic
	case storage.PeerUser:
		ref.Kind = crawler.ChatPrivate
	}
	return ref
}

func inputPeer(c crawler.ChatRef) (tg.InputPeerClass, bool) {
	switch c.Kind {
	case crawler.ChatChannel:
		return &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash}, true
	case crawler.ChatBasic:
		return &tg.InputPeerChat{ChatID: c.ID}, true
	case crawler.ChatPrivate:
		return &tg.InputPeerUser{UserID: c.ID, AccessHash: c.AccessHash}, true
	default:
		return nil, false
	}
}

type historyPage struct {
	msgs  []tg.MessageClass
	users []tg.UserClass
	chats []tg.ChatClass
}

func extractHistory(res tg.MessagesMessagesClass) historyPage {
	switch v := res.(type) {
	case *tg.MessagesMessages:
		return historyPage{msgs: v.Messages, users: v.Users, chats: v.Chats}
	case *tg.MessagesMessagesSlice:
		return historyPage{msgs: v.Messages, users: v.Users, chats: v.Chats}
	case *tg.MessagesChannelMessages:
		return historyPage{msgs: v.Messages, users: v.Users, chats: v.Chats}
	default:
		return historyPage{}
	}
}

// messages: сообщения страницы с авторами. Автор есть только у сообщений от
// имени юзера; от имени канала или анонимного админа: nil.
func messages(p historyPage) []crawler.Message {
	users := indexUsers(p.users)
	out := make([]crawler.Message, 0, len(p.msgs))
	for _, mc := range p.msgs {
		var (
			id   int
			from tg.PeerClass
			peer tg.PeerClass
		)
		switch m := mc.(type) {
		case *tg.Message:
			id, from, peer = m.ID, m.FromID, m.PeerID
		case *tg.MessageService:
			id, from, peer = m.ID, m.FromID, m.PeerID
		case *tg.MessageEmpty:
			out = append(out, crawler.Message{ID: m.ID})
			continue
		default:
			continue
		}
		if from == nil {
			// В личке from_id не приходит, автор: собеседник.
			from = peer
		}

		msg := crawler.Message{ID: id}
		if pu, ok := from.(*tg.PeerUser); ok {
			if u, ok := users[pu.UserID]; ok {
				au := userFrom(u)
				msg.Author = &au
			} else {
				msg.Author = &gifts.User{ID: pu.UserID}
			}
		}
		out = append(out, msg)
	}
	return out
}

func chatsOf(u tg.UpdatesClass) []tg.ChatClass {
	switch v := u.(type) {
	case *tg.Updates:
		return v.Chats
	case *tg.UpdatesCombined:
		return v.Chats
	default:
		return nil
	}
}

func usersOf(u tg.UpdatesClass) []tg.UserClass {
	switch v := u.(type) {
	case *tg.Updates:
		return v.Users
	case *tg.UpdatesCombined:
		return v.Users
	default:
		return nil
	}
}

// parseChatID разбирает числовой id в формате Bot API:
// -100<id>: канал/супергруппа, -<id>: обычная группа, <id>: неизвестно.
func parseChatID(s string) (crawler.ChatKind, int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return crawler.ChatUnknown, 0, false
	}
	if n > 0 {
		return crawler.ChatUnknown, n, true
	}
	abs := strconv.FormatInt(-n, 10)
	if strings.HasPrefix(abs, "100") && len(abs) > 3 {
		id, err := strconv.ParseInt(abs[3:], 10, 64)
		if err == nil && id > 0 {
			return crawler.ChatChannel, id, true
		}
	}
	return crawler.ChatBasic, -n, true
}

// inviteHash достает hash из t.me/+HASH и t.me/joinchat/HASH.
func inviteHash(link string) (string, bool) {
	s := strings.TrimSpace(link)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	for _, host := range []string{"t.me/", "telegram.me/"} {
		s = strings.TrimPrefix(s, host)
	}
	var hash string
	switch {
	case strings.HasPrefix(s, "+"):
		hash = s[1:]
	case strings.HasPrefix(s, "joinchat/"):
		hash = strings.TrimPrefix(s, "joinchat/")
	default:
		return "", false
	}
	if i := strings.IndexAny(hash, "/?"); i >= 0 {
		hash = hash[:i]
	}
	return hash, hash != ""
}
