package mtproto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faringet/telegram-gift-scraper/pkg/logger"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/crawler"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/storage"
)

// Сессия без api: все, что ниже, должно обслуживаться из кэша.
func newCachedSession(t *testing.T, peers ...storage.Peer) *Session {
	t.Helper()
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: t.TempDir() + "/peers.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.SavePeers(context.Background(), peers))
	return NewSession(nil, st, logger.Discard())
}

func TestSession_ResolveUserFromCache(t *testing.T) {
	s := newCachedSession(t,
		storage.Peer{Kind: storage.PeerUser, ID: 10, AccessHash: 111, Username: "alice"},
	)
	ctx := context.Background()

	u, err := s.ResolveUser(ctx, gifts.ParseIdentity("@Alice"))
	require.NoError(t, err)
	assert.Equal(t, gifts.User{ID: 10, AccessHash: 111, Username: "alice"}, u)

	u, err = s.ResolveUser(ctx, gifts.ParseIdentity("10"))
	require.NoError(t, err)
	assert.True(t, u.Resolved())

	u, err = s.ResolveUser(ctx, gifts.FromUser(gifts.User{ID: 10, Bot: true}))
	require.NoError(t, err)
	assert.Equal(t, int64(111), u.AccessHash)
	assert.True(t, u.Bot, "flags of the cached user are kept")

	already := gifts.User{ID: 99, AccessHash: 9}
	u, err = s.ResolveUser(ctx, gifts.FromUser(already))
	require.NoError(t, err)
	assert.Equal(t, already, u)

	_, err = s.ResolveUser(ctx, gifts.Identity{})
	require.Error(t, err)
}

func TestSession_ResolveChatFromCache(t *testing.T) {
	s := newCachedSession(t,
		storage.Peer{Kind: storage.PeerChannel, ID: 5, AccessHash: 55, Username: "gifts_chat", Title: "Gifts"},
	)
	ctx := context.Background()

	c, err := s.ResolveChat(ctx, "https://t.me/gifts_chat")
	require.NoError(t, err)
	assert.Equal(t, crawler.ChatChannel, c.Kind)
	assert.Equal(t, int64(55), c.AccessHash)
	assert.Equal(t, "https://t.me/gifts_chat", c.Raw)

	c, err = s.ResolveChat(ctx, "-1005")
	require.NoError(t, err)
	assert.Equal(t, crawler.ChatChannel, c.Kind)
	assert.Equal(t, int64(5), c.ID)

	c, err = s.ResolveChat(ctx, "-4242")
	require.NoError(t, err)
	assert.Equal(t, crawler.ChatRef{Raw: "-4242", Kind: crawler.ChatBasic, ID: 4242}, c)

	_, err = s.ResolveChat(ctx, "   ")
	require.Error(t, err)
}

func TestSession_JoinByUsernameRequiresChannel(t *testing.T) {
	s := newCachedSession(t,
		storage.Peer{Kind: storage.PeerUser, ID: 10, AccessHash: 111, Username: "alice"},
	)
	_, err := s.JoinChat(context.Background(), "@alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only channels")
}
