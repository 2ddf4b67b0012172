package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(SQLiteConfig{Path: filepath.Join(t.TempDir(), "sub", "peers.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_SaveAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SavePeers(ctx, []Peer{
		{Kind: PeerUser, ID: 10, AccessHash: 111, Username: "@Alice"},
		{Kind: PeerChannel, ID: 20, AccessHash: 222, Username: "gifts_chat", Title: "Gifts"},
		{Kind: PeerChat, ID: 30, Title: "Old group"},
		{Kind: PeerUser, ID: 0, AccessHash: 1}, // пропускается
	}))

	p, ok, err := s.PeerByID(ctx, PeerUser, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(111), p.AccessHash)
	assert.Equal(t, "alice", p.Username)
	assert.False(t, p.UpdatedAt.IsZero())

	p, ok, err = s.PeerByUsername(ctx, "@GIFTS_CHAT")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, PeerChannel, p.Kind)
	assert.Equal(t, int64(20), p.ID)
	assert.Equal(t, "Gifts", p.Title)

	_, ok, err = s.PeerByID(ctx, PeerChannel, 10)
	require.NoError(t, err)
	assert.False(t, ok, "kind is part of the key")

	_, ok, err = s.PeerByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.PeerByUsername(ctx, " @ ")
	require.Error(t, err)
}

func TestSQLite_UpsertKeepsKnownHash(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SavePeers(ctx, []Peer{{Kind: PeerUser, ID: 10, AccessHash: 111, Username: "alice"}}))
	require.NoError(t, s.SavePeers(ctx, []Peer{{Kind: PeerUser, ID: 10}}))

	p, ok, err := s.PeerByID(ctx, PeerUser, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(111), p.AccessHash)
	assert.Equal(t, "alice", p.Username)

	require.NoError(t, s.SavePeers(ctx, []Peer{{Kind: PeerUser, ID: 10, AccessHash: 999, Username: "alice2"}}))
	p, _, err = s.PeerByID(ctx, PeerUser, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(999), p.AccessHash)
	assert.Equal(t, "alice2", p.Username)
}

func TestSQLite_EmptyBatchAndClose(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SavePeers(context.Background(), nil))
	require.NoError(t, s.Close())

	var nilStore *SQLite
	assert.NoError(t, nilStore.Close())

	_, err := NewSQLite(SQLiteConfig{})
	require.Error(t, err)
}
