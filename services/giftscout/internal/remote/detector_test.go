package remote

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faringet/telegram-gift-scraper/pkg/logger"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) NotifyAdmin(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, message)
}

func TestDetector_EscalatesOnce(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDetector("chat @test", n, logger.Discard())
	ctx := context.Background()

	require.NoError(t, d.Check(ctx, "noop", nil))
	assert.False(t, d.Tripped())

	err := d.Check(ctx, "users.getUsers", errors.New("timeout"))
	require.Error(t, err)
	assert.False(t, d.Tripped())
	assert.Empty(t, n.msgs)

	err = d.Check(ctx, "payments.getSavedStarGifts", tgerr.New(403, "FORBIDDEN"))
	assert.ErrorIs(t, err, ErrLockout)
	assert.True(t, d.Tripped())

	_ = d.Check(ctx, "messages.getHistory", tgerr.New(401, "SESSION_REVOKED"))

	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "payments.getSavedStarGifts")
	assert.Contains(t, n.msgs[0], "chat @test")
	assert.ErrorContains(t, d.Cause(), "FORBIDDEN")
}

func TestDetector_NotifiesAfterCancel(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDetector("user 1", n, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = d.Check(ctx, "contacts.resolveUsername", tgerr.New(401, "USER_DEACTIVATED_BAN"))
	assert.Len(t, n.msgs, 1)
}

func TestDetector_NilNotifier(t *testing.T) {
	d := NewDetector("x", nil, nil)
	err := d.Check(context.Background(), "op", tgerr.New(403, "FORBIDDEN"))
	assert.ErrorIs(t, err, ErrLockout)
	assert.True(t, d.Tripped())
}
