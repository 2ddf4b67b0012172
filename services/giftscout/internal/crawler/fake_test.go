package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/gifts"
)

// fakeSession: история в порядке от новых к старым, ID убывают.
type fakeSession struct {
	mu sync.Mutex

	chat       ChatRef
	resolveErr error
	history    []Message
	historyErr []error // по одной на вызов History, nil: успех

	gifts       map[int64][]gifts.RawGift
	giftErrs    map[int64][]error // по одной на вызов SavedGifts
	giftCalls   map[int64]int
	historyRefs []ChatRef
	joinErr     error
}

func newFakeSession(msgs ...Message) *fakeSession {
	return &fakeSession{
		chat:      ChatRef{Raw: "@chat", Kind: ChatChannel, ID: 100, AccessHash: 1},
		history:   msgs,
		gifts:     map[int64][]gifts.RawGift{},
		giftErrs:  map[int64][]error{},
		giftCalls: map[int64]int{},
	}
}

func (f *fakeSession) ResolveUser(_ context.Context, id gifts.Identity) (gifts.User, error) {
	switch {
	case id.User != nil:
		u := *id.User
		u.AccessHash = u.ID * 10
		return u, nil
	case id.ID != 0:
		return gifts.User{ID: id.ID, AccessHash: id.ID * 10}, nil
	case id.Username == "alice":
		return gifts.User{ID: 77, AccessHash: 770, Username: "alice"}, nil
	}
	return gifts.User{}, fmt.Errorf("unknown username %q", id.Username)
}

func (f *fakeSession) SavedGifts(_ context.Context, u gifts.User, _ int) ([]gifts.RawGift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.giftCalls[u.ID]++
	if errs := f.giftErrs[u.ID]; len(errs) > 0 {
		err := errs[0]
		f.giftErrs[u.ID] = errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if g, ok := f.gifts[u.ID]; ok {
		return g, nil
	}
	return []gifts.RawGift{{Kind: gifts.RawRegular, Title: fmt.Sprintf("Gift %d", u.ID), CanUpgrade: true}}, nil
}

func (f *fakeSession) ResolveChat(_ context.Context, ref string) (ChatRef, error) {
	if f.resolveErr != nil {
		return ChatRef{}, f.resolveErr
	}
	c := f.chat
	c.Raw = ref
	return c, nil
}

func (f *fakeSession) History(_ context.Context, chat ChatRef, offsetID, limit int) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyRefs = append(f.historyRefs, chat)
	if len(f.historyErr) > 0 {
		err := f.historyErr[0]
		f.historyErr = f.historyErr[1:]
		if err != nil {
			return nil, err
		}
	}
	var out []Message
	for _, m := range f.history {
		if offsetID != 0 && m.ID >= offsetID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSession) JoinChat(_ context.Context, link string) (ChatRef, error) {
	if f.joinErr != nil {
		return ChatRef{}, f.joinErr
	}
	return ChatRef{Raw: link, Kind: ChatChannel, ID: 555, Title: "joined"}, nil
}

func (f *fakeSession) calls(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.giftCalls[id]
}

type fakePacer struct {
	mu       sync.Mutex
	waits    int
	backoffs []time.Duration
	onWait   func(n int)
}

func (p *fakePacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	n := p.waits
	hook := p.onWait
	p.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (p *fakePacer) Backoff(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backoffs = append(p.backoffs, d)
}

type countingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *countingNotifier) NotifyAdmin(_ context.Context, m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, m)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

// msgsFrom строит историю: authors[i]: автор сообщения с ID = len-i (новые первыми).
// author 0: сообщение без автора.
func msgsFrom(authors ...int64) []Message {
	out := make([]Message, 0, len(authors))
	for i, a := range authors {
		m := Message{ID: len(authors) - i}
		if a != 0 {
			m.Author = &gifts.User{ID: a}
		}
		out = append(out, m)
	}
	return out
}

var errBoom = errors.New("boom")
