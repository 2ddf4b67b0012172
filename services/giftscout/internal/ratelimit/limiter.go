package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter: темп запросов к Telegram: token bucket плюс пауза после FLOOD_WAIT.
type Limiter struct {
	limiter *rate.Limiter

	mu             sync.Mutex
	floodWaitUntil time.Time
}

// New: один запрос раз в every, burst: сколько можно подряд без паузы.
// every <= 0: без ограничения (остается только FLOOD_WAIT).
func New(every time.Duration, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	lim := rate.Inf
	if every > 0 {
		lim = rate.Every(every)
	}
	return &Limiter{limiter: rate.NewLimiter(lim, burst)}
}

// Wait блокируется до следующего разрешенного запроса.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	until := l.floodWaitUntil
	l.mu.Unlock()

	if d := time.Until(until); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}

	return l.limiter.Wait(ctx)
}

// Backoff: сервер попросил подождать d. Более короткое ожидание не сокращает уже выставленное.
func (l *Limiter) Backoff(d time.Duration) {
	if d <= 0 {
		return
	}
	until := time.Now().Add(d)

	l.mu.Lock()
	defer l.mu.Unlock()
	if until.After(l.floodWaitUntil) {
		l.floodWaitUntil = until
	}
}
