package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Notifier доставляет эскалацию админам. Best-effort: ошибки логирует сам.
type Notifier interface {
	NotifyAdmin(ctx context.Context, message string)
}

// Detector ловит блокировку аккаунта-парсера. Живет ровно одну операцию
// (обход чата, проверку юзера, вступление в чат): после первого срабатывания
// остается tripped, повторных эскалаций не шлет.
type Detector struct {
	notifier Notifier
	log      *slog.Logger
	scope    string

	mu      sync.Mutex
	tripped bool
	cause   error
}

func NewDetector(scope string, n Notifier, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{
		notifier: n,
		log:      log.With(slog.String("component", "lockout_detector")),
		scope:    scope,
	}
}

// Check пропускает err через классификатор. На блокировке выставляет tripped
// и один раз эскалирует. Возвращает err, завернутый в *Error (или nil).
func (d *Detector) Check(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	err = Wrap(op, err)
	if !IsLockout(err) {
		return err
	}

	d.mu.Lock()
	first := !d.tripped
	if first {
		d.tripped = true
		d.cause = err
	}
	d.mu.Unlock()

	if first {
		d.log.Error("crawling account locked out",
			slog.String("scope", d.scope),
			slog.String("op", op),
			slog.Any("err", err),
		)
		d.escalate(ctx, op, err)
	}
	return err
}

func (d *Detector) Tripped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tripped
}

func (d *Detector) Cause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cause
}

func (d *Detector) escalate(ctx context.Context, op string, err error) {
	if d.notifier == nil {
		return
	}
	// Уведомление должно уйти даже если операцию уже отменили.
	ctx = context.WithoutCancel(ctx)
	d.notifier.NotifyAdmin(ctx, fmt.Sprintf(
		"Парсер столкнулся с блокировкой (возможно бан или заморозка).\nГде: %s\nВызов: %s\nОшибка: %v",
		d.scope, op, err,
	))
}
