package botapi

import (
	"context"
	"log/slog"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/remote"
)

const escalationPrefix = "🚨 СИСТЕМНОЕ УВЕДОМЛЕНИЕ\n\n"

// AdminNotifier рассылает эскалацию всем админам. Ошибки доставки только логируются.
type AdminNotifier struct {
	msg    Messenger
	admins []int64
	log    *slog.Logger
}

var _ remote.Notifier = (*AdminNotifier)(nil)

func NewAdminNotifier(msg Messenger, admins []int64, log *slog.Logger) *AdminNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &AdminNotifier{
		msg:    msg,
		admins: admins,
		log:    log.With(slog.String("component", "admin_notifier")),
	}
}

func (n *AdminNotifier) NotifyAdmin(ctx context.Context, message string) {
	sent := 0
	for _, id := range n.admins {
		if _, err := n.msg.Send(ctx, id, escalationPrefix+message, nil); err != nil {
			n.log.Error("admin notify failed", slog.Int64("admin_id", id), slog.Any("err", err))
			continue
		}
		sent++
	}
	n.log.Warn("admins notified", slog.Int("sent", sent), slog.Int("admins", len(n.admins)))
}
