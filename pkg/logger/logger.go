// pkg/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/faringet/telegram-gift-scraper/pkg/config"
)

const defaultApp = "giftscout"

// NewLogger создает slog.Logger на основе общего блока config.Logger и пишет в stdout.
func NewLogger(c config.Logger) *slog.Logger {
	return New(os.Stdout, c)
}

// New: то же самое, но с явным writer (удобно в тестах).
func New(w io.Writer, c config.Logger) *slog.Logger {
	lvl := parseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: normalizeCoreAttrs,
	}

	var h slog.Handler
	if c.JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	host, _ := os.Hostname()
	env := firstNonEmpty(os.Getenv("APP_ENV"), os.Getenv("ENV"), "dev")

	app := strings.TrimSpace(c.AppName)
	if app == "" {
		app = defaultApp
	}

	return slog.New(h).With(
		slog.String("app", app),
		slog.String("env", env),
		slog.String("host", host),
		slog.Int("pid", os.Getpid()),
		slog.String("goos", runtime.GOOS),
	)
}

func normalizeCoreAttrs(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		if lv, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToLower(lv.String()))
		}
	}
	return a
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Discard: логгер-заглушка для тестов и опциональных зависимостей.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
