// pkg/config/blocks.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Logger struct {
	Level   string `mapstructure:"level"`    // debug/info/warn/error
	JSON    bool   `mapstructure:"json"`     // true -> JSON logs
	AppName string `mapstructure:"app_name"` // будет проставлен сервисом (или задан явно)
}

func (l *Logger) Validate() error {
	if l == nil {
		return errors.New("logger config is nil")
	}
	if strings.TrimSpace(l.Level) == "" {
		return errors.New("logger.level is required")
	}
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logger.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	return nil
}

// TelegramBot: бот-интерфейс оператора и канал уведомлений админам.
type TelegramBot struct {
	Token       string        `mapstructure:"token"`        // токен от @BotFather
	Debug       bool          `mapstructure:"debug"`        // подробные логи апдейтов
	PollTimeout time.Duration `mapstructure:"poll_timeout"` // long polling timeout
	SendDelay   time.Duration `mapstructure:"send_delay"`   // пауза между сообщениями одной выдачи
}

func (t *TelegramBot) Validate() error {
	if t == nil {
		return errors.New("telegram_bot config is nil")
	}
	if strings.TrimSpace(t.Token) == "" {
		return errors.New("telegram_bot.token is required")
	}
	if t.PollTimeout <= 0 {
		return errors.New("telegram_bot.poll_timeout must be > 0 (e.g. 30s)")
	}
	if t.SendDelay < 0 {
		return errors.New("telegram_bot.send_delay must be >= 0")
	}
	return nil
}

// - api_id / api_hash выдаются Telegram на https://my.telegram.org (это ключи приложения)
// - session: локальный файл, где сохраняется авторизация (чтобы не логиниться каждый раз)
// - phone: номер для первичной авторизации
// - password: 2FA пароль (если включен)
// - device_*: помогает сделать сессию "похожей на обычный клиент"
type MTProto struct {
	APIID     int    `mapstructure:"api_id"`
	APIHash   string `mapstructure:"api_hash"`
	Phone     string `mapstructure:"phone"`    // +49123...
	Password  string `mapstructure:"password"` // 2FA (если включено)
	Session   string `mapstructure:"session"`  // путь к session file, напр. "data/session.json"
	Device    Device `mapstructure:"device"`
	RateLimit Rate   `mapstructure:"rate_limit"`
}

type Device struct {
	Model      string `mapstructure:"model"`       // "PC Desktop"
	System     string `mapstructure:"system"`      // "Windows 11"
	AppVersion string `mapstructure:"app_version"` // "4.14.9"
	LangCode   string `mapstructure:"lang_code"`   // "en" / "ru"
	SystemLang string `mapstructure:"system_lang"` // "en" / "ru"
}

type Rate struct {
	MinDelay time.Duration `mapstructure:"min_delay"` // пауза между запросами, 500ms
	Burst    int           `mapstructure:"burst"`     // 1..N
}

func (m *MTProto) Validate() error {
	if m == nil {
		return errors.New("mtproto config is nil")
	}
	if m.APIID == 0 {
		return errors.New("mtproto.api_id is required")
	}
	if strings.TrimSpace(m.APIHash) == "" {
		return errors.New("mtproto.api_hash is required")
	}
	if strings.TrimSpace(m.Session) == "" {
		return errors.New("mtproto.session is required (e.g. data/session.json)")
	}

	// Device: всё обязательное, чтобы не было "магии".
	if strings.TrimSpace(m.Device.Model) == "" {
		return errors.New("mtproto.device.model is required")
	}
	if strings.TrimSpace(m.Device.System) == "" {
		return errors.New("mtproto.device.system is required")
	}
	if strings.TrimSpace(m.Device.AppVersion) == "" {
		return errors.New("mtproto.device.app_version is required")
	}
	if strings.TrimSpace(m.Device.LangCode) == "" {
		return errors.New("mtproto.device.lang_code is required")
	}
	if strings.TrimSpace(m.Device.SystemLang) == "" {
		return errors.New("mtproto.device.system_lang is required")
	}

	if m.RateLimit.MinDelay <= 0 {
		return errors.New("mtproto.rate_limit.min_delay must be > 0 (e.g. 500ms)")
	}
	if m.RateLimit.Burst <= 0 {
		return errors.New("mtproto.rate_limit.burst must be > 0")
	}

	return nil
}

// Admins: кто может управлять ботом и получать системные уведомления.
type Admins struct {
	IDs []int64 `mapstructure:"ids"`
}

func (a *Admins) Validate() error {
	if a == nil {
		return errors.New("admins config is nil")
	}
	ids := a.IDs[:0]
	for _, id := range a.IDs {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	a.IDs = ids
	if len(a.IDs) == 0 {
		return errors.New("admins.ids must contain at least 1 id")
	}
	return nil
}

func (a *Admins) Has(id int64) bool {
	for _, v := range a.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Crawl: лимиты обхода истории чата.
type Crawl struct {
	LimitUsers     int           `mapstructure:"limit_users"`      // сколько юзеров с подарками ищем (20)
	MessageScanCap int           `mapstructure:"message_scan_cap"` // сколько сообщений максимум смотрим (3000)
	HistoryPage    int           `mapstructure:"history_page"`     // размер страницы истории (<=100)
	GiftPage       int           `mapstructure:"gift_page"`        // сколько подарков берем у юзера (<=100)
	Pace           time.Duration `mapstructure:"pace"`             // пауза между юзерами (500ms)
	ChunkLimit     int           `mapstructure:"chunk_limit"`      // лимит символов на одно сообщение (4000)
}

func (c *Crawl) Validate() error {
	if c == nil {
		return errors.New("crawl config is nil")
	}
	if c.LimitUsers <= 0 {
		return errors.New("crawl.limit_users must be > 0")
	}
	if c.MessageScanCap <= 0 {
		return errors.New("crawl.message_scan_cap must be > 0")
	}
	if c.HistoryPage <= 0 || c.HistoryPage > 100 {
		return fmt.Errorf("crawl.history_page must be in [1, 100], got %d", c.HistoryPage)
	}
	if c.GiftPage <= 0 || c.GiftPage > 100 {
		return fmt.Errorf("crawl.gift_page must be in [1, 100], got %d", c.GiftPage)
	}
	if c.Pace < 0 {
		return errors.New("crawl.pace must be >= 0")
	}
	if c.ChunkLimit <= 0 {
		return errors.New("crawl.chunk_limit must be > 0")
	}
	return nil
}

type Storage struct {
	DBPath      string        `mapstructure:"db_path"` // data/peers.db
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

func (s *Storage) Validate() error {
	if s == nil {
		return errors.New("storage config is nil")
	}
	if strings.TrimSpace(s.DBPath) == "" {
		return errors.New("storage.db_path is required")
	}
	return nil
}
