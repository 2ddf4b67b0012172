package config

import (
	"fmt"
	"time"

	pcfg "github.com/faringet/telegram-gift-scraper/pkg/config"
)

type GiftScout struct {
	AppName string      `mapstructure:"app_name"`
	Env     string      `mapstructure:"env"`
	Logger  pcfg.Logger `mapstructure:"logger"`

	MTProto     pcfg.MTProto     `mapstructure:"mtproto"`
	TelegramBot pcfg.TelegramBot `mapstructure:"telegram_bot"`
	Admins      pcfg.Admins      `mapstructure:"admins"`
	Crawl       pcfg.Crawl       `mapstructure:"crawl"`
	Storage     pcfg.Storage     `mapstructure:"storage"`
}

func (c *GiftScout) Validate() error {
	c.ApplyDefaults()

	if c.AppName == "" {
		c.AppName = "giftscout"
	}
	if c.Env == "" {
		c.Env = "dev"
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	c.Logger.AppName = c.AppName
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	if err := c.MTProto.Validate(); err != nil {
		return fmt.Errorf("mtproto: %w", err)
	}
	if err := c.TelegramBot.Validate(); err != nil {
		return fmt.Errorf("telegram_bot: %w", err)
	}
	if err := c.Admins.Validate(); err != nil {
		return fmt.Errorf("admins: %w", err)
	}
	if err := c.Crawl.Validate(); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	return nil
}

// ApplyDefaults заполняет то, что можно не писать в конфиге.
func (c *GiftScout) ApplyDefaults() {
	if c.MTProto.Session == "" {
		c.MTProto.Session = "data/session.json"
	}
	if c.MTProto.RateLimit.MinDelay <= 0 {
		c.MTProto.RateLimit.MinDelay = 500 * time.Millisecond
	}
	if c.MTProto.RateLimit.Burst <= 0 {
		c.MTProto.RateLimit.Burst = 1
	}

	if c.TelegramBot.PollTimeout <= 0 {
		c.TelegramBot.PollTimeout = 30 * time.Second
	}
	if c.TelegramBot.SendDelay == 0 {
		c.TelegramBot.SendDelay = 200 * time.Millisecond
	}

	if c.Crawl.LimitUsers <= 0 {
		c.Crawl.LimitUsers = 20
	}
	if c.Crawl.MessageScanCap <= 0 {
		c.Crawl.MessageScanCap = 3000
	}
	if c.Crawl.HistoryPage <= 0 {
		c.Crawl.HistoryPage = 100
	}
	if c.Crawl.GiftPage <= 0 {
		c.Crawl.GiftPage = 100
	}
	if c.Crawl.Pace <= 0 {
		c.Crawl.Pace = c.MTProto.RateLimit.MinDelay
	}
	if c.Crawl.ChunkLimit <= 0 {
		c.Crawl.ChunkLimit = 4000
	}

	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "data/peers.db"
	}
	if c.Storage.BusyTimeout <= 0 {
		c.Storage.BusyTimeout = 5 * time.Second
	}
}

func New() *GiftScout {
	c, err := Load()
	if err != nil {
		panic(fmt.Errorf("invalid giftscout config: %w", err))
	}
	return c
}

func Load() (*GiftScout, error) {
	c, err := pcfg.Load[GiftScout](pcfg.Options{
		Paths: []string{
			"./services/giftscout/config",
			"./config",
			"./configs",
		},
		Names:         []string{"config", "giftscout", "config.local"},
		Type:          "yaml",
		EnvPrefix:     "GIFTSCOUT",
		OptionalFiles: true,
		DotEnv:        []string{".env"},
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
