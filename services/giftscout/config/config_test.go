package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcfg "github.com/faringet/telegram-gift-scraper/pkg/config"
)

func validConfig() GiftScout {
	return GiftScout{
		MTProto: pcfg.MTProto{
			APIID:   1,
			APIHash: "hash",
			Device: pcfg.Device{
				Model: "PC", System: "Linux", AppVersion: "1.0", LangCode: "ru", SystemLang: "ru",
			},
		},
		TelegramBot: pcfg.TelegramBot{Token: "123:abc"},
		Admins:      pcfg.Admins{IDs: []int64{42}},
	}
}

func TestValidate_Defaults(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, "giftscout", c.AppName)
	assert.Equal(t, "giftscout", c.Logger.AppName)
	assert.Equal(t, "info", c.Logger.Level)
	assert.Equal(t, "data/session.json", c.MTProto.Session)
	assert.Equal(t, 500*time.Millisecond, c.Crawl.Pace)
	assert.Equal(t, 20, c.Crawl.LimitUsers)
	assert.Equal(t, 3000, c.Crawl.MessageScanCap)
	assert.Equal(t, 4000, c.Crawl.ChunkLimit)
	assert.Equal(t, "data/peers.db", c.Storage.DBPath)
	assert.Equal(t, 30*time.Second, c.TelegramBot.PollTimeout)
}

func TestValidate_PaceFollowsRateLimit(t *testing.T) {
	c := validConfig()
	c.MTProto.RateLimit.MinDelay = 2 * time.Second
	require.NoError(t, c.Validate())
	assert.Equal(t, 2*time.Second, c.Crawl.Pace)
}

func TestValidate_Errors(t *testing.T) {
	c := validConfig()
	c.Admins.IDs = nil
	assert.ErrorContains(t, c.Validate(), "admins")

	c = validConfig()
	c.TelegramBot.Token = ""
	assert.ErrorContains(t, c.Validate(), "telegram_bot")

	c = validConfig()
	c.Crawl.HistoryPage = 500
	assert.ErrorContains(t, c.Validate(), "crawl")
}
