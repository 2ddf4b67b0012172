package gifts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  RawGift
		want Item
	}{
		{
			name: "upgrade cost makes it eligible",
			raw:  RawGift{Kind: RawRegular, Title: "Easter Pasch", HasUpgradeStars: true},
			want: Item{Name: "Easter Pasch", Upgradable: true},
		},
		{
			name: "can_upgrade flag alone",
			raw:  RawGift{Kind: RawRegular, Title: "Winter", CanUpgrade: true},
			want: Item{Name: "Winter", Upgradable: true},
		},
		{
			name: "limited edition alone",
			raw:  RawGift{Kind: RawRegular, Title: "Limited", HasAvailabilityTotal: true},
			want: Item{Name: "Limited", Upgradable: true},
		},
		{
			name: "regular without signals",
			raw:  RawGift{Kind: RawRegular, Title: "Plain"},
			want: Item{Name: "Plain"},
		},
		{
			name: "unique variant is already upgraded",
			raw:  RawGift{Kind: RawUnique, Title: "Plush Pepe"},
			want: Item{Name: "Plush Pepe", Upgraded: true},
		},
		{
			name: "owner attribution wins over eligibility flags",
			raw:  RawGift{Kind: RawRegular, Title: "Heart", HasUpgradeStars: true, CanUpgrade: true, OwnerName: "Ivan"},
			want: Item{Name: "Heart", Upgradable: true, Upgraded: true},
		},
		{
			name: "name from sticker alt",
			raw: RawGift{Kind: RawRegular, CanUpgrade: true, StickerAttrs: []StickerAttr{
				{Kind: AttrOther, Alt: "ignored"},
				{Kind: AttrSticker, Alt: "🧸"},
			}},
			want: Item{Name: "🧸", Upgradable: true},
		},
		{
			name: "last recognized alt wins",
			raw: RawGift{Kind: RawRegular, StickerAttrs: []StickerAttr{
				{Kind: AttrSticker, Alt: "🎂"},
				{Kind: AttrCustomEmoji, Alt: "🌹"},
				{Kind: AttrCustomEmoji, Alt: "  "},
			}},
			want: Item{Name: "🌹"},
		},
		{
			name: "no name at all",
			raw:  RawGift{Kind: RawRegular, HasUpgradeStars: true},
			want: Item{Name: UnknownName, Upgradable: true},
		},
		{
			name: "unknown variant is never eligible",
			raw:  RawGift{Kind: RawUnknown, Title: "Future", HasUpgradeStars: true, CanUpgrade: true},
			want: Item{Name: UnknownName},
		},
		{
			name: "zero value",
			raw:  RawGift{},
			want: Item{Name: UnknownName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw))
		})
	}
}

func TestReportable_DropsOwnedAndIneligible(t *testing.T) {
	raw := []RawGift{
		{Kind: RawRegular, Title: "A", CanUpgrade: true},
		{Kind: RawRegular, Title: "A", HasUpgradeStars: true},
		{Kind: RawRegular, Title: "B", HasAvailabilityTotal: true, HasOwner: true},
		{Kind: RawUnique, Title: "C", CanUpgrade: true},
		{Kind: RawRegular, Title: "D"},
	}

	items := Reportable(raw)
	assert.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, "A", it.Name)
	}
}

func TestParseIdentity(t *testing.T) {
	assert.Equal(t, Identity{ID: 12345}, ParseIdentity(" 12345 "))
	assert.Equal(t, Identity{Username: "durov"}, ParseIdentity("@durov"))
	assert.Equal(t, Identity{Username: "durov"}, ParseIdentity("https://t.me/durov"))
	assert.Equal(t, Identity{Username: "some_chat"}, ParseIdentity("t.me/some_chat/15"))
	assert.Equal(t, "@durov", ParseIdentity("durov").String())
	assert.Equal(t, "7", FromUser(User{ID: 7}).String())
}
