package gifts

import "strings"

// Classify никогда не падает: неизвестный вариант или пустые поля дают
// "не подходит" и UnknownName.
//
// Признак "можно улучшить": любой из трех: цена улучшения, флаг can_upgrade,
// лимитированный тираж. Схема сервера официально не описана, поэтому ИЛИ.
func Classify(g RawGift) Item {
	it := Item{Name: giftName(g)}

	switch g.Kind {
	case RawRegular:
		it.Upgradable = g.HasUpgradeStars || g.CanUpgrade || g.HasAvailabilityTotal
	case RawUnique:
		it.Upgraded = true
	default:
		return Item{Name: UnknownName}
	}

	// Атрибуция владельца = уникальный вариант, флаги не важны.
	if g.HasOwner || g.OwnerName != "" {
		it.Upgraded = true
	}
	return it
}

func giftName(g RawGift) string {
	if t := strings.TrimSpace(g.Title); t != "" {
		return t
	}
	name := ""
	for _, a := range g.StickerAttrs {
		if a.Kind != AttrSticker && a.Kind != AttrCustomEmoji {
			continue
		}
		if alt := strings.TrimSpace(a.Alt); alt != "" {
			name = alt
		}
	}
	if name == "" {
		return UnknownName
	}
	return name
}

// Reportable прогоняет классификатор и оставляет только подходящие подарки.
func Reportable(raw []RawGift) []Item {
	out := make([]Item, 0, len(raw))
	for _, g := range raw {
		if it := Classify(g); it.Reportable() {
			out = append(out, it)
		}
	}
	return out
}
