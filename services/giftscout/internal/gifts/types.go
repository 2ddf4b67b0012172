// Package gifts decides which star gifts of a user are worth reporting:
// still upgradable to a unique (NFT) variant, not yet upgraded, optionally
// matching the operator's name filters.
package gifts

import (
	"strconv"
	"strings"
)

// UnknownName: имя подарка, если ни title, ни alt стикера не нашлись.
const UnknownName = "Неизвестный подарок"

// DefaultPageSize: сколько подарков берем за один запрос (дальше не листаем).
const DefaultPageSize = 100

// User: автор сообщения или цель проверки. AccessHash != 0 означает, что
// юзера можно адресовать без отдельного resolve.
type User struct {
	ID         int64
	AccessHash int64
	Username   string
	Bot        bool
	Deleted    bool
}

func (u User) Resolved() bool { return u.ID != 0 && u.AccessHash != 0 }

// Identity: то, что ввел оператор или что пришло из истории: id, username
// или уже готовый User. Заполнено ровно одно поле.
type Identity struct {
	ID       int64
	Username string
	User     *User
}

// ParseIdentity принимает "123", "@name", "name", "t.me/name".
func ParseIdentity(s string) Identity {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Identity{ID: id}
	}
	return Identity{Username: NormalizeUsername(s)}
}

func FromUser(u User) Identity { return Identity{User: &u} }

func (i Identity) String() string {
	switch {
	case i.User != nil:
		return strconv.FormatInt(i.User.ID, 10)
	case i.Username != "":
		return "@" + i.Username
	default:
		return strconv.FormatInt(i.ID, 10)
	}
}

func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "telegram.me/")
	s = strings.TrimPrefix(s, "@")
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	return s
}

// RawKind: вариант подарка в ответе payments.getSavedStarGifts.
type RawKind int

const (
	RawUnknown RawKind = iota // будущие/неизвестные конструкторы
	RawRegular                // starGift
	RawUnique                 // starGiftUnique (уже NFT)
)

// AttrKind: тип атрибута документа-стикера, из которого можно взять alt.
type AttrKind int

const (
	AttrOther AttrKind = iota
	AttrSticker
	AttrCustomEmoji
)

type StickerAttr struct {
	Kind AttrKind
	Alt  string
}

// RawGift: одна запись инвентаря в том виде, в каком ее отдал сервер,
// без догадок о смысле полей. Has* отражают наличие опциональных полей.
type RawGift struct {
	Kind RawKind

	Title        string
	StickerAttrs []StickerAttr

	HasUpgradeStars      bool // у подарка есть цена улучшения
	CanUpgrade           bool // флаг can_upgrade на сохраненном подарке
	HasAvailabilityTotal bool // лимитированный тираж

	OwnerName string // атрибуция владельца (только у уникальных)
	HasOwner  bool
}

// Item: результат классификации.
type Item struct {
	Name       string
	Upgradable bool
	Upgraded   bool
}

// Reportable: можно улучшить и еще не улучшен.
func (it Item) Reportable() bool { return it.Upgradable && !it.Upgraded }

// Group: имя подарка -> количество.
type Group map[string]int
