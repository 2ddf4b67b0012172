package gifts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupItems(t *testing.T) {
	g := GroupItems([]Item{{Name: "A"}, {Name: "A"}, {Name: "B"}})
	assert.Equal(t, Group{"A": 2, "B": 1}, g)
	assert.Equal(t, 3, g.Total())
	assert.Equal(t, []string{"A", "B"}, g.Names())

	assert.Empty(t, GroupItems(nil))
}

func TestApply(t *testing.T) {
	group := Group{"Easter Pasch": 3, "Winter": 1}

	t.Run("empty filter set is identity", func(t *testing.T) {
		assert.Equal(t, group, Apply(group, nil))
		assert.Equal(t, group, Apply(group, []string{" ", ""}))
	})

	t.Run("substring case-insensitive", func(t *testing.T) {
		assert.Equal(t, Group{"Easter Pasch": 3}, Apply(group, []string{"pasch"}))
		assert.Equal(t, Group{"Easter Pasch": 3, "Winter": 1}, Apply(group, []string{"PASCH", "wint"}))
	})

	t.Run("no match is empty, not error", func(t *testing.T) {
		out := Apply(group, []string{"spring"})
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("cyrillic", func(t *testing.T) {
		out := Apply(Group{"Пасхальный кулич": 1, "Роза": 2}, []string{"пасхальный"})
		assert.Equal(t, Group{"Пасхальный кулич": 1}, out)
	})
}

func TestFilterSet(t *testing.T) {
	fs := NewFilterSet("Пасх", "", "Пасх")
	assert.Equal(t, []string{"Пасх"}, fs.Snapshot())

	assert.True(t, fs.Add("Winter"))
	assert.False(t, fs.Add("Winter"))
	assert.Equal(t, 2, fs.Len())

	snap := fs.Snapshot()
	snap[0] = "mutated"
	assert.Equal(t, "Пасх", fs.Snapshot()[0], "snapshot must be a copy")

	fs.Clear()
	assert.Equal(t, 0, fs.Len())
	assert.Empty(t, fs.Snapshot())
}

func TestFormatReport(t *testing.T) {
	txt := FormatReport(User{ID: 42, Username: "alice"}, Group{"Winter": 1, "Easter": 2})
	assert.Equal(t,
		"👤 Владелец: 42 (@alice)\n\n🎁 Название: Easter (x2)\n🎁 Название: Winter (x1)\n",
		txt,
	)

	assert.Equal(t, "👤 Владелец: 7\n\n", FormatReport(User{ID: 7}, Group{}))
}
