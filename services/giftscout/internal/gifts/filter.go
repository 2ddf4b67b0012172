package gifts

import (
	"strings"
	"sync"
)

// Apply оставляет подарки, в имени которых (без учета регистра) есть хотя бы
// одна подстрока из filters. Пустой filters: вернуть group как есть.
func Apply(group Group, filters []string) Group {
	needles := normalizeFilters(filters)
	if len(needles) == 0 {
		return group
	}

	out := Group{}
	for name, count := range group {
		if matchesAny(name, needles) {
			out[name] = count
		}
	}
	return out
}

func matchesAny(name string, needles []string) bool {
	s := strings.ToLower(name)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func normalizeFilters(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FilterSet: список фильтров одного оператора. Живет в его сессии бота,
// в обход уходит копия через Snapshot.
type FilterSet struct {
	mu    sync.RWMutex
	items []string
}

func NewFilterSet(items ...string) *FilterSet {
	fs := &FilterSet{}
	for _, it := range items {
		fs.Add(it)
	}
	return fs
}

// Add добавляет фильтр. Пустые строки и точные дубли игнорируются.
func (fs *FilterSet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, it := range fs.items {
		if it == name {
			return false
		}
	}
	fs.items = append(fs.items, name)
	return true
}

func (fs *FilterSet) Clear() {
	fs.mu.Lock()
	fs.items = nil
	fs.mu.Unlock()
}

func (fs *FilterSet) Snapshot() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, len(fs.items))
	copy(out, fs.items)
	return out
}

func (fs *FilterSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.items)
}
