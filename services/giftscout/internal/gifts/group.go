package gifts

import "sort"

// GroupItems считает подарки по имени.
func GroupItems(items []Item) Group {
	g := make(Group, len(items))
	for _, it := range items {
		g[it.Name]++
	}
	return g
}

// Names: имена в стабильном порядке, чтобы отчет не прыгал между запусками.
func (g Group) Names() []string {
	names := make([]string, 0, len(g))
	for n := range g {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g Group) Total() int {
	n := 0
	for _, c := range g {
		n += c
	}
	return n
}
