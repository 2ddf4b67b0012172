package gifts

import (
	"fmt"
	"strings"
)

// FormatReport: текстовый блок по одному владельцу.
func FormatReport(u User, g Group) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👤 Владелец: %d", u.ID))
	if u.Username != "" {
		b.WriteString(fmt.Sprintf(" (@%s)", u.Username))
	}
	b.WriteString("\n\n")
	for _, name := range g.Names() {
		b.WriteString(fmt.Sprintf("🎁 Название: %s (x%d)\n", name, g[name]))
	}
	return b.String()
}
