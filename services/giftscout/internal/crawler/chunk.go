package crawler

import "unicode/utf8"

// DefaultChunkLimit: потолок длины одного сообщения Bot API (с запасом).
const DefaultChunkLimit = 4000

// Chunk склеивает блоки, начиная новый кусок, если следующий блок не влезает в
// limit символов. Блок никогда не режется: слишком длинный становится
// отдельным куском больше limit. Пустые блоки пропускаются.
func Chunk(blocks []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}

	var out []string
	cur, curLen := "", 0
	for _, b := range blocks {
		if b == "" {
			continue
		}
		n := utf8.RuneCountInString(b)
		if curLen > 0 && curLen+n > limit {
			out = append(out, cur)
			cur, curLen = "", 0
		}
		cur += b
		curLen += n
	}
	if curLen > 0 {
		out = append(out, cur)
	}
	return out
}
