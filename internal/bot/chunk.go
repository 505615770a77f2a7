package bot

import (
	"strings"
	"unicode/utf8"
)

// Chunk breaks text into pieces of at most maxLen characters so replies fit a
// platform's message limit. A cut prefers the last newline in the second half
// of a piece.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			chunks = append(chunks, string(runes))
			break
		}

		cutAt := maxLen
		window := string(runes[:maxLen])
		if idx := strings.LastIndex(window, "\n"); idx >= 0 {
			if n := utf8.RuneCountInString(window[:idx]); n > maxLen/2 {
				cutAt = n + 1
			}
		}
		chunks = append(chunks, string(runes[:cutAt]))
		runes = runes[cutAt:]
	}
	return chunks
}
