package bot

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		got := Chunk("hello", 10)
		if len(got) != 1 || got[0] != "hello" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("non-positive limit disables splitting", func(t *testing.T) {
		got := Chunk(strings.Repeat("a", 50), 0)
		if len(got) != 1 {
			t.Fatalf("got %d chunks", len(got))
		}
	})

	t.Run("prefers newline in second half", func(t *testing.T) {
		text := strings.Repeat("x", 7) + "\n" + strings.Repeat("y", 5)
		got := Chunk(text, 10)
		if len(got) != 2 {
			t.Fatalf("got %q", got)
		}
		if got[0] != strings.Repeat("x", 7)+"\n" {
			t.Errorf("first chunk = %q", got[0])
		}
	})

	t.Run("ignores newline in first half", func(t *testing.T) {
		text := "ab\n" + strings.Repeat("z", 12)
		got := Chunk(text, 10)
		if utf8.RuneCountInString(got[0]) != 10 {
			t.Errorf("first chunk = %q", got[0])
		}
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		text := strings.Repeat("ṛ", 2100)
		got := Chunk(text, 2000)
		if len(got) != 2 {
			t.Fatalf("got %d chunks", len(got))
		}
		for i, c := range got {
			if n := utf8.RuneCountInString(c); n > 2000 {
				t.Errorf("chunk %d has %d characters", i, n)
			}
			if !utf8.ValidString(c) {
				t.Errorf("chunk %d is not valid UTF-8", i)
			}
		}
		if strings.Join(got, "") != text {
			t.Error("chunks do not reassemble")
		}
	})
}
