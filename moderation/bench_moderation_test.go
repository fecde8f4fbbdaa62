package moderation

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkModerator_Censor(b *testing.B) {
	words := make([]string, 10_000)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	mod, err := NewModerator(words, '*')
	if err != nil {
		b.Fatal(err)
	}
	chat := strings.Repeat("we should discuss w0rd42 and public transport ", 8)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mod.Censor(chat)
	}
}
