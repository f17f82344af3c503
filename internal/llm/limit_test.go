package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}

func TestRuneLimiter(t *testing.T) {
	assert.Equal(t, "abcdefgh", RuneLimiter("abcdefghij", 2))
	assert.Equal(t, "short", RuneLimiter("short", 100))
}

func TestTrimPartialRune(t *testing.T) {
	emoji := "🙂"
	assert.Equal(t, "ab", trimPartialRune("ab"+emoji[:2]))
	assert.Equal(t, "ab"+emoji, trimPartialRune("ab"+emoji))
	assert.Equal(t, "", trimPartialRune(emoji[:3]))
	assert.Equal(t, "日本", trimPartialRune("日本"+"語"[:1]))
}

func TestTokenLimiter(t *testing.T) {
	limit := TokenLimiter()

	assert.Equal(t, "short", limit("short", 100))
	assert.Equal(t, "", limit("anything", 0))

	long := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	cut := limit(long, 10)
	assert.True(t, strings.HasPrefix(long, cut))
	assert.Less(t, len(cut), len(long))
}

func TestTokenLimiter_MultiByteStaysValid(t *testing.T) {
	limit := TokenLimiter()
	inputs := []string{
		strings.Repeat("日本語のテキストを要約してください。", 40),
		strings.Repeat("🙂🚀🎉👩‍💻 ", 60),
		strings.Repeat("Grüße aus Köln — ça va? 🙂 ", 40),
	}
	for _, input := range inputs {
		for _, budget := range []int{1, 2, 3, 7, 31} {
			cut := limit(input, budget)
			require.True(t, utf8.ValidString(cut), "budget %d: %q", budget, cut)
			assert.True(t, strings.HasPrefix(input, cut), "budget %d", budget)
			assert.Less(t, len(cut), len(input), "budget %d", budget)
		}
	}
}
