package llm

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// PromptLimiter cuts text down to at most maxTokens tokens.
type PromptLimiter func(text string, maxTokens int) string

// runesPerToken approximates the cl100k ratio for English text.
const runesPerToken = 4

// The encoding ships inside the binary so that counting never downloads
// vocabulary files at request time.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenLimiter counts tokens with the cl100k_base encoding. If the encoding
// cannot be loaded the limiter degrades to RuneLimiter.
func TokenLimiter() PromptLimiter {
	var (
		once sync.Once
		enc  *tiktoken.Tiktoken
		err  error
	)
	return func(text string, maxTokens int) string {
		once.Do(func() {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		})
		if err != nil {
			return RuneLimiter(text, maxTokens)
		}
		if maxTokens <= 0 {
			return ""
		}
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= maxTokens {
			return text
		}
		return trimPartialRune(enc.Decode(tokens[:maxTokens]))
	}
}

// trimPartialRune drops the bytes of a rune that a token boundary split in
// half.
func trimPartialRune(s string) string {
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

// RuneLimiter approximates the token budget by rune count.
func RuneLimiter(text string, maxTokens int) string {
	return truncateRunes(text, maxTokens*runesPerToken)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
