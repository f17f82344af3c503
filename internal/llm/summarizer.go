package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/RichardoC/elias/internal/metrics"
	"go.uber.org/zap"
)

const (
	// SimulatedSummaryMarker prefixes every locally generated summary.
	SimulatedSummaryMarker = "[SIMULATED SUMMARY]"

	summaryService       = "summarizer"
	summaryPreviewRunes  = 100
	summaryMaxTokens     = 150
	summaryTemperature   = 0.3
	defaultTimeout       = 30 * time.Second
	defaultMaxPromptToks = 2048
	summarySystemPrompt  = "You are an AI assistant that summarizes texts concisely and clearly. " +
		"Extract the most important information and present it in a short form, keeping the main context."
)

type options struct {
	timeout         time.Duration
	maxPromptTokens int
	limit           PromptLimiter
}

type Option func(*options)

// WithTimeout bounds every single provider call. Expiry counts as a provider
// failure.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithMaxPromptTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPromptTokens = n
		}
	}
}

func WithPromptLimiter(l PromptLimiter) Option {
	return func(o *options) {
		if l != nil {
			o.limit = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		timeout:         defaultTimeout,
		maxPromptTokens: defaultMaxPromptToks,
		limit:           TokenLimiter(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Summarizer struct {
	chain  Chain
	logger *zap.Logger
	opts   options
}

func NewSummarizer(chain Chain, logger *zap.Logger, opts ...Option) *Summarizer {
	return &Summarizer{chain: chain, logger: logger, opts: buildOptions(opts)}
}

// Summarize never fails: provider errors move on to the next provider and
// the last resort is a local templated summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if s.chain.Configured() {
		prompt := s.opts.limit(text, s.opts.maxPromptTokens)
		summary, provider, err := s.chain.generate(ctx, summaryService, s.opts.timeout, s.logger, Request{
			SystemPrompt: summarySystemPrompt,
			UserMessage:  "Please summarize the following text:\n\n" + prompt,
			MaxTokens:    summaryMaxTokens,
			Temperature:  summaryTemperature,
		})
		if err == nil {
			s.logger.Info("summary generated", zap.String("provider", provider))
			return summary
		}
	}

	s.logger.Info("using local summary fallback", zap.String("text", truncateRunes(text, 50)))
	metrics.RecordFallback(summaryService)
	return LocalSummary(text)
}

// LocalSummary is the deterministic offline summary.
func LocalSummary(text string) string {
	return fmt.Sprintf("%s Summary of the text: '%s...' (the rest was omitted because the assistant is in offline mode or no API key is configured).",
		SimulatedSummaryMarker, truncateRunes(text, summaryPreviewRunes))
}
