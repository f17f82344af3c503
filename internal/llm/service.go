package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/RichardoC/elias/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrEmptyResponse is reported when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// Request is what the summarizer and responder send to a provider.
type Request struct {
	SystemPrompt string
	UserMessage  string
	MaxTokens    int
	Temperature  float64
}

// Provider generates text. Failures are reported as *ProviderError.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderError covers auth, network, rate limit and malformed responses.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// LangChainProvider adapts a langchaingo model to Provider.
type LangChainProvider struct {
	name  string
	model llms.Model
	// Some backends reject system messages; the prompt is then prepended to
	// the user turn.
	inlineSystemPrompt bool
}

func NewLangChainProvider(name string, model llms.Model, inlineSystemPrompt bool) *LangChainProvider {
	return &LangChainProvider{name: name, model: model, inlineSystemPrompt: inlineSystemPrompt}
}

func (p *LangChainProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	user := req.UserMessage
	if req.SystemPrompt != "" {
		if p.inlineSystemPrompt {
			user = req.SystemPrompt + "\n\n" + user
		} else {
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.SystemPrompt))
		}
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, user))

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := p.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.name, Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Content, nil
}

// Slots holds one slot per supported provider, built once at startup.
type Slots struct {
	OpenAI Slot
	Gemini Slot
}

// SummaryChain is the summarizer's preference order.
func (s Slots) SummaryChain() Chain {
	return Chain{s.Gemini, s.OpenAI}
}

// ResponseChain is the responder's preference order.
func (s Slots) ResponseChain() Chain {
	return Chain{s.OpenAI, s.Gemini}
}

// NewSlots builds a client for every provider that has a credential.
// Providers without one are left unconfigured.
func NewSlots(ctx context.Context, cfg *config.Config) (Slots, error) {
	slots := Slots{
		OpenAI: Unconfigured(ProviderOpenAI),
		Gemini: Unconfigured(ProviderGemini),
	}

	if cfg.OpenAI.Enabled() {
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAI.APIKey),
			openai.WithModel(cfg.OpenAI.Model),
		}
		if cfg.OpenAI.APIBase != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.APIBase))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return Slots{}, fmt.Errorf("failed to initialize OpenAI: %w", err)
		}
		slots.OpenAI = Configured(ProviderOpenAI, NewLangChainProvider(ProviderOpenAI, model, false))
	}

	if cfg.Gemini.Enabled() {
		model, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.Gemini.APIKey),
			googleai.WithDefaultModel(cfg.Gemini.Model),
		)
		if err != nil {
			return Slots{}, fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		slots.Gemini = Configured(ProviderGemini, NewLangChainProvider(ProviderGemini, model, true))
	}

	return slots, nil
}
