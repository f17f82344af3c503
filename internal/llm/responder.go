package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/RichardoC/elias/internal/metrics"
	"github.com/RichardoC/elias/internal/persona"
	"go.uber.org/zap"
)

const (
	SimulatedResponseMarker = "[SIMULATED RESPONSE]"
	ErrorResponseMarker     = "[ERROR]"

	responseService      = "responder"
	responsePreviewRunes = 400
	responseTemperature  = 0.7
)

type Responder struct {
	chain    Chain
	personas *persona.Registry
	logger   *zap.Logger
	timeout  time.Duration
}

type ResponderOption func(*Responder)

// WithResponseTimeout bounds every single provider call made for a reply.
func WithResponseTimeout(d time.Duration) ResponderOption {
	return func(r *Responder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewResponder(chain Chain, personas *persona.Registry, logger *zap.Logger, opts ...ResponderOption) *Responder {
	r := &Responder{chain: chain, personas: personas, logger: logger, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond always returns text. Without providers it simulates an answer; if
// every provider fails the caller gets a visible error message instead.
func (r *Responder) Respond(ctx context.Context, personaName, message string) string {
	p := r.personas.Resolve(personaName)

	if !r.chain.Configured() {
		metrics.RecordFallback(responseService)
		return SimulatedResponse(p.Name, message)
	}

	reply, provider, err := r.chain.generate(ctx, responseService, r.timeout, r.logger, Request{
		SystemPrompt: p.SystemPrompt,
		UserMessage:  message,
		MaxTokens:    p.Config.MaxTokens,
		Temperature:  responseTemperature,
	})
	if err != nil {
		r.logger.Error("all providers failed to respond",
			zap.String("persona", p.Name),
			zap.Error(err))
		metrics.RecordFallback(responseService)
		return ErrorResponse(err)
	}

	r.logger.Info("response generated",
		zap.String("persona", p.Name),
		zap.String("provider", provider))
	return reply
}

func SimulatedResponse(personaName, message string) string {
	return fmt.Sprintf("%s (persona: %s) %s", SimulatedResponseMarker, personaName, truncateRunes(message, responsePreviewRunes))
}

func ErrorResponse(err error) string {
	return fmt.Sprintf("%s The assistant could not generate a response: %v", ErrorResponseMarker, err)
}
