// Package orchestrator runs one chat exchange: score, summarize, respond and
// log. Only the logging step can fail, and its failures never reach the
// caller.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RichardoC/elias/internal/metrics"
	"github.com/RichardoC/elias/internal/models"
	"github.com/RichardoC/elias/internal/persona"
	"github.com/RichardoC/elias/internal/scorer"
)

// persistTimeout bounds the log append, which runs detached from the
// caller's cancellation.
const persistTimeout = 5 * time.Second

type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type Responder interface {
	Respond(ctx context.Context, personaName, message string) string
}

// ConversationLog persists exchanges. Errors are reported, never retried.
type ConversationLog interface {
	Append(ctx context.Context, rec *models.ConversationRecord) (int64, error)
}

type Orchestrator struct {
	personas   *persona.Registry
	score      scorer.Func
	summarizer Summarizer
	responder  Responder
	log        ConversationLog
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithScorer replaces the placeholder importance heuristic.
func WithScorer(f scorer.Func) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.score = f
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(personas *persona.Registry, summarizer Summarizer, responder Responder, log ConversationLog, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		personas:   personas,
		score:      scorer.Score,
		summarizer: summarizer,
		responder:  responder,
		log:        log,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage never fails because of providers or storage. The only error
// it returns is a context that was already done on entry.
func (o *Orchestrator) HandleMessage(ctx context.Context, message, personaName string) (models.ChatResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ChatResult{}, fmt.Errorf("failed to handle message: %w", err)
	}
	metrics.RecordChatRequest()

	if personaName == "" {
		personaName = models.DefaultPersona
	}
	p := o.personas.Resolve(personaName)
	if p.Name != personaName {
		o.logger.Info("unknown persona, using default",
			zap.String("requested", personaName),
			zap.String("persona", p.Name))
	}

	importance := scorer.Clamp(o.score(message))
	summary := o.summarizer.Summarize(ctx, message)
	assistant := o.responder.Respond(ctx, p.Name, message)

	rec := &models.ConversationRecord{
		RequestID:       uuid.NewString(),
		Persona:         p.Name,
		UserInput:       message,
		AssistantOutput: assistant,
		ImportanceScore: importance,
		Summary:         summary,
		Timestamp:       o.now(),
	}
	o.persist(ctx, rec)

	return models.ChatResult{
		Assistant:  assistant,
		Importance: importance,
		Summary:    summary,
		Persona:    p.Name,
	}, nil
}

func (o *Orchestrator) persist(ctx context.Context, rec *models.ConversationRecord) {
	if o.log == nil {
		return
	}
	// The reply is already built; a client that hangs up now must not lose
	// the record.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	id, err := o.log.Append(ctx, rec)
	if err != nil {
		metrics.RecordStorageFailure()
		o.logger.Error("failed to log conversation",
			zap.String("request_id", rec.RequestID),
			zap.String("persona", rec.Persona),
			zap.Error(err))
		return
	}
	o.logger.Debug("conversation logged",
		zap.Int64("id", id),
		zap.String("request_id", rec.RequestID))
}
