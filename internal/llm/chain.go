package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RichardoC/elias/internal/metrics"
	"go.uber.org/zap"
)

// ErrNoProvider means every slot in a chain is unconfigured.
var ErrNoProvider = errors.New("no provider configured")

// Slot is either configured with a client or deliberately empty.
type Slot struct {
	name     string
	provider Provider
}

func Configured(name string, p Provider) Slot {
	return Slot{name: name, provider: p}
}

func Unconfigured(name string) Slot {
	return Slot{name: name}
}

func (s Slot) Name() string { return s.name }

func (s Slot) Configured() bool { return s.provider != nil }

// Chain is an ordered list of slots; earlier slots are preferred.
type Chain []Slot

func (c Chain) Configured() bool {
	for _, s := range c {
		if s.Configured() {
			return true
		}
	}
	return false
}

// generate sends req to each configured slot in order, once, and returns the
// first non-empty trimmed answer with the name of the slot that produced it.
// It returns ErrNoProvider when nothing is configured, otherwise the last
// *ProviderError.
func (c Chain) generate(ctx context.Context, service string, timeout time.Duration, logger *zap.Logger, req Request) (string, string, error) {
	var lastErr error
	for _, slot := range c {
		if !slot.Configured() {
			logger.Debug("provider not configured, skipping",
				zap.String("service", service),
				zap.String("provider", slot.name))
			continue
		}

		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		text, err := slot.provider.Generate(callCtx, req)
		cancel()
		elapsed := time.Since(start).Seconds()

		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				err = ErrEmptyResponse
			}
		}
		if err != nil {
			var perr *ProviderError
			if !errors.As(err, &perr) {
				err = &ProviderError{Provider: slot.name, Err: err}
			}
			metrics.RecordProviderCall(service, slot.name, metrics.OutcomeError, elapsed)
			logger.Warn("provider request failed",
				zap.String("service", service),
				zap.String("provider", slot.name),
				zap.Error(err))
			lastErr = err
			continue
		}

		metrics.RecordProviderCall(service, slot.name, metrics.OutcomeSuccess, elapsed)
		return text, slot.name, nil
	}

	if lastErr == nil {
		return "", "", ErrNoProvider
	}
	return "", "", lastErr
}
