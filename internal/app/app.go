// Package app builds the object graph shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/RichardoC/elias/internal/config"
	"github.com/RichardoC/elias/internal/db"
	"github.com/RichardoC/elias/internal/llm"
	"github.com/RichardoC/elias/internal/orchestrator"
	"github.com/RichardoC/elias/internal/persona"
)

type App struct {
	Config       *config.Config
	Personas     *persona.Registry
	Database     *db.Database
	Orchestrator *orchestrator.Orchestrator
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	database, err := db.New(cfg.Database.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	slots, err := llm.NewSlots(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}
	logger.Info("providers",
		zap.Bool("openai", slots.OpenAI.Configured()),
		zap.Bool("gemini", slots.Gemini.Configured()))

	registry := persona.Default()
	summarizer := llm.NewSummarizer(slots.SummaryChain(), logger.Named("summarizer"),
		llm.WithTimeout(cfg.ProviderTimeout),
		llm.WithMaxPromptTokens(cfg.SummaryMaxPromptTokens))
	responder := llm.NewResponder(slots.ResponseChain(), registry, logger.Named("responder"),
		llm.WithResponseTimeout(cfg.ProviderTimeout))

	return &App{
		Config:       cfg,
		Personas:     registry,
		Database:     database,
		Orchestrator: orchestrator.New(registry, summarizer, responder, database, logger.Named("orchestrator")),
	}, nil
}

func (a *App) Close() error {
	return a.Database.Close()
}
