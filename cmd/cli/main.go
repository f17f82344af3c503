package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RichardoC/elias/internal/app"
	"github.com/RichardoC/elias/internal/config"
	"github.com/RichardoC/elias/internal/models"
	"github.com/RichardoC/elias/internal/persona"
)

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "elias",
		Short: "Talk to the Elias assistant from the command line",
		Long: strings.TrimSpace(`elias sends a message through the same pipeline as the HTTP API:
importance scoring, summarization, a persona-conditioned reply and logging.

Provider credentials come from the environment (OPENAI_API_KEY, GEMINI_API_KEY).
Without them the assistant answers in offline mode.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newChatCommand())
	root.AddCommand(newPersonasCommand())
	return root
}

func newChatCommand() *cobra.Command {
	var (
		personaName string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message to the assistant",
		Example: strings.Join([]string{
			"  elias chat \"how do I structure a Go service?\"",
			"  elias chat --persona travel \"three days in Lisbon\"",
		}, "\n"),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			message := strings.Join(args, " ")
			logger.Info("message received", zap.String("persona", personaName), zap.String("message", message))

			result, err := application.Orchestrator.HandleMessage(ctx, message, personaName)
			if err != nil {
				return fmt.Errorf("could not process the request: %w", err)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&personaName, "persona", "p", models.DefaultPersona, "Persona to answer as")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newPersonasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the available personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range persona.Default().Names() {
				marker := ""
				if name == models.DefaultPersona {
					marker = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, marker)
			}
			return nil
		},
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func printResult(w io.Writer, result models.ChatResult) {
	fmt.Fprintln(w, "\n--- Assistant response ---")
	fmt.Fprintf(w, "Persona: %s\n", result.Persona)
	fmt.Fprintf(w, "Importance (0.0-1.0): %.2f\n", result.Importance)
	fmt.Fprintf(w, "Summary of your message: %s\n", result.Summary)
	fmt.Fprintf(w, "Assistant: %s\n", result.Assistant)
	fmt.Fprintln(w, "--------------------------")
}
