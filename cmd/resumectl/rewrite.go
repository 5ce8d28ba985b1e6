package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"liveResume/internal/config"
	"liveResume/internal/llm"
	"liveResume/internal/rewrite"
	"liveResume/internal/store"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite the summary and experience bullets of a resume document",
	Long:  "Sends the document to the configured generator and merges the returned summary and bullets. Generation settings come from the same config and environment as the api server; flags override them.",
	RunE:  runRewrite,
}

var (
	rewriteInputFile  string
	rewriteOutputFile string
	rewriteProvider   string
	rewriteEndpoint   string
	rewriteAPIKey     string
	rewriteTimeout    time.Duration
)

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteInputFile, "in", "i", "", "Path to document JSON file, - for stdin (required)")
	rewriteCmd.Flags().StringVarP(&rewriteOutputFile, "out", "o", "", "Path to output document JSON file (default stdout)")
	rewriteCmd.Flags().StringVar(&rewriteProvider, "provider", "", "Generator provider: http or gemini (overrides GENERATION_PROVIDER)")
	rewriteCmd.Flags().StringVar(&rewriteEndpoint, "endpoint", "", "Generation endpoint for the http provider")
	rewriteCmd.Flags().StringVar(&rewriteAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	rewriteCmd.Flags().DurationVar(&rewriteTimeout, "timeout", 0, "Generation timeout (default from config)")

	if err := rewriteCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gen := cfg.Generation
	if rewriteProvider != "" {
		gen.Provider = rewriteProvider
	}
	if rewriteEndpoint != "" {
		gen.Endpoint = rewriteEndpoint
	}
	if rewriteAPIKey != "" {
		gen.APIKey = rewriteAPIKey
	} else if gen.APIKey == "" {
		gen.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if rewriteTimeout > 0 {
		gen.Timeout = rewriteTimeout
	}

	doc, err := readDocument(rewriteInputFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), gen.Timeout+5*time.Second)
	defer cancel()

	generator, closeFn, err := newGenerator(ctx, gen)
	if err != nil {
		return err
	}
	defer closeFn()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	st := store.NewWithDocument(doc)
	outcome, err := rewrite.NewRewriter(st, generator, logger).Rewrite(ctx)
	if err != nil {
		return fmt.Errorf("failed to rewrite document: %w", err)
	}
	fmt.Fprintf(os.Stderr, "rewrite %s\n", outcome)

	return writeJSON(rewriteOutputFile, st.Read())
}

func newGenerator(ctx context.Context, gen config.GenerationConfig) (rewrite.Generator, func(), error) {
	switch gen.Provider {
	case config.ProviderGemini:
		if gen.APIKey == "" {
			return nil, nil, fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable or use --api-key flag)")
		}
		model, err := llm.NewGenerator(ctx, llm.Config{
			APIKey:      gen.APIKey,
			Model:       gen.Model,
			Temperature: gen.Temperature,
		})
		if err != nil {
			return nil, nil, err
		}
		return model, func() { _ = model.Close() }, nil
	case "", config.ProviderHTTP:
		if gen.Endpoint == "" {
			return nil, nil, fmt.Errorf("generation endpoint is required for the http provider")
		}
		return rewrite.NewHTTPGenerator(gen.Endpoint, gen.Timeout), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown generation provider %q", gen.Provider)
}
