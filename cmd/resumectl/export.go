package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"liveResume/internal/browser"
	"liveResume/internal/export"
	"liveResume/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a resume document as png, jpg or pdf",
	Long:  "Renders the document in headless Chromium and captures it. Resource warnings such as broken images are printed to stderr.",
	RunE:  runExport,
}

var (
	exportInputFile  string
	exportOutputFile string
	exportFormat     string
	exportChromeBin  string
	exportTimeout    time.Duration
)

func init() {
	exportCmd.Flags().StringVarP(&exportInputFile, "in", "i", "", "Path to document JSON file, - for stdin (required)")
	exportCmd.Flags().StringVarP(&exportOutputFile, "out", "o", "", "Path to output file (default resume.<format>)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "pdf", "Export format: png, jpg or pdf")
	exportCmd.Flags().StringVar(&exportChromeBin, "chrome-bin", "", "Chromium binary (default auto-detect)")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", 60*time.Second, "Overall export timeout")

	if err := exportCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	doc, err := readDocument(exportInputFile)
	if err != nil {
		return err
	}
	renderer, err := render.New()
	if err != nil {
		return err
	}
	html, err := renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	b, err := browser.Launch(browser.Config{Bin: exportChromeBin, PageTimeout: exportTimeout, MaxPages: 1}, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", export.ErrNoRenderTarget, err)
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	pipeline := export.NewPipeline(browser.NewComposer(b), logger)
	artifact, err := pipeline.Export(ctx, browser.NewTarget(b, html), format)
	if err != nil {
		return fmt.Errorf("failed to export document: %w", err)
	}
	if len(artifact.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "warning: missing resources: %s\n", strings.Join(artifact.Warnings, ", "))
	}

	out := exportOutputFile
	if out == "" {
		out = format.Filename()
	}
	if err := writeOutput(out, artifact.Data); err != nil {
		return err
	}
	if out != "-" {
		fmt.Fprintf(os.Stderr, "wrote %s (%dx%d)\n", out, artifact.Width, artifact.Height)
	}
	return nil
}
