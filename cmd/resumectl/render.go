package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"liveResume/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a resume document to HTML",
	RunE:  runRender,
}

var (
	renderInputFile  string
	renderOutputFile string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInputFile, "in", "i", "", "Path to document JSON file, - for stdin (required)")
	renderCmd.Flags().StringVarP(&renderOutputFile, "out", "o", "", "Path to output HTML file (default stdout)")

	if err := renderCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, _ []string) error {
	doc, err := readDocument(renderInputFile)
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
	return writeOutput(renderOutputFile, []byte(html))
}
