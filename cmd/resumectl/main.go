// Package main provides resumectl, an offline companion to the api server:
// render, export and rewrite a resume document stored as a JSON file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumectl",
	Short: "Render, export and rewrite resume documents from the command line",
	Long:  "resumectl works on a resume document JSON file without a running api server. It shares the renderer, export pipeline and rewrite flow with the server.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
