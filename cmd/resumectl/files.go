package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"liveResume/internal/resume"
)

// readDocument loads a document file; "-" reads stdin. The document is
// normalized and validated the same way the api does on PUT.
func readDocument(path string) (resume.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return resume.Document{}, fmt.Errorf("failed to read document: %w", err)
	}

	var doc resume.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return resume.Document{}, fmt.Errorf("failed to unmarshal document JSON: %w", err)
	}
	doc.Normalize()
	if err := doc.Validate(); err != nil {
		return resume.Document{}, err
	}
	return doc, nil
}

// writeOutput writes data to path, creating parent directories. An empty
// path or "-" writes to stdout.
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return writeOutput(path, append(data, '\n'))
}
