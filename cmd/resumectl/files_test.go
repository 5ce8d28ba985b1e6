package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveResume/internal/config"
	"liveResume/internal/resume"
)

func TestReadDocument_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	in := resume.Default()
	in.Name = "Ada Lovelace"
	in.Skills = []string{"Go", "SQL"}
	require.NoError(t, writeJSON(path, in))

	doc, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", doc.Name)
	assert.Equal(t, []string{"Go", "SQL"}, doc.Skills)
}

func TestReadDocument_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := readDocument(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal document JSON")
}

func TestReadDocument_MissingFile(t *testing.T) {
	_, err := readDocument(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document")
}

func TestWriteOutput_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "resume.html")
	require.NoError(t, writeOutput(path, []byte("<html></html>")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestNewGenerator(t *testing.T) {
	_, _, err := newGenerator(t.Context(), config.GenerationConfig{Provider: config.ProviderGemini})
	assert.ErrorContains(t, err, "API key is required")

	_, _, err = newGenerator(t.Context(), config.GenerationConfig{Provider: config.ProviderHTTP})
	assert.ErrorContains(t, err, "endpoint is required")

	_, _, err = newGenerator(t.Context(), config.GenerationConfig{Provider: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown generation provider")

	gen, closeFn, err := newGenerator(t.Context(), config.GenerationConfig{
		Provider: config.ProviderHTTP,
		Endpoint: "http://localhost:1/generate",
	})
	require.NoError(t, err)
	assert.NotNil(t, gen)
	closeFn()
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["render"])
	assert.True(t, names["export"])
	assert.True(t, names["rewrite"])
}
