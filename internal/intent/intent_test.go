package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDefaultsToGeneralInEmptyWorkspace(t *testing.T) {
	dir := t.TempDir()
	d := New(dir)

	got := d.Detect()
	assert.Equal(t, "general", got.Type)
	assert.Equal(t, 0.5, got.Confidence)
	assert.ElementsMatch(t, d.Essential(), got.Required)
}

func TestDetectExistingProjectViaManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o644))

	got := New(dir).Detect()
	assert.Equal(t, "existing_project", got.Type)
	assert.Equal(t, 0.6, got.Confidence)
}

func TestDetectExistingProjectViaGitIsHigherConfidence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	got := New(dir).Detect()
	assert.Equal(t, "existing_project", got.Type)
	assert.Equal(t, 0.8, got.Confidence)
}

func TestDetectGitRemotePrefersExistingProjectOverCollaboration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	cfg := "[remote \"origin\"]\n\turl = git@example.com:x/y.git\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte(cfg), 0o644))

	got := New(dir).Detect()
	// Existing-project (0.8, via .git dir) beats collaboration (0.7) under
	// the detector's max-confidence selection, matching
	// startup_detection.py's detect_intent.
	assert.Equal(t, "existing_project", got.Type)
}

func TestDetectCodeEditingWhenNoGitPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))

	got := New(dir).Detect()
	assert.Equal(t, "code_editing", got.Type)
	assert.Contains(t, got.Optional, "sandbox")
}

func TestIntentRecommendedDeduplicates(t *testing.T) {
	i := Intent{
		Required: []string{"config", "database"},
		Optional: []string{"database", "backup"},
	}
	assert.Equal(t, []string{"config", "database", "backup"}, i.Recommended())
}
