package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/monosplit/internal/llm"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MONOSPLIT_MODEL_PROVIDER", "echo")
	t.Setenv("MONOSPLIT_STORAGE_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("MONOSPLIT_LOGGING_DIR", filepath.Join(dir, "logs"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := execute(cmd)
	return out.String(), err
}

func TestRefactorCommand_WritesFiles(t *testing.T) {
	dir := isolate(t)

	src := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(src, []byte("import os\n\ndef helper():\n    return os.getcwd()\n"), 0o600))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "refactor", src, "--output", outDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Sending chunk 1/1 to echo...")
	assert.NotContains(t, out, "Preview:")
	assert.Contains(t, out, "echo/chunk_001.txt")
	assert.Contains(t, out, "Wrote 1 files")

	data, err := os.ReadFile(filepath.Join(outDir, "echo", "chunk_001.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "def helper():")

	_, err = os.Stat(src + ".backup")
	assert.NoError(t, err)

	history, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, history, "Completed")
	assert.Contains(t, history, src)
}

func TestRefactorCommand_DryRun(t *testing.T) {
	dir := isolate(t)

	src := filepath.Join(dir, "server.js")
	require.NoError(t, os.WriteFile(src, []byte("const express = require('express');\nconst app = express();\n"), 0o600))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "refactor", src, "--dry-run", "--output", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Preview: echo/chunk_001.txt")
	assert.Contains(t, out, "Dry run: nothing written")

	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRefactorCommand_Failure(t *testing.T) {
	dir := isolate(t)

	out, err := run(t, "refactor", filepath.Join(dir, "missing.py"))
	require.Error(t, err)
	assert.Contains(t, out, "Refactoring aborted")
	assert.Equal(t, 1, strings.Count(out, "error:"), out)
}

func unsetProvider(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MONOSPLIT_MODEL_PROVIDER", llm.EnvProvider, llm.EnvHFToken, llm.EnvLegacyToken, llm.EnvOpenAIAPIKey, llm.EnvGeminiAPIKey, llm.EnvGoogleAPIKey} {
		t.Setenv(k, "")
	}
}

func TestRefactorCommand_EchoFallbackRefusesWrite(t *testing.T) {
	dir := isolate(t)
	unsetProvider(t)

	src := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(src, []byte("import os\n"), 0o600))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "refactor", src, "--output", outDir)
	require.ErrorIs(t, err, errEchoFallback)
	assert.Contains(t, out, "--provider echo")
	assert.Equal(t, 1, strings.Count(out, "error:"), out)

	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))

	out, err = run(t, "refactor", src, "--output", outDir, "--provider", "echo")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 files")
}

func TestRefactorCommand_EchoFallbackWarnsOnDryRun(t *testing.T) {
	dir := isolate(t)
	unsetProvider(t)

	src := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(src, []byte("import os\n"), 0o600))

	out, err := run(t, "refactor", src, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: no provider configured")
	assert.Contains(t, out, "Dry run: nothing written")
}

func TestHistoryPrune(t *testing.T) {
	dir := isolate(t)

	src := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(src, []byte("import os\n"), 0o600))
	_, err := run(t, "refactor", src, "--dry-run")
	require.NoError(t, err)
	_, err = run(t, "refactor", filepath.Join(dir, "missing.py"))
	require.Error(t, err)

	out, err := run(t, "history", "prune")
	require.ErrorIs(t, err, errPruneUnbounded)
	assert.Contains(t, out, "error: refusing to prune")

	out, err = run(t, "history", "prune", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 0 jobs")

	out, err = run(t, "history", "prune", "--state", "Completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 jobs")

	out, err = run(t, "history", "prune", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 jobs")

	out, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs recorded")
}

func TestUnknownCommandPrintedOnce(t *testing.T) {
	isolate(t)

	out, err := run(t, "frobnicate")
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(out, "unknown command"), out)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "SQLite Driver:")
	assert.Contains(t, out, "Detected Provider:")
}
