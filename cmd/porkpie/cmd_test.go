package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	verbose, configPath = false, ""
	planSource, planApply, planJSON, planOut = "", false, false, ""
	watchParent, watchOnce = "", false
	rootCmd.SetErr(io.Discard)

	// cobra keeps the context of a previous run on every command.
	rootCmd.SetContext(context.Background())
	for _, c := range rootCmd.Commands() {
		c.SetContext(context.Background())
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const batch = `
collections:
  - id: maps
    members: [map-1]
objects:
  - id: map-1
    files:
      - path: scans/*.jpg
        variant: service
`

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "porkpie version "), out)
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "batch.yaml"), batch)
	writeFile(t, filepath.Join(dir, "scans", "a.jpg"), "a")
	writeFile(t, filepath.Join(dir, "scans", "b.jpg"), "b")

	out, err := run(t, "plan", filepath.Join(dir, "batch.yaml"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"create-collection maps",
		"create-object map-1",
		"add-file map-1 scans/a.jpg as service",
		"add-file map-1 scans/b.jpg as service",
		"add-member maps map-1",
	}, "\n")+"\n", out)
}

func TestPlan_Apply(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "batch.yaml"), batch)
	writeFile(t, filepath.Join(dir, "scans", "a.jpg"), "a")
	config := filepath.Join(dir, "porkpie.yaml")
	writeFile(t, config, "base_url: http://cli.test/rest\nbinary_checksums: true\n")

	out, err := run(t, "--config", config, "plan", "--apply", "--json", filepath.Join(dir, "batch.yaml"))
	require.NoError(t, err)

	var result struct {
		Resources map[string]string   `json:"resources"`
		Files     map[string][]string `json:"files"`
		Proxies   int                 `json:"proxies"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, strings.HasPrefix(result.Resources["maps"], "http://cli.test/rest/"))
	assert.Len(t, result.Files["map-1"], 1)
	assert.Equal(t, 1, result.Proxies)
}

func TestPlan_ApplyOut(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "batch.yaml"), batch)
	writeFile(t, filepath.Join(dir, "scans", "a.jpg"), "a")
	report := filepath.Join(dir, "result.json")

	out, err := run(t, "plan", "--apply", "--out", report, filepath.Join(dir, "batch.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 member link(s)")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"proxies": 1`)
}

func TestPlan_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "batch.yaml"), batch)

	_, err := run(t, "plan", filepath.Join(dir, "batch.yaml"))
	assert.ErrorContains(t, err, "matches no file")

	_, err = run(t, "plan", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "version")
	assert.Error(t, err)
}

func TestWatch_Once(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	writeFile(t, filepath.Join(inbox, "page.tif"), "tiff")
	writeFile(t, filepath.Join(inbox, "notes.md"), "skip")
	config := filepath.Join(dir, "porkpie.yaml")
	writeFile(t, config, `
hot_folder:
  dir: `+inbox+`
  rules:
    - pattern: "*.tif"
      variant: preservation_master
      mime_type: image/tiff
`)

	out, err := run(t, "--config", config, "watch", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "page.tif: preservation_master -> ")
	assert.NotContains(t, out, "notes.md")

	_, err = run(t, "watch")
	assert.Error(t, err, "no directory configured")
}

// lockedBuffer is written by the command goroutine and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_ReportsProgress(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	writeFile(t, filepath.Join(inbox, "page.tif"), "tiff")
	config := filepath.Join(dir, "porkpie.yaml")
	writeFile(t, config, `
hot_folder:
  dir: `+inbox+`
  debounce: 20ms
  rules:
    - pattern: "**/*.tif"
      variant: preservation_master
`)

	resetFlags()
	out := &lockedBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"--config", config, "watch"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	watchCmd.SetContext(ctx)
	go func() { done <- rootCmd.Execute() }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "page.tif: preservation_master -> ")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "(1 ingested, 0 failed)")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop with its context")
	}
}
