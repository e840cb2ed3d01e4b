package hotfolder_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/porkpie/pkg/adapters/hotfolder"
	"github.com/aretw0/porkpie/pkg/adapters/memory"
	"github.com/aretw0/porkpie/pkg/core"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu   sync.Mutex
	reqs []core.FileRequest
	err  error
}

func (r *recorder) AddFile(ctx context.Context, req core.FileRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.reqs = append(r.reqs, req)
	return req.Parent + "/files/" + string(req.Content), nil
}

func (r *recorder) requests() []core.FileRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.FileRequest(nil), r.reqs...)
}

func write(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew_Validation(t *testing.T) {
	_, err := hotfolder.New(&recorder{}, hotfolder.Config{Parent: "x"})
	assert.Error(t, err)
	_, err = hotfolder.New(&recorder{}, hotfolder.Config{Dir: t.TempDir()})
	assert.Error(t, err)
	_, err = hotfolder.New(&recorder{}, hotfolder.Config{Dir: t.TempDir(), Parent: "x", Rules: []hotfolder.Rule{{Pattern: "[a"}}})
	assert.Error(t, err)
}

func TestFolder_ScanRoutesByRule(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "masters/page1.tif", "m1")
	write(t, dir, "thumbs/page1.jpg", "t1")
	write(t, dir, "mods.xml", "md")
	write(t, dir, "notes.txt", "ignored")
	write(t, dir, ".hidden/secret.tif", "hidden")

	rec := &recorder{}
	f, err := hotfolder.New(rec, hotfolder.Config{
		Dir:    dir,
		Parent: "http://repo/obj",
		Logger: quiet,
		Rules: []hotfolder.Rule{
			{Pattern: "**/*.tif", Variant: core.VariantPreservationMaster},
			{Pattern: "**/*.jpg", Variant: core.VariantThumbnail},
			{Pattern: "*.xml", Variant: core.VariantNonRdfDescriptiveMetadata, ConformsTo: "http://www.loc.gov/mods/v3"},
		},
	})
	require.NoError(t, err)

	events, err := f.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	byPath := map[string]hotfolder.Event{}
	for _, e := range events {
		assert.NoError(t, e.Err)
		byPath[e.Path] = e
	}
	assert.Equal(t, core.VariantPreservationMaster, byPath["masters/page1.tif"].Variant)
	assert.Equal(t, core.VariantThumbnail, byPath["thumbs/page1.jpg"].Variant)
	assert.Equal(t, "http://repo/obj/files/md", byPath["mods.xml"].URI)

	var mimes []string
	for _, req := range rec.requests() {
		assert.Equal(t, "http://repo/obj", req.Parent)
		mimes = append(mimes, req.MimeType)
		if req.Variant == core.VariantNonRdfDescriptiveMetadata {
			assert.Equal(t, "http://www.loc.gov/mods/v3", req.ConformsTo)
		}
	}
	assert.Contains(t, mimes, "image/jpeg")

	again, err := f.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again, "files are ingested once")

	state := f.State().(hotfolder.FolderState)
	assert.Equal(t, int64(3), state.Ingested)
	assert.Equal(t, "hotfolder", f.ComponentType())
}

func TestFolder_FailedIngestIsRetried(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.bin", "a")

	var handled []error
	rec := &recorder{err: core.ErrCompositionFailed}
	f, err := hotfolder.New(rec, hotfolder.Config{
		Dir:          dir,
		Parent:       "http://repo/obj",
		Logger:       quiet,
		ErrorHandler: func(err error) { handled = append(handled, err) },
	})
	require.NoError(t, err)

	events, err := f.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, errors.Is(events[0].Err, core.ErrCompositionFailed))
	require.Len(t, handled, 1)
	assert.Contains(t, handled[0].Error(), "a.bin")

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	events, err = f.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, int64(1), f.State().(hotfolder.FolderState).Failed)
}

func TestFolder_IngestIntoRepository(t *testing.T) {
	repo := memory.NewRepository(memory.Config{Logger: quiet})
	c := core.NewComposer(repo, core.Config{Logger: quiet, BinaryChecksums: true})
	ctx := context.Background()

	object, err := c.CreateObject(ctx, core.CreateRequest{})
	require.NoError(t, err)

	dir := t.TempDir()
	write(t, dir, "scan.tif", "TIFF")

	f, err := hotfolder.New(c, hotfolder.Config{
		Dir:    dir,
		Parent: object,
		Logger: quiet,
		Rules:  []hotfolder.Rule{{Pattern: "*.tif", Variant: core.VariantPreservationMaster, MimeType: "image/tiff"}},
	})
	require.NoError(t, err)

	events, err := f.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)

	content, contentType, err := repo.Content(ctx, events[0].URI, "")
	require.NoError(t, err)
	assert.Equal(t, "TIFF", string(content))
	assert.Equal(t, "image/tiff", contentType)
}

func TestFolder_WatchIngestsNewFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	write(t, dir, "existing.txt", "old")

	rec := &recorder{}
	f, err := hotfolder.New(rec, hotfolder.Config{
		Dir:          dir,
		Parent:       "http://repo/obj",
		Logger:       quiet,
		Debounce:     20 * time.Millisecond,
		ScanExisting: true,
		Rules:        []hotfolder.Rule{{Pattern: "**/*.txt", Variant: core.VariantExtractedText}},
	})
	require.NoError(t, err)
	require.NoError(t, f.Watch(ctx))

	waitFor(t, f, "existing.txt")

	write(t, dir, "new.txt", "fresh")
	waitFor(t, f, "new.txt")

	write(t, dir, "sub/deep.txt", "deep")
	waitFor(t, f, "sub/deep.txt")

	for _, req := range rec.requests() {
		assert.Equal(t, core.VariantExtractedText, req.Variant)
	}
}

func waitFor(t *testing.T, f *hotfolder.Folder, path string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-f.Events():
			if e.Path == path {
				require.NoError(t, e.Err)
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s to be ingested", path)
		}
	}
}
