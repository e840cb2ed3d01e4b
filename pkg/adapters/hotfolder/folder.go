// Package hotfolder ingests files dropped into a directory, attaching each
// one to a parent Object as a file of the variant its path selects.
package hotfolder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/porkpie/pkg/core"
)

// Attacher adds a file to an Object. *core.Composer implements it.
type Attacher interface {
	AddFile(ctx context.Context, req core.FileRequest) (string, error)
}

// Rule maps a doublestar pattern, relative to the watched directory, to the
// variant of the files it matches.
type Rule struct {
	Pattern string           `yaml:"pattern"`
	Variant core.FileVariant `yaml:"variant"`
	// MimeType overrides the type guessed from the file extension.
	MimeType   string `yaml:"mime_type,omitempty"`
	ConformsTo string `yaml:"conforms_to,omitempty"`
}

// Config holds the hot folder settings.
type Config struct {
	Dir string
	// Parent is the Object every ingested file is attached to.
	Parent string
	// Rules are tried in order; files matching none are ignored. No rules
	// means every file is attached without a use type.
	Rules []Rule
	// Debounce is the quiet period after the last write before a file is
	// ingested. Defaults to 200ms.
	Debounce time.Duration
	// ScanExisting ingests files already present when the watch starts.
	ScanExisting bool
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Event reports the outcome of one ingested file.
type Event struct {
	Path      string
	URI       string
	Variant   core.FileVariant
	Err       error
	Timestamp int64
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: failed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s -> %s", e.Path, e.Variant, e.URI)
}

// Folder watches Config.Dir and ingests what lands there.
type Folder struct {
	config   Config
	attacher Attacher
	logger   *slog.Logger
	events   chan Event

	mu            sync.Mutex
	seen          map[string]bool
	watcherActive bool
	lastEvent     *time.Time

	ingested atomic.Int64
	failed   atomic.Int64
}

// New validates config and creates a Folder.
func New(attacher Attacher, config Config) (*Folder, error) {
	if config.Dir == "" {
		return nil, errors.New("hot folder directory is required")
	}
	if config.Parent == "" {
		return nil, errors.New("hot folder parent object is required")
	}
	if len(config.Rules) == 0 {
		config.Rules = []Rule{{Pattern: "**"}}
	}
	for _, r := range config.Rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, fmt.Errorf("invalid pattern %q", r.Pattern)
		}
	}
	if config.Debounce <= 0 {
		config.Debounce = 200 * time.Millisecond
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Folder{
		config:   config,
		attacher: attacher,
		logger:   logger,
		events:   make(chan Event, 64),
		seen:     make(map[string]bool),
	}, nil
}

// Events returns the channel ingest outcomes are sent on. It is never
// closed; stop reading when the watch context ends.
func (f *Folder) Events() <-chan Event {
	return f.events
}

// Watch starts a watcher that runs until ctx is done.
func (f *Folder) Watch(ctx context.Context) error {
	return f.Worker().Start(ctx)
}

// Scan ingests every file currently in the directory that matches a rule
// and was not ingested before.
func (f *Folder) Scan(ctx context.Context) ([]Event, error) {
	fsys := os.DirFS(f.config.Dir)
	var out []Event
	for _, r := range f.config.Rules {
		matches, err := doublestar.Glob(fsys, r.Pattern, doublestar.WithFilesOnly())
		if err != nil {
			return out, fmt.Errorf("scan %s: %w", r.Pattern, err)
		}
		for _, rel := range matches {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if e, ok := f.ingest(ctx, rel); ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// rule returns the first rule matching rel.
func (f *Folder) rule(rel string) (Rule, bool) {
	for _, r := range f.config.Rules {
		if ok, _ := doublestar.Match(r.Pattern, rel); ok {
			return r, true
		}
	}
	return Rule{}, false
}

// relative maps an absolute event path to a slash separated path under Dir.
func (f *Folder) relative(path string) (string, bool) {
	rel, err := filepath.Rel(f.config.Dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// claim marks rel as ingested and reports whether it was new.
func (f *Folder) claim(rel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[rel] {
		return false
	}
	f.seen[rel] = true
	return true
}

// ingest attaches rel to the parent object. It returns false when the file
// is skipped.
func (f *Folder) ingest(ctx context.Context, rel string) (Event, bool) {
	if hidden(rel) {
		return Event{}, false
	}
	r, ok := f.rule(rel)
	if !ok || !f.claim(rel) {
		return Event{}, false
	}

	e := Event{Path: rel, Variant: r.Variant, Timestamp: time.Now().Unix()}
	mimeType := r.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(rel))
	}
	content, err := fs.ReadFile(os.DirFS(f.config.Dir), rel)
	if err == nil {
		e.URI, err = f.attacher.AddFile(ctx, core.FileRequest{
			Parent:     f.config.Parent,
			Content:    content,
			MimeType:   mimeType,
			Variant:    r.Variant,
			ConformsTo: r.ConformsTo,
		})
	}

	if err != nil {
		// Let a later event retry the file.
		f.mu.Lock()
		delete(f.seen, rel)
		f.mu.Unlock()

		e.Err = err
		f.failed.Add(1)
		f.logger.Error("ingest failed", "path", rel, "error", err)
		if f.config.ErrorHandler != nil {
			f.config.ErrorHandler(fmt.Errorf("ingest %s: %w", rel, err))
		}
	} else {
		f.ingested.Add(1)
		f.logger.Info("file ingested", "path", rel, "variant", r.Variant, "uri", e.URI)
	}

	now := time.Now()
	f.mu.Lock()
	f.lastEvent = &now
	f.mu.Unlock()
	return e, true
}

func (f *Folder) setWatcherActive(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watcherActive = active
}
