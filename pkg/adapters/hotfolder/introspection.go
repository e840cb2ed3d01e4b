package hotfolder

import (
	"time"

	"github.com/aretw0/introspection"
)

// FolderState exposes internal state for observability.
type FolderState struct {
	Dir           string     `json:"dir"`
	Parent        string     `json:"parent"`
	Rules         []Rule     `json:"rules"`
	WatcherActive bool       `json:"watcher_active"`
	Ingested      int64      `json:"ingested"`
	Failed        int64      `json:"failed"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (f *Folder) State() any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FolderState{
		Dir:           f.config.Dir,
		Parent:        f.config.Parent,
		Rules:         append([]Rule(nil), f.config.Rules...),
		WatcherActive: f.watcherActive,
		Ingested:      f.ingested.Load(),
		Failed:        f.failed.Load(),
		LastEvent:     f.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (f *Folder) ComponentType() string {
	return "hotfolder"
}

var _ introspection.Introspectable = (*Folder)(nil)
var _ introspection.Component = (*Folder)(nil)
