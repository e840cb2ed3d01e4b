// Package lifecycle exposes hot folder ingest outcomes as a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/porkpie/pkg/adapters/hotfolder"
)

// Progress is one ingest outcome together with the totals so far.
type Progress struct {
	hotfolder.Event
	Ingested int
	Failed   int
}

func (p Progress) String() string {
	return fmt.Sprintf("%s (%d ingested, %d failed)", p.Event, p.Ingested, p.Failed)
}

// IngestSource turns the events of a hot folder into Progress events.
type IngestSource struct {
	in  <-chan hotfolder.Event
	out chan lifecycle.Event

	mu       sync.Mutex
	ingested int
	failed   int
}

// NewSource creates a source over the ingest events of a hot folder.
func NewSource(events <-chan hotfolder.Event) *IngestSource {
	return &IngestSource{in: events, out: make(chan lifecycle.Event)}
}

// Events implements lifecycle.Source. The channel closes once ctx ends or
// the hot folder stops emitting.
func (s *IngestSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start implements lifecycle.Source.
func (s *IngestSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e hotfolder.Event
			var ok bool
			select {
			case <-ctx.Done():
				return nil
			case e, ok = <-s.in:
				if !ok {
					return nil
				}
			}

			select {
			case s.out <- s.tally(e):
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}

func (s *IngestSource) tally(e hotfolder.Event) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Err != nil {
		s.failed++
	} else {
		s.ingested++
	}
	return Progress{Event: e, Ingested: s.ingested, Failed: s.failed}
}

// Totals returns the outcomes counted so far.
func (s *IngestSource) Totals() (ingested, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingested, s.failed
}

var _ lifecycle.Source = (*IngestSource)(nil)
