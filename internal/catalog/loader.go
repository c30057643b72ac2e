package catalog

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/events"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

// LoadFailureMessage is shown to the user whenever the catalog cannot be
// loaded.
const LoadFailureMessage = "Error loading cache data. Please check if the cache file exists or regenerate it."

// LoadFailure reports a catalog that could not be fetched or decoded.
type LoadFailure struct {
	Location string
	Err      error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load %s: %v", e.Location, e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }

// UserMessage returns the fixed message shown in place of the results.
func (e *LoadFailure) UserMessage() string { return LoadFailureMessage }

// Opener fetches the raw catalog document. storage.Resolver satisfies it.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Loader fetches the catalog document and publishes it for readers. A
// published catalog is never mutated; a reload swaps in a new one.
type Loader struct {
	opener   Opener
	location string
	events   *events.Broadcaster

	current atomic.Pointer[Catalog]
	mu      sync.Mutex // serializes loads
	loads   int
}

// NewLoader creates a Loader for location. broadcaster may be nil.
func NewLoader(opener Opener, location string, broadcaster *events.Broadcaster) *Loader {
	return &Loader{opener: opener, location: location, events: broadcaster}
}

// Location returns the configured catalog location.
func (l *Loader) Location() string { return l.location }

// Current returns the published catalog, or nil before the first
// successful load.
func (l *Loader) Current() *Catalog { return l.current.Load() }

// Load fetches and decodes the catalog and publishes it. On failure the
// previously published catalog, if any, stays in place and the error is a
// *LoadFailure.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	cat, err := l.fetch(ctx)
	metrics.RecordCatalogLoad(time.Since(start), err == nil)
	if err != nil {
		failure := &LoadFailure{Location: l.location, Err: err}
		logging.Warn("catalog load failed",
			zap.String("location", l.location),
			zap.Error(err))
		l.publish(events.Event{Type: events.EventFailed, Location: l.location, Error: err.Error()})
		return nil, failure
	}

	l.current.Store(cat)
	l.loads++
	metrics.SetCatalogFiles(len(cat.Files))
	logging.Info("catalog loaded",
		zap.String("location", l.location),
		zap.Int("files", len(cat.Files)),
		zap.Int("file_count", cat.FileCount),
		zap.Duration("duration", time.Since(start)))

	eventType := events.EventLoaded
	if l.loads > 1 {
		eventType = events.EventReloaded
	}
	l.publish(events.Event{Type: eventType, Location: l.location, Files: len(cat.Files)})
	return cat, nil
}

// Reload re-reads the catalog. It behaves like Load.
func (l *Loader) Reload(ctx context.Context) (*Catalog, error) { return l.Load(ctx) }

func (l *Loader) fetch(ctx context.Context) (*Catalog, error) {
	rc, err := l.opener.Open(ctx, l.location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

func (l *Loader) publish(e events.Event) {
	if l.events != nil {
		l.events.Publish(e)
	}
}

// Run reloads the catalog every interval until ctx is done. Failures are
// logged and the previous catalog keeps being served.
func (l *Loader) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = l.Load(ctx)
		}
	}
}
