package clipboard

import (
	"os"
	"sync"
)

// Terminal is a terminal file whose writes are serialized. Hand the same
// Terminal to the UI program as its output and to a Copier, so the OSC 52
// sequence never lands inside a frame being drawn.
type Terminal struct {
	mu sync.Mutex
	f  *os.File
}

// NewTerminal wraps f.
func NewTerminal(f *os.File) *Terminal {
	return &Terminal{f: f}
}

// Write writes p in one call to the underlying file.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Write(p)
}

func (t *Terminal) Read(p []byte) (int, error) { return t.f.Read(p) }

func (t *Terminal) Close() error { return t.f.Close() }

// Fd lets the UI detect the terminal and query its size.
func (t *Terminal) Fd() uintptr { return t.f.Fd() }
