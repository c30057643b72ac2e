// Package clipboard copies text to the system clipboard, falling back to an
// OSC 52 terminal escape when no clipboard utility is available.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

// Copy methods.
const (
	MethodSystem = "system"
	MethodOSC52  = "osc52"
)

// Notices shown after a copy attempt.
const (
	CopiedNotice = "Copied to clipboard!"
	FailedNotice = "Failed to copy to clipboard"
)

var (
	systemWriteAll    = clipboard.WriteAll
	systemUnsupported = func() bool { return clipboard.Unsupported }
)

// CopyFailure is returned when every copy method failed.
type CopyFailure struct {
	Text     string
	Primary  error
	Fallback error
}

func (e *CopyFailure) Error() string {
	return fmt.Sprintf("copy failed: system clipboard: %v; osc52: %v", e.Primary, e.Fallback)
}

func (e *CopyFailure) Unwrap() []error { return []error{e.Primary, e.Fallback} }

var errUnsupported = errors.New("no clipboard utility available")

// Copier writes text to the clipboard.
type Copier struct {
	// Terminal receives the OSC 52 fallback sequence. Nil disables the
	// fallback.
	Terminal io.Writer
	// Getenv reads TMUX and STY to wrap the sequence for multiplexers.
	Getenv func(string) string
}

// New creates a Copier whose fallback writes to the given terminal.
func New(terminal io.Writer) *Copier {
	return &Copier{Terminal: terminal, Getenv: os.Getenv}
}

// Copy places text on the clipboard and reports the method that worked.
// When both methods fail the error is a *CopyFailure.
func (c *Copier) Copy(text string) (string, error) {
	primary := c.copySystem(text)
	if primary == nil {
		metrics.RecordCopy(MethodSystem, true)
		return MethodSystem, nil
	}
	metrics.RecordCopy(MethodSystem, false)
	logging.Debug("system clipboard unavailable, trying osc52", zap.Error(primary))

	fallback := c.copyOSC52(text)
	if fallback == nil {
		metrics.RecordCopy(MethodOSC52, true)
		return MethodOSC52, nil
	}
	metrics.RecordCopy(MethodOSC52, false)
	logging.Warn("copy failed", zap.NamedError("system", primary), zap.NamedError("osc52", fallback))
	return "", &CopyFailure{Text: text, Primary: primary, Fallback: fallback}
}

func (c *Copier) copySystem(text string) error {
	if systemUnsupported() {
		return errUnsupported
	}
	return systemWriteAll(text)
}

func (c *Copier) copyOSC52(text string) error {
	if c.Terminal == nil {
		return errors.New("no terminal for osc52")
	}
	seq := osc52.New(text)
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	switch {
	case getenv("TMUX") != "":
		seq = seq.Tmux()
	case getenv("STY") != "":
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.Terminal)
	return err
}

// Notice returns the notice for a copy result.
func Notice(err error) string {
	if err != nil {
		return FailedNotice
	}
	return CopiedNotice
}
