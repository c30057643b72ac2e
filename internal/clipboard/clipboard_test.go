package clipboard

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func stubSystem(t *testing.T, unsupported bool, err error) *[]string {
	t.Helper()
	var written []string
	oldWrite, oldUnsupported := systemWriteAll, systemUnsupported
	systemWriteAll = func(text string) error {
		if err != nil {
			return err
		}
		written = append(written, text)
		return nil
	}
	systemUnsupported = func() bool { return unsupported }
	t.Cleanup(func() {
		systemWriteAll, systemUnsupported = oldWrite, oldUnsupported
	})
	return &written
}

func noEnv(string) string { return "" }

func TestCopySystem(t *testing.T) {
	written := stubSystem(t, false, nil)
	var term bytes.Buffer
	c := &Copier{Terminal: &term, Getenv: noEnv}

	method, err := c.Copy("s3://b/a.csv")
	if err != nil || method != MethodSystem {
		t.Fatalf("Copy = %q, %v", method, err)
	}
	if len(*written) != 1 || (*written)[0] != "s3://b/a.csv" {
		t.Errorf("system clipboard got %v", *written)
	}
	if term.Len() != 0 {
		t.Errorf("osc52 used although system copy succeeded: %q", term.String())
	}
}

func TestCopyFallsBackToOSC52(t *testing.T) {
	tests := []struct {
		name        string
		unsupported bool
		err         error
	}{
		{name: "unsupported", unsupported: true},
		{name: "write error", err: errors.New("xclip: exit status 1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSystem(t, tt.unsupported, tt.err)
			var term bytes.Buffer
			c := &Copier{Terminal: &term, Getenv: noEnv}

			method, err := c.Copy("s3://b/a.csv")
			if err != nil || method != MethodOSC52 {
				t.Fatalf("Copy = %q, %v", method, err)
			}
			if !strings.HasPrefix(term.String(), "\x1b]52;c;") {
				t.Errorf("unexpected osc52 sequence %q", term.String())
			}
		})
	}
}

func TestCopyOSC52Tmux(t *testing.T) {
	stubSystem(t, true, nil)
	var term bytes.Buffer
	c := &Copier{Terminal: &term, Getenv: func(k string) string {
		if k == "TMUX" {
			return "/tmp/tmux-1000/default,1,0"
		}
		return ""
	}}
	if _, err := c.Copy("x"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(term.String(), "\x1bPtmux;") {
		t.Errorf("sequence not wrapped for tmux: %q", term.String())
	}
}

func TestCopyFailure(t *testing.T) {
	stubSystem(t, true, nil)
	for _, c := range []*Copier{
		{Terminal: failingWriter{}, Getenv: noEnv},
		{Terminal: nil, Getenv: noEnv},
	} {
		_, err := c.Copy("s3://b/a.csv")
		var failure *CopyFailure
		if !errors.As(err, &failure) {
			t.Fatalf("expected *CopyFailure, got %v", err)
		}
		if !errors.Is(err, errUnsupported) {
			t.Errorf("CopyFailure does not unwrap to the primary error")
		}
		if Notice(err) != FailedNotice {
			t.Errorf("Notice = %q", Notice(err))
		}
	}
	if Notice(nil) != CopiedNotice {
		t.Errorf("Notice(nil) = %q", Notice(nil))
	}
}
