package diag

import (
	"bytes"
	"os"
	"testing"
)

func TestCannotOpen(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, "tail", false)

	_, err := os.Open("/nonexistent/path/missing1")
	f.CannotOpen("missing1", err)

	want := "tail: cannot open 'missing1': No such file or directory\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestNoSuchFile(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, "tail", false)
	f.NoSuchFile("logfile")

	want := "tail: logfile: No such file or directory\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTruncated(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, "tail", false)
	f.Truncated("logfile")

	want := "tail: logfile: file truncated\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestAppeared(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, "tail", false)
	f.Appeared("logfile")

	want := "tail: 'logfile' has appeared;  following new file\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestReplaced(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, "tail", false)
	f.Replaced("logfile")

	want := "tail: 'logfile' has been replaced;  following new file\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestDebugfGatedOnVerbose(t *testing.T) {
	var buf bytes.Buffer
	f := New(&buf, "tail", false)
	f.Debugf("backend=%s", "polling")
	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got %q", buf.String())
	}

	f = New(&buf, "tail", true)
	f.Debugf("backend=%s", "polling")
	want := "tail: backend=polling\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
