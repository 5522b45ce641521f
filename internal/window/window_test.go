package window

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lurktail/lurk/internal/numspec"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func openSeekable(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestSelect_TailLastLines_Seekable(t *testing.T) {
	path := writeTemp(t, "a\nb\nc\nd\ne\n")
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 2, Mode: numspec.TailLast, Unit: numspec.Lines}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "d\ne\n" {
		t.Errorf("got %q, want %q", out.String(), "d\ne\n")
	}
}

func TestSelect_TailLastLines_NoTrailingNewline(t *testing.T) {
	path := writeTemp(t, "a\nb\nc")
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 2, Mode: numspec.TailLast, Unit: numspec.Lines}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "b\nc" {
		t.Errorf("got %q, want %q", out.String(), "b\nc")
	}
}

func TestSelect_TailLastLines_NGreaterThanCount(t *testing.T) {
	content := "a\nb\nc\n"
	path := writeTemp(t, content)
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 99999999, Mode: numspec.TailLast, Unit: numspec.Lines}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != content {
		t.Errorf("got %q, want %q", out.String(), content)
	}
}

func TestSelect_SkipFirstLines(t *testing.T) {
	path := writeTemp(t, "a\nb\nc\nd\ne\n")
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 3, Mode: numspec.SkipFirst, Unit: numspec.Lines}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "c\nd\ne\n" {
		t.Errorf("got %q, want %q", out.String(), "c\nd\ne\n")
	}
}

func TestSelect_SkipFirstBytesZero_EmitsVerbatim(t *testing.T) {
	content := "abcde"
	path := writeTemp(t, content)
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 0, Mode: numspec.SkipFirst, Unit: numspec.Bytes}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != content {
		t.Errorf("got %q, want %q", out.String(), content)
	}
}

func TestSelect_TailLastBytes(t *testing.T) {
	content := "abcdefghijklmnopqrstuvwxyz"
	path := writeTemp(t, content)
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 5, Mode: numspec.TailLast, Unit: numspec.Bytes}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "vwxyz" {
		t.Errorf("got %q, want %q", out.String(), "vwxyz")
	}
}

func TestSelect_SkipFirstBytes(t *testing.T) {
	content := "abcdefghijklmnopqrstuvwxyz"
	path := writeTemp(t, content)
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 5, Mode: numspec.SkipFirst, Unit: numspec.Bytes}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "efghijklmnopqrstuvwxyz" {
		t.Errorf("got %q, want %q", out.String(), "efghijklmnopqrstuvwxyz")
	}
}

func TestSelect_TailLastAndMinusNEquivalent(t *testing.T) {
	content := "one\ntwo\nthree\nfour\nfive\n"
	path := writeTemp(t, content)

	pos, err := numspec.Parse("5", numspec.Lines)
	if err != nil {
		t.Fatal(err)
	}
	neg, err := numspec.Parse("-5", numspec.Lines)
	if err != nil {
		t.Fatal(err)
	}
	var outA, outB bytes.Buffer

	f1 := openSeekable(t, path)
	if _, err := Select(f1, pos, '\n', &outA); err != nil {
		t.Fatal(err)
	}
	f2 := openSeekable(t, path)
	if _, err := Select(f2, neg, '\n', &outB); err != nil {
		t.Fatal(err)
	}
	if outA.String() != outB.String() {
		t.Errorf("-n 5 and -n -5 differ: %q vs %q", outA.String(), outB.String())
	}
}

func TestSelect_EmptyFile(t *testing.T) {
	path := writeTemp(t, "")
	f := openSeekable(t, path)

	spec := numspec.Spec{N: 10, Mode: numspec.TailLast, Unit: numspec.Lines}
	var out bytes.Buffer
	if _, err := Select(f, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output for empty file, got %q", out.String())
	}
}

func TestSelect_NonSeekable_TailLastLines(t *testing.T) {
	r := strings.NewReader("a\nb\nc\nd\ne\n")
	spec := numspec.Spec{N: 2, Mode: numspec.TailLast, Unit: numspec.Lines}
	var out bytes.Buffer
	// strings.Reader implements Seeker and seeking works, so wrap it to
	// force the non-seekable streaming path, matching stdin's behavior.
	if _, err := Select(onlyReader{r}, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "d\ne\n" {
		t.Errorf("got %q, want %q", out.String(), "d\ne\n")
	}
}

func TestSelect_NonSeekable_TailLastBytes(t *testing.T) {
	r := strings.NewReader("abcdefghijklmnopqrstuvwxyz")
	spec := numspec.Spec{N: 5, Mode: numspec.TailLast, Unit: numspec.Bytes}
	var out bytes.Buffer
	if _, err := Select(onlyReader{r}, spec, '\n', &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "vwxyz" {
		t.Errorf("got %q, want %q", out.String(), "vwxyz")
	}
}

// onlyReader strips any Seeker implementation so Select takes the
// streaming path, the way stdin's ring-buffered tests exercise it.
type onlyReader struct{ io.Reader }
