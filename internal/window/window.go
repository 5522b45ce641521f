// Package window implements the initial-window selector: given a NumberSpec
// and an input, it locates and emits the initial prefix/suffix numspec.TailLast
// and numspec.SkipFirst call for, leaving the input positioned so follow mode
// can resume precisely where the window left off.
package window

import (
	"io"

	"github.com/lurktail/lurk/internal/lineio"
	"github.com/lurktail/lurk/internal/numspec"
)

// blockSize is the chunk size used when reading backwards from EOF.
const blockSize = 64 * 1024

// streamChunk is the chunk size used for straight byte copies.
const streamChunk = 64 * 1024

// Seeker is the subset of *os.File that Select needs for the seekable path.
type Seeker interface {
	io.Reader
	io.Seeker
}

// Select emits the window described by spec from r to out. delim is the
// line terminator ('\n', or '\x00' under -z); it is only consulted when
// spec.Unit is numspec.Lines. It returns the number of bytes written to
// out; callers that need r's resulting read offset (to resume follow mode
// from exactly where the window left off) must query r directly once
// Select returns, since the streaming paths never reposition r.
//
// If r implements Seeker and an actual seek succeeds (stdin satisfies the
// interface but fails the seek), the seekable algorithms are used; otherwise
// Select falls back to the streaming, ring-buffered algorithms.
func Select(r io.Reader, spec numspec.Spec, delim byte, out io.Writer) (int64, error) {
	if seeker, ok := r.(Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekCurrent); err == nil {
			return selectSeekable(seeker, spec, delim, out)
		}
	}
	return selectStreaming(r, spec, delim, out)
}

func selectSeekable(r Seeker, spec numspec.Spec, delim byte, out io.Writer) (int64, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, nil
	}

	switch {
	case spec.Unit == numspec.Bytes && spec.Mode == numspec.TailLast:
		start := size - int64(spec.N)
		if start < 0 {
			start = 0
		}
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return 0, err
		}
		return streamAll(r, out)

	case spec.Unit == numspec.Bytes && spec.Mode == numspec.SkipFirst:
		start := skipFirstCount(spec.N)
		if start > size {
			start = size
		}
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return 0, err
		}
		return streamAll(r, out)

	case spec.Unit == numspec.Lines && spec.Mode == numspec.TailLast:
		start, err := findTailLinesStart(r, size, spec.N, delim)
		if err != nil {
			return 0, err
		}
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return 0, err
		}
		return streamAll(r, out)

	default: // Lines, SkipFirst
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		return skipFirstLines(r, spec.N, delim, out)
	}
}

// findTailLinesStart reads backwards in blockSize chunks counting delimiter
// bytes, stopping once the needed count has been seen (or start-of-file is
// reached), and returns the byte offset immediately after that delimiter —
// i.e. the start of the last n lines. A file terminated by the delimiter
// needs n+1 delimiters counted from the end (the trailing one bounds an
// empty final token that isn't itself a line); an unterminated final line
// already counts as a line on its own, so only n are needed in that case.
func findTailLinesStart(r Seeker, size int64, n uint64, delim byte) (int64, error) {
	last := make([]byte, 1)
	if _, err := r.Seek(size-1, io.SeekStart); err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(r, last); err != nil {
		return 0, err
	}
	needed := n
	if last[0] == delim {
		needed = n + 1
	}

	found := uint64(0)
	pos := size
	buf := make([]byte, blockSize)

	for pos > 0 && found < needed {
		readSize := int64(blockSize)
		if pos < readSize {
			readSize = pos
		}
		pos -= readSize

		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return 0, err
		}
		chunk := buf[:readSize]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return 0, err
		}

		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] == delim {
				found++
				if found >= needed {
					return pos + int64(i) + 1, nil
				}
			}
		}
	}
	return pos, nil
}

// skipFirstCount turns a SkipFirst spec's 1-indexed starting unit into the
// count of leading units to discard: "+N" means start at unit N, so N-1
// units are skipped ahead of it. "+0" (All) discards nothing, same as "+1".
func skipFirstCount(n uint64) int64 {
	if n == 0 {
		return 0
	}
	return int64(n - 1)
}

// skipFirstLines discards the leading records implied by a "+N" spec from r
// (N==0 or N==1 discards nothing), then copies the remainder to out.
func skipFirstLines(r io.Reader, n uint64, delim byte, out io.Writer) (int64, error) {
	if skip := skipFirstCount(n); skip > 0 {
		if _, err := discardLines(r, uint64(skip), delim); err != nil && err != io.EOF {
			return 0, err
		}
	}
	return streamAll(r, out)
}

// discardLines reads and discards bytes from r until n delimiters have been
// consumed (or EOF), returning the number of bytes discarded.
func discardLines(r io.Reader, n uint64, delim byte) (int64, error) {
	buf := make([]byte, 1)
	var consumed int64
	var seen uint64
	for seen < n {
		nr, err := r.Read(buf)
		if nr > 0 {
			consumed++
			if buf[0] == delim {
				seen++
			}
		}
		if err != nil {
			return consumed, err
		}
	}
	return consumed, nil
}

// streamAll copies r to out in chunks, returning the number of bytes
// copied.
func streamAll(r io.Reader, out io.Writer) (int64, error) {
	buf := make([]byte, streamChunk)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// selectStreaming handles non-seekable inputs (stdin, pipes) using ring
// buffers bounded by spec.N.
func selectStreaming(r io.Reader, spec numspec.Spec, delim byte, out io.Writer) (int64, error) {
	switch {
	case spec.Unit == numspec.Bytes && spec.Mode == numspec.SkipFirst:
		return skipFirstBytes(r, spec.N, out)
	case spec.Unit == numspec.Bytes && spec.Mode == numspec.TailLast:
		return tailBytesRing(r, spec.N, out)
	case spec.Unit == numspec.Lines && spec.Mode == numspec.SkipFirst:
		return skipFirstLines(r, spec.N, delim, out)
	default: // Lines, TailLast
		return tailLinesRing(r, spec.N, delim, out)
	}
}

func skipFirstBytes(r io.Reader, n uint64, out io.Writer) (int64, error) {
	if skip := skipFirstCount(n); skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil && err != io.EOF {
			return 0, err
		}
	}
	return streamAll(r, out)
}

// tailBytesRing buffers the last n bytes of r in a ring and emits them at
// EOF.
func tailBytesRing(r io.Reader, n uint64, out io.Writer) (int64, error) {
	if n == 0 {
		_, err := io.Copy(io.Discard, r)
		return 0, err
	}
	ring := make([]byte, n)
	var total uint64
	tmp := make([]byte, streamChunk)

	for {
		nr, err := r.Read(tmp)
		for i := 0; i < nr; i++ {
			ring[total%n] = tmp[i]
			total++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if total <= n {
		return int64(total), writeRing(out, ring[:total])
	}
	start := total % n
	if err := writeRing(out, ring[start:]); err != nil {
		return 0, err
	}
	if err := writeRing(out, ring[:start]); err != nil {
		return 0, err
	}
	return int64(n), nil
}

func writeRing(out io.Writer, b []byte) error {
	_, err := out.Write(b)
	return err
}

// ringRecord is one retained line plus whether it was delimiter-terminated
// in the source, so tailLinesRing can reconstruct the original bytes
// exactly (an unterminated final line must stay unterminated).
type ringRecord struct {
	text       string
	terminated bool
}

// tailLinesRing streams forward through r using a lineio.LineReader,
// retaining only the last n records in a ring buffer, and emits them at
// EOF. This fully drains r, so it's safe to hand off the line-splitting to
// lineio's internally-buffered scanner — unlike skipFirstLines above, there
// is no subsequent read of r to race against that buffering.
func tailLinesRing(r io.Reader, n uint64, delim byte, out io.Writer) (int64, error) {
	lr := lineio.NewLineReaderWithDelimiter(r, delim)
	if n == 0 {
		for {
			if _, err := lr.ReadLine(); err != nil {
				return 0, nil
			}
		}
	}

	ring := make([]ringRecord, n)
	var count uint64

	for {
		line, err := lr.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		ring[count%n] = ringRecord{text: line, terminated: lr.Terminated()}
		count++
	}

	limit := n
	if count < n {
		limit = count
	}
	start := count - limit
	var written int64
	for i := uint64(0); i < limit; i++ {
		rec := ring[(start+i)%n]
		b := []byte(rec.text)
		if rec.terminated {
			b = append(b, delim)
		}
		nw, err := out.Write(b)
		written += int64(nw)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
