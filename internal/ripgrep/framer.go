package ripgrep

import (
	"bytes"
	"errors"
)

// MaxLineBytes bounds the size of a single pending line. ripgrep never emits
// a JSON event this large for real source files; anything bigger is treated
// as a runaway producer.
const MaxLineBytes = 16 << 20

// ErrLineTooLong is returned by FeedErr when the pending partial line grows
// past MaxLineBytes. The oversized line is discarded.
var ErrLineTooLong = errors.New("ripgrep: line exceeds maximum length")

// LineFramer splits a stream of arbitrary byte chunks into newline-terminated
// lines. It is not safe for concurrent use.
type LineFramer struct {
	pending []byte
	// skipping is set after an oversized line was dropped; the remainder of
	// that line up to the next newline is discarded too.
	skipping bool
}

// Feed appends chunk to the pending buffer and returns every line completed
// by it, in order, without the trailing newline or carriage return.
func (f *LineFramer) Feed(chunk []byte) [][]byte {
	lines, _ := f.FeedErr(chunk)
	return lines
}

// FeedErr behaves like Feed but reports when an oversized partial line had to
// be dropped. Lines completed before the overflow are still returned.
func (f *LineFramer) FeedErr(chunk []byte) ([][]byte, error) {
	var lines [][]byte
	var err error

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			if !f.skipping {
				f.pending = append(f.pending, chunk...)
				if len(f.pending) > MaxLineBytes {
					f.pending = f.pending[:0]
					f.skipping = true
					err = ErrLineTooLong
				}
			}
			break
		}

		if f.skipping {
			f.skipping = false
		} else {
			var line []byte
			if len(f.pending) == 0 {
				line = append([]byte(nil), chunk[:i]...)
			} else {
				line = append(f.pending, chunk[:i]...)
				f.pending = nil
			}
			lines = append(lines, trimCR(line))
		}
		chunk = chunk[i+1:]
	}

	return lines, err
}

// Flush returns the buffered partial line, if any, and clears the buffer.
// It is called once the producing process has exited.
func (f *LineFramer) Flush() ([]byte, bool) {
	skipped := f.skipping
	f.skipping = false
	if len(f.pending) == 0 || skipped {
		f.pending = nil
		return nil, false
	}
	line := trimCR(f.pending)
	f.pending = nil
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

// Reset discards any buffered bytes.
func (f *LineFramer) Reset() {
	f.pending = nil
	f.skipping = false
}

// Pending reports how many bytes are buffered for the current partial line.
func (f *LineFramer) Pending() int {
	return len(f.pending)
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
