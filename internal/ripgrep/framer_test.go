package ripgrep

import (
	"bytes"
	"errors"
	"testing"
)

func collect(f *LineFramer, chunks ...[]byte) []string {
	var out []string
	for _, chunk := range chunks {
		for _, line := range f.Feed(chunk) {
			out = append(out, string(line))
		}
	}
	if last, ok := f.Flush(); ok {
		out = append(out, string(last))
	}
	return out
}

func TestLineFramerSplitsLines(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{name: "empty", chunks: nil, want: nil},
		{name: "no newline", chunks: []string{"abc"}, want: []string{"abc"}},
		{name: "single line", chunks: []string{"abc\n"}, want: []string{"abc"}},
		{name: "many lines one chunk", chunks: []string{"a\nb\nc\n"}, want: []string{"a", "b", "c"}},
		{name: "split across chunks", chunks: []string{"ab", "c\nd", "e\n"}, want: []string{"abc", "de"}},
		{name: "crlf", chunks: []string{"a\r\nb\r", "\n"}, want: []string{"a", "b"}},
		{name: "empty lines kept", chunks: []string{"\n\nx\n"}, want: []string{"", "", "x"}},
		{name: "trailing partial flushed", chunks: []string{"a\npart"}, want: []string{"a", "part"}},
		{name: "newline only chunk", chunks: []string{"abc", "\n", "\n"}, want: []string{"abc", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f LineFramer
			chunks := make([][]byte, 0, len(tt.chunks))
			for _, c := range tt.chunks {
				chunks = append(chunks, []byte(c))
			}
			got := collect(&f, chunks...)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines %q, got %d %q", len(tt.want), tt.want, len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("line %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestLineFramerChunkingInvariance(t *testing.T) {
	stream := []byte("{\"type\":\"begin\"}\nfoo bar\r\n\n\nlast line without newline\nx\ny")

	var reference LineFramer
	want := collect(&reference, stream)

	for size := 1; size <= len(stream); size++ {
		var f LineFramer
		var chunks [][]byte
		for start := 0; start < len(stream); start += size {
			end := start + size
			if end > len(stream) {
				end = len(stream)
			}
			chunks = append(chunks, stream[start:end])
		}
		got := collect(&f, chunks...)
		if len(got) != len(want) {
			t.Fatalf("chunk size %d: expected %q, got %q", size, want, got)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("chunk size %d line %d: expected %q, got %q", size, i, want[i], got[i])
			}
		}
	}
}

func TestLineFramerDoesNotAliasInput(t *testing.T) {
	var f LineFramer
	chunk := []byte("abc\n")
	lines := f.Feed(chunk)
	chunk[0] = 'z'
	if string(lines[0]) != "abc" {
		t.Fatalf("expected emitted line to be independent of input, got %q", lines[0])
	}
}

func TestLineFramerFlushClears(t *testing.T) {
	var f LineFramer
	f.Feed([]byte("partial"))
	if f.Pending() != len("partial") {
		t.Fatalf("expected %d pending bytes, got %d", len("partial"), f.Pending())
	}
	if line, ok := f.Flush(); !ok || string(line) != "partial" {
		t.Fatalf("expected flushed partial line, got %q (ok=%v)", line, ok)
	}
	if _, ok := f.Flush(); ok {
		t.Fatalf("expected second flush to be empty")
	}
	if f.Pending() != 0 {
		t.Fatalf("expected empty buffer after flush, got %d", f.Pending())
	}
}

func TestLineFramerReset(t *testing.T) {
	var f LineFramer
	f.Feed([]byte("stale"))
	f.Reset()
	lines := f.Feed([]byte("fresh\n"))
	if len(lines) != 1 || string(lines[0]) != "fresh" {
		t.Fatalf("expected only fresh line after reset, got %q", lines)
	}
}

func TestLineFramerDropsOversizedLine(t *testing.T) {
	var f LineFramer
	big := bytes.Repeat([]byte("a"), MaxLineBytes+1)

	_, err := f.FeedErr(big)
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
	if f.Pending() != 0 {
		t.Fatalf("expected oversized line to be discarded, %d bytes pending", f.Pending())
	}

	lines, err := f.FeedErr([]byte("tail of big line\nnext\n"))
	if err != nil {
		t.Fatalf("unexpected error after overflow: %v", err)
	}
	if len(lines) != 1 || string(lines[0]) != "next" {
		t.Fatalf("expected only the following line, got %q", lines)
	}
}
