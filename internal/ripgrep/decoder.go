package ripgrep

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrSyntax marks lines that are not a JSON object.
	ErrSyntax = errors.New("invalid json")
	// ErrMissingType marks objects without a string "type" field.
	ErrMissingType = errors.New("missing event type")
	// ErrMissingField marks recognised events lacking a required field.
	ErrMissingField = errors.New("missing required field")
)

const excerptLen = 120

// DecodeError describes a line that could not be turned into an event. It is
// a diagnostic only; callers keep processing subsequent lines.
type DecodeError struct {
	Kind   error
	Reason string
	Line   string
}

func (e *DecodeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("ripgrep: %v: %q", e.Kind, e.Line)
	}
	return fmt.Sprintf("ripgrep: %v: %s: %q", e.Kind, e.Reason, e.Line)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// textField is ripgrep's "arbitrary data" encoding: UTF-8 content is sent as
// text, anything else as base64 bytes.
type textField struct {
	Text  *string `json:"text"`
	Bytes *string `json:"bytes"`
}

func (f *textField) value() (string, bool) {
	if f == nil {
		return "", false
	}
	if f.Text != nil {
		return *f.Text, true
	}
	if f.Bytes != nil {
		raw, err := base64.StdEncoding.DecodeString(*f.Bytes)
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
	return "", false
}

type envelope struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

type beginData struct {
	Path *textField `json:"path"`
}

type matchData struct {
	Path       *textField `json:"path"`
	Lines      *textField `json:"lines"`
	LineNumber *int       `json:"line_number"`
	Submatches []Submatch `json:"submatches"`
}

type summaryData struct {
	Stats *struct {
		Matches *int `json:"matches"`
	} `json:"stats"`
	ElapsedTotal *struct {
		Nanos *int64 `json:"nanos"`
	} `json:"elapsed_total"`
}

// Decode parses a single line of ripgrep --json output.
//
// Blank lines and unknown event types yield (nil, nil). Lines that cannot be
// decoded yield a *DecodeError. Decode never panics, whatever the input.
func Decode(line []byte) (Event, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "type" {
			return nil, newDecodeError(ErrMissingType, "type is not a string", trimmed)
		}
		return nil, newDecodeError(ErrSyntax, err.Error(), trimmed)
	}
	if env.Type == nil {
		return nil, newDecodeError(ErrMissingType, "", trimmed)
	}

	switch *env.Type {
	case "begin":
		return decodeBegin(env.Data, trimmed)
	case "match":
		return decodeMatch(env.Data, trimmed)
	case "summary":
		return decodeSummary(env.Data, trimmed)
	default:
		// end, context and any future message kinds carry nothing we need.
		return nil, nil
	}
}

func decodeBegin(raw json.RawMessage, line []byte) (Event, error) {
	var data beginData
	if err := unmarshalData(raw, &data); err != nil {
		return nil, newDecodeError(ErrMissingField, "begin: "+err.Error(), line)
	}
	file, ok := data.Path.value()
	if !ok {
		return nil, newDecodeError(ErrMissingField, "begin: data.path", line)
	}
	return BeginEvent{File: file}, nil
}

func decodeMatch(raw json.RawMessage, line []byte) (Event, error) {
	var data matchData
	if err := unmarshalData(raw, &data); err != nil {
		return nil, newDecodeError(ErrMissingField, "match: "+err.Error(), line)
	}

	file, ok := data.Path.value()
	if !ok {
		return nil, newDecodeError(ErrMissingField, "match: data.path", line)
	}
	text, ok := data.Lines.value()
	if !ok {
		return nil, newDecodeError(ErrMissingField, "match: data.lines", line)
	}
	if data.LineNumber == nil {
		return nil, newDecodeError(ErrMissingField, "match: data.line_number", line)
	}
	if *data.LineNumber < 1 {
		return nil, newDecodeError(
			ErrMissingField,
			fmt.Sprintf("match: data.line_number %d is not positive", *data.LineNumber),
			line,
		)
	}

	text = strings.TrimRightFunc(text, unicode.IsSpace)
	return MatchEvent{
		File:       file,
		LineNumber: *data.LineNumber,
		LineText:   text,
		Submatches: clampSubmatches(data.Submatches, len(text)),
	}, nil
}

func decodeSummary(raw json.RawMessage, line []byte) (Event, error) {
	var data summaryData
	if err := unmarshalData(raw, &data); err != nil {
		return nil, newDecodeError(ErrMissingField, "summary: "+err.Error(), line)
	}
	if data.Stats == nil || data.Stats.Matches == nil {
		return nil, newDecodeError(ErrMissingField, "summary: data.stats.matches", line)
	}

	var nanos int64
	if data.ElapsedTotal != nil && data.ElapsedTotal.Nanos != nil {
		nanos = *data.ElapsedTotal.Nanos
	}
	if nanos < 0 {
		nanos = 0
	}
	matches := *data.Stats.Matches
	if matches < 0 {
		matches = 0
	}
	return SummaryEvent{MatchCount: matches, ElapsedNanos: nanos}, nil
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errors.New("data is missing")
	}
	return json.Unmarshal(raw, v)
}

// clampSubmatches keeps spans inside the (possibly trimmed) line text and
// drops those that end up empty.
func clampSubmatches(spans []Submatch, limit int) []Submatch {
	if len(spans) == 0 {
		return nil
	}
	out := make([]Submatch, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > limit {
			s.End = limit
		}
		if s.End <= s.Start {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func newDecodeError(kind error, reason string, line []byte) *DecodeError {
	excerpt := line
	if len(excerpt) > excerptLen {
		excerpt = excerpt[:excerptLen]
	}
	return &DecodeError{
		Kind:   kind,
		Reason: reason,
		Line:   strings.ToValidUTF8(string(excerpt), string(utf8.RuneError)),
	}
}
