package ripgrep

// Event is one decoded message from ripgrep's --json stream. The set of
// implementations is closed: BeginEvent, MatchEvent and SummaryEvent.
type Event interface {
	Kind() string
}

// Submatch is a highlighted span within a matched line. Offsets are 0-based
// byte positions into the line text, half-open.
type Submatch struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span width in bytes.
func (s Submatch) Len() int {
	return s.End - s.Start
}

// BeginEvent announces that ripgrep started reporting results for File.
type BeginEvent struct {
	File string
}

// MatchEvent is a single matching line.
type MatchEvent struct {
	File       string
	LineNumber int
	LineText   string
	Submatches []Submatch
}

// SummaryEvent is the terminal statistics message.
type SummaryEvent struct {
	MatchCount   int
	ElapsedNanos int64
}

func (BeginEvent) Kind() string   { return "begin" }
func (MatchEvent) Kind() string   { return "match" }
func (SummaryEvent) Kind() string { return "summary" }
