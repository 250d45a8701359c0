package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Paintersrp/rgpanel/internal/ripgrep"
)

var (
	// ErrLaunch wraps failures to spawn the rg process.
	ErrLaunch = errors.New("failed to launch search process")
	// ErrAbnormalExit is reported when rg exits with an error status or is
	// killed by a signal it did not receive from the session.
	ErrAbnormalExit = errors.New("search process exited abnormally")
	// ErrCancelled is returned by Run.Wait for runs that were cancelled.
	ErrCancelled = errors.New("search cancelled")
	// ErrClosed signals that the session has been shut down.
	ErrClosed = errors.New("search session closed")
	// ErrOrphanMatch is diagnosed when rg reports a match before any file.
	ErrOrphanMatch = errors.New("match event without an open file")
)

const readChunkSize = 32 << 10

// State is the lifecycle state of a session or run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats summarises a completed run.
type Stats struct {
	MatchCount   int
	ElapsedNanos int64
	// FromSummary is false when rg sent no summary event and the count was
	// taken from the matches seen.
	FromSummary bool
}

// Elapsed returns ElapsedNanos as a duration.
func (s Stats) Elapsed() time.Duration {
	return time.Duration(s.ElapsedNanos)
}

// Run is the handle for one launched search.
type Run struct {
	id      RunID
	request Request
	options Options
	done    chan struct{}

	mu    sync.Mutex
	state State
	stats Stats
	err   error
}

func newRun(id RunID, req Request, opts Options) *Run {
	return &Run{
		id:      id,
		request: req,
		options: opts,
		done:    make(chan struct{}),
		state:   StateRunning,
	}
}

// ID returns the run identifier carried by its notifications.
func (r *Run) ID() RunID { return r.id }

// Request returns the request the run was started with.
func (r *Run) Request() Request { return r.request }

// Options returns the options the run was started with.
func (r *Run) Options() Options { return r.options }

// Done is closed once the run has completed or been cancelled.
func (r *Run) Done() <-chan struct{} { return r.done }

// State returns StateRunning, StateCompleted or StateCancelled.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Wait blocks until the run ends or ctx is done. Cancelled runs return
// ErrCancelled; completed runs return their stats and any abnormal-exit error.
func (r *Run) Wait(ctx context.Context) (Stats, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats, r.err
}

func (r *Run) finish(state State, stats Stats, err error) {
	r.mu.Lock()
	r.state = state
	r.stats = stats
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

// activeRun ties a Run to its process. The session holds at most one; the
// reader goroutine compares its pointer with the session's to detect that it
// has been superseded.
type activeRun struct {
	run     *Run
	proc    Process
	started time.Time
	stop    func() bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithListener registers a notification listener. It may be given more than
// once.
func WithListener(l Listener) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithLogger sets the logger used for diagnostics and lifecycle messages.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgram overrides the rg executable.
func WithProgram(program string) SessionOption {
	return func(s *Session) {
		if program != "" {
			s.program = program
		}
	}
}

// WithExtraArgs appends raw rg flags before the --json flag.
func WithExtraArgs(args ...string) SessionOption {
	return func(s *Session) {
		s.extraArgs = append([]string(nil), args...)
	}
}

// Session owns the rg process for one results view and folds its output into
// a result tree. At most one search is active at a time: starting a new one
// kills the previous process first.
type Session struct {
	mu        sync.Mutex
	launcher  Launcher
	program   string
	extraArgs []string
	listeners []Listener
	logger    *slog.Logger

	state   State
	closed  bool
	lastID  RunID
	current *activeRun
	request Request
	options Options
	tree    Tree
	framer  ripgrep.LineFramer
	summary *Stats
}

// NewSession constructs an idle session that spawns processes through
// launcher.
func NewSession(launcher Launcher, opts ...SessionOption) *Session {
	s := &Session{
		launcher: launcher,
		program:  ripgrep.DefaultProgram,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches a search for req with opts, cancelling any running search
// first. Invalid requests return an error wrapping ErrNothingToSearch without
// spawning anything; spawn failures return an error wrapping ErrLaunch. In
// both cases the session is left idle.
//
// Cancelling ctx cancels the run.
func (s *Session) Start(ctx context.Context, req Request, opts Options) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	s.cancelLocked()
	s.state = StateIdle

	if err := req.Validate(); err != nil {
		s.logger.Debug("search not started", "reason", err)
		return nil, err
	}

	req = req.clone()
	opts = opts.Clone()
	args := ripgrep.BuildArgs(req.Term, opts, req.Scope.Targets(), s.extraArgs...)

	s.tree.reset()
	s.framer.Reset()
	s.summary = nil
	s.request = req
	s.options = opts
	s.lastID++
	id := s.lastID

	proc, err := s.launcher.Launch(ctx, s.program, args)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrLaunch, s.program, err)
		s.logger.Error("search launch failed", "run", id, "program", s.program, "err", err)
		s.notify(LaunchFailed{Run: id, Err: err})
		return nil, err
	}

	ar := &activeRun{
		run:     newRun(id, req, opts),
		proc:    proc,
		started: time.Now(),
	}
	ar.stop = context.AfterFunc(ctx, func() { s.cancelRun(ar) })
	s.current = ar
	s.state = StateRunning

	s.logger.Info("search started", "run", id, "term", req.Term, "targets", len(req.Scope.Targets()))
	s.notify(SearchStarted{Run: id, Request: req, Options: opts, Args: args})

	go s.read(ar)
	return ar.run, nil
}

// Cancel kills the running search, if any, and reports whether one was
// running. The result tree is left as it was.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

// Close cancels any running search and rejects further starts.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
	return nil
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tree returns a copy of the current result tree.
func (s *Session) Tree() []FileNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Snapshot()
}

// Request returns the most recently started request.
func (s *Session) Request() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request.clone()
}

// Options returns the options of the most recently started request.
func (s *Session) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options.Clone()
}

func (s *Session) cancelRun(ar *activeRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == ar {
		s.cancelLocked()
	}
}

func (s *Session) cancelLocked() bool {
	ar := s.current
	if ar == nil {
		return false
	}

	s.current = nil
	ar.stop()
	if err := ar.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Debug("kill search process", "run", ar.run.id, "err", err)
	}
	s.framer.Reset()
	s.state = StateIdle

	ar.run.finish(StateCancelled, Stats{}, ErrCancelled)
	s.logger.Info("search cancelled", "run", ar.run.id, "after", time.Since(ar.started))
	s.notify(SearchCancelled{Run: ar.run.id})
	return true
}

// read pumps stdout into the session until EOF or until the run is
// superseded, then reaps the process.
func (s *Session) read(ar *activeRun) {
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		s.drainStderr(ar)
	}()

	buf := make([]byte, readChunkSize)
	stdout := ar.proc.Stdout()
	for {
		n, err := stdout.Read(buf)
		if n > 0 && !s.consume(ar, buf[:n]) {
			// Superseded: the process has been killed, stop applying output.
			break
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Debug("read search output", "run", ar.run.id, "err", err)
			}
			break
		}
	}

	<-stderrDone
	code, err := ar.proc.Wait()
	s.finish(ar, code, err)
}

func (s *Session) drainStderr(ar *activeRun) {
	stderr := ar.proc.Stderr()
	if stderr == nil {
		return
	}

	var framer ripgrep.LineFramer
	buf := make([]byte, 4<<10)
	for {
		n, err := stderr.Read(buf)
		for _, line := range framer.Feed(buf[:n]) {
			s.logger.Debug("rg stderr", "run", ar.run.id, "line", string(line))
		}
		if err != nil {
			break
		}
	}
	if line, ok := framer.Flush(); ok {
		s.logger.Debug("rg stderr", "run", ar.run.id, "line", string(line))
	}
}

func (s *Session) consume(ar *activeRun, chunk []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != ar {
		return false
	}

	lines, err := s.framer.FeedErr(chunk)
	if err != nil {
		s.diagnose(ar.run.id, err)
	}
	for _, line := range lines {
		s.apply(ar.run.id, line)
	}
	return true
}

func (s *Session) finish(ar *activeRun, code int, waitErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != ar {
		return
	}

	if line, ok := s.framer.Flush(); ok {
		s.apply(ar.run.id, line)
	}

	stats := Stats{MatchCount: s.tree.MatchCount()}
	if s.summary != nil {
		stats = *s.summary
	}

	var err error
	switch {
	case waitErr != nil:
		err = fmt.Errorf("%w: %w", ErrAbnormalExit, waitErr)
	case code < 0 || code > 1:
		// rg exits 1 when nothing matched; only 2 and above are errors.
		err = fmt.Errorf("%w: exit status %d", ErrAbnormalExit, code)
	}

	s.current = nil
	ar.stop()
	s.state = StateCompleted
	ar.run.finish(StateCompleted, stats, err)

	if err != nil {
		s.logger.Warn("search finished with error", "run", ar.run.id, "exit", code, "err", err)
	} else {
		s.logger.Info("search finished", "run", ar.run.id, "matches", stats.MatchCount, "files", s.tree.Len(), "after", time.Since(ar.started))
	}
	s.notify(SearchFinished{Run: ar.run.id, Stats: stats, ExitCode: code, Err: err})
}

func (s *Session) apply(id RunID, line []byte) {
	ev, err := ripgrep.Decode(line)
	if err != nil {
		s.diagnose(id, err)
		return
	}

	switch ev := ev.(type) {
	case ripgrep.BeginEvent:
		s.tree.begin(ev.File)
		s.notify(FileStarted{Run: id, File: ev.File})
	case ripgrep.MatchEvent:
		m := Match{
			File:       ev.File,
			LineNumber: ev.LineNumber,
			LineText:   ev.LineText,
			Submatches: ev.Submatches,
		}
		if !s.tree.add(m) {
			s.diagnose(id, fmt.Errorf("%w: %s:%d", ErrOrphanMatch, ev.File, ev.LineNumber))
			return
		}
		s.notify(MatchAdded{
			Run:        id,
			File:       m.File,
			LineText:   m.LineText,
			LineNumber: m.LineNumber,
			Submatches: append([]ripgrep.Submatch(nil), m.Submatches...),
		})
	case ripgrep.SummaryEvent:
		s.summary = &Stats{
			MatchCount:   ev.MatchCount,
			ElapsedNanos: ev.ElapsedNanos,
			FromSummary:  true,
		}
	}
}

func (s *Session) diagnose(id RunID, err error) {
	s.logger.Warn("skipping search output", "run", id, "err", err)
	s.notify(Diagnostic{Run: id, Err: err})
}

func (s *Session) notify(n Notification) {
	for _, l := range s.listeners {
		l(n)
	}
}
