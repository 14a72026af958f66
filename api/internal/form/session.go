package form

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"math-feedback/api/internal/analyze"
)

//go:generate mockgen -destination=../../mocks/mock_submitter.go -package=mocks . Submitter

// Submitter is the analysis client as seen by a form.
type Submitter interface {
	Submit(ctx context.Context, in analyze.Input) analyze.Result
}

// Session is one form instance: its input, its status and the last result.
// At most one submission is outstanding at a time.
type Session struct {
	mu     sync.Mutex
	state  State
	closed bool
	seen   time.Time

	client Submitter
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(parent context.Context, client Submitter, log *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{client: client, log: log, ctx: ctx, cancel: cancel, seen: time.Now()}
}

func (s *Session) SetText(text string) { s.apply(TextChanged{Text: text}) }

func (s *Session) SetFile(f *analyze.Upload) { s.apply(FileChanged{File: f}) }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CanSubmit() bool { return s.State().CanSubmit() }

func (s *Session) apply(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	next, ok := Reduce(s.state, e)
	s.state = next
	s.seen = time.Now()
	return ok
}

// idle reports how long the session has gone untouched. In-flight sessions are never idle.
func (s *Session) idle(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status == InFlight {
		return 0, false
	}
	return now.Sub(s.seen), true
}

// Submit runs one submission and blocks until it resolves.
// It returns ok=false without calling the client when another submission is
// in flight or the session is closed, and also when the session was closed
// while waiting (the late result is dropped).
func (s *Session) Submit() (analyze.Result, bool) {
	run, ok := s.Start()
	if !ok {
		return analyze.Result{}, false
	}
	return run()
}

// Start claims the submission slot and moves the form to InFlight before any
// request is made. The returned run sends the claimed input and must be called
// exactly once; ok=false means the slot was taken or the session is closed.
func (s *Session) Start() (run func() (analyze.Result, bool), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	next, ok := Reduce(s.state, SubmitStarted{})
	if !ok {
		s.log.Debug("Submit ignored, already in flight")
		return nil, false
	}
	s.state = next
	s.seen = time.Now()
	in, ctx := s.state.Input, s.ctx
	return func() (analyze.Result, bool) { return s.finish(s.client.Submit(ctx, in)) }, true
}

func (s *Session) finish(res analyze.Result) (analyze.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("Dropping result of closed session", "success", res.Success)
		return analyze.Result{}, false
	}
	s.state, _ = Reduce(s.state, SubmitFinished{Result: res})
	s.seen = time.Now()
	return res, true
}

// Close cancels any outstanding request and freezes the session.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
