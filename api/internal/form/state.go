package form

import "math-feedback/api/internal/analyze"

type Status int

const (
	Idle Status = iota
	InFlight
	Completed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// State is everything a form holds between user actions.
type State struct {
	Input  analyze.Input
	Status Status
	Result analyze.Result // zero until the first submission completes
}

func (s State) CanSubmit() bool { return s.Input.CanSubmit() }

// Event is one of TextChanged, FileChanged, SubmitStarted, SubmitFinished.
type Event interface{ isEvent() }

type (
	TextChanged    struct{ Text string }
	FileChanged    struct{ File *analyze.Upload }
	SubmitStarted  struct{}
	SubmitFinished struct{ Result analyze.Result }
)

func (TextChanged) isEvent()    {}
func (FileChanged) isEvent()    {}
func (SubmitStarted) isEvent()  {}
func (SubmitFinished) isEvent() {}

// Reduce applies e to s. The bool is false when e is not allowed in the current
// status; the returned state is then s unchanged.
//
//	Idle/Completed --SubmitStarted--> InFlight --SubmitFinished--> Completed
func Reduce(s State, e Event) (State, bool) {
	switch ev := e.(type) {
	case TextChanged:
		s.Input.Text = ev.Text
		return s, true
	case FileChanged:
		s.Input.File = ev.File
		return s, true
	case SubmitStarted:
		if s.Status == InFlight {
			return s, false
		}
		s.Status = InFlight
		s.Result = analyze.Result{}
		return s, true
	case SubmitFinished:
		if s.Status != InFlight {
			return s, false
		}
		s.Status = Completed
		s.Result = ev.Result
		return s, true
	default:
		return s, false
	}
}
