package workflow

import (
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/retrieval"
)

// State is a workflow state.
type State string

const (
	StateInit             State = "init"
	StateIntentClassified State = "intent_classified"
	StateRetrieved        State = "retrieved"
	StateGenerated        State = "generated"
	StateValidated        State = "validated"
	StateOutputEmitted    State = "output_emitted"
	StateDone             State = "done"
	StateError            State = "error"
)

// ApologyPrefix starts the final response of a failed run.
const ApologyPrefix = "죄송합니다. 처리 중 오류가 발생했습니다: "

// Request is one user request.
type Request struct {
	Query    string
	FilePath string

	// SessionID selects the conversation memory. Empty disables memory.
	SessionID string

	// Scope partitions the index cache, for example per user. Empty
	// shares indices across scopes.
	Scope string
}

// Run is the state of one workflow execution.
type Run struct {
	Query     string
	FilePath  string
	SessionID string

	TaskType core.TaskType
	Label    string
	Plan     retrieval.Plan

	// Retrieved is the number of chunks behind Context. Zero when
	// UsedFallback is set.
	Retrieved    int
	Context      string
	UsedFallback bool

	RawResponse   string
	FinalResponse string
	Translated    bool
	OutputPath    string

	Success      bool
	Err          error
	ErrorMessage string

	State State
	Trace []State
}

func newRun(req Request) *Run {
	return &Run{
		Query:     req.Query,
		FilePath:  req.FilePath,
		SessionID: req.SessionID,
		State:     StateInit,
		Trace:     []State{StateInit},
	}
}

func (r *Run) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}

// fail routes the run to StateError with message as the user-facing
// detail, then ends it.
func (r *Run) fail(err error, message string) {
	r.Err = err
	r.ErrorMessage = message
	r.Success = false
	r.FinalResponse = ApologyPrefix + message
	r.enter(StateError)
	r.enter(StateDone)
}
