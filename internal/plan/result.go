package plan

import (
	"encoding/json"

	"agentplan/internal/trace"
)

// RunResult is what a request cycle returns: a final result or an error,
// plus the trace of every step attempted.
type RunResult struct {
	RunID       string
	FinalResult any
	Err         error
	Steps       []trace.Entry
}

// Failed reports whether the run ended in an error
func (r *RunResult) Failed() bool {
	return r.Err != nil
}

func (r *RunResult) MarshalJSON() ([]byte, error) {
	steps := r.Steps
	if steps == nil {
		steps = []trace.Entry{}
	}
	if r.Err != nil {
		return json.Marshal(struct {
			Error string        `json:"error"`
			Steps []trace.Entry `json:"steps"`
		}{r.Err.Error(), steps})
	}
	return json.Marshal(struct {
		FinalResult any           `json:"final_result"`
		Steps       []trace.Entry `json:"steps"`
	}{r.FinalResult, steps})
}
