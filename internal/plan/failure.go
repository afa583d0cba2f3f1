package plan

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a run stopped
type FailureKind int

const (
	// PlanningFailure: no well-formed plan could be obtained. No step ran.
	PlanningFailure FailureKind = iota + 1
	// UnknownToolFailure: a step named a tool that is not registered
	UnknownToolFailure
	// UnknownAgentFailure: the router chose an agent that does not exist
	UnknownAgentFailure
	// ToolExecutionFailure: a tool was called and returned an error
	ToolExecutionFailure
)

func (k FailureKind) String() string {
	switch k {
	case PlanningFailure:
		return "planning_failure"
	case UnknownToolFailure:
		return "unknown_tool"
	case UnknownAgentFailure:
		return "unknown_agent"
	case ToolExecutionFailure:
		return "tool_execution_failure"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Failure is the error of a failed run
type Failure struct {
	Kind FailureKind
	// Tool is the step's tool, or the agent name for UnknownAgentFailure
	Tool string
	Err  error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case PlanningFailure:
		return fmt.Sprintf("planning failed: %v", f.Err)
	case UnknownToolFailure:
		return fmt.Sprintf("Unknown tool: %s", f.Tool)
	case UnknownAgentFailure:
		return fmt.Sprintf("Unknown agent: %s", f.Tool)
	default:
		if f.Tool == "" {
			return f.Err.Error()
		}
		return fmt.Sprintf("%s: %v", f.Tool, f.Err)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IsKind reports whether err is, or wraps, a Failure of the given kind
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}
