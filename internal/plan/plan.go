// Package plan holds the plan model produced by a planner and the executor
// that walks it step by step, feeding each step's result into the next.
package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// PreviousSentinel is the argument value that stands for the prior step's result
const PreviousSentinel = "previous"

// Arg is one positional step argument: a literal value or a reference to
// the previous step's result.
type Arg struct {
	previous bool
	value    any
}

// Literal wraps a plain value
func Literal(v any) Arg {
	return Arg{value: v}
}

// Previous refers to the result of the step before
func Previous() Arg {
	return Arg{previous: true}
}

// IsPrevious reports whether the argument is the previous-result reference
func (a Arg) IsPrevious() bool {
	return a.previous
}

// Value returns the literal value; nil for Previous
func (a Arg) Value() any {
	return a.value
}

// Resolve substitutes last for Previous and returns literals unchanged
func (a Arg) Resolve(last any) any {
	if a.previous {
		return last
	}
	return a.value
}

// UnmarshalJSON decodes the sentinel string "previous" (any case, nothing
// else around it) as Previous. Every other JSON value is a literal; numbers
// decode to float64.
func (a *Arg) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if s, ok := v.(string); ok && strings.EqualFold(s, PreviousSentinel) {
		*a = Previous()
		return nil
	}
	*a = Literal(v)
	return nil
}

func (a Arg) MarshalJSON() ([]byte, error) {
	if a.previous {
		return json.Marshal(PreviousSentinel)
	}
	return json.Marshal(a.value)
}

// Step is one tool call in a plan
type Step struct {
	Tool      string `json:"tool"`
	Args      []Arg  `json:"args"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Literals is a convenience for building steps in code
func Literals(values ...any) []Arg {
	args := make([]Arg, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok && strings.EqualFold(s, PreviousSentinel) {
			args[i] = Previous()
			continue
		}
		args[i] = Literal(v)
	}
	return args
}

// Resolve returns the step's arguments with every Previous replaced by last.
// Several Previous arguments in one step all receive the same value.
func (s Step) Resolve(last any) []any {
	out := make([]any, len(s.Args))
	for i, a := range s.Args {
		out[i] = a.Resolve(last)
	}
	return out
}

// Raw returns the arguments as written in the plan, with Previous rendered
// as the sentinel string
func (s Step) Raw() []any {
	out := make([]any, len(s.Args))
	for i, a := range s.Args {
		if a.previous {
			out[i] = PreviousSentinel
			continue
		}
		out[i] = a.value
	}
	return out
}

var errMissingTool = errors.New(`plan step is missing the "tool" key`)

func (s *Step) UnmarshalJSON(data []byte) error {
	var raw struct {
		Tool      *string         `json:"tool"`
		Args      json.RawMessage `json:"args"`
		Reasoning string          `json:"reasoning"`
		Reason    string          `json:"reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Tool == nil {
		return errMissingTool
	}

	var args []Arg
	trimmed := bytes.TrimSpace(raw.Args)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &args); err != nil {
			return err
		}
	default:
		// A lone value is a one-argument call
		var a Arg
		if err := json.Unmarshal(trimmed, &a); err != nil {
			return err
		}
		args = []Arg{a}
	}

	s.Tool = *raw.Tool
	s.Args = args
	s.Reasoning = raw.Reasoning
	if s.Reasoning == "" {
		s.Reasoning = raw.Reason
	}
	return nil
}

// Plan is the ordered list of steps for one request
type Plan struct {
	Steps []Step `json:"steps"`
}

// Route is a router decision: which agent handles which task
type Route struct {
	Agent string `json:"agent"`
	Task  string `json:"task"`
}
