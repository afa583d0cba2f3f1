package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tool is a named, fixed-arity function a plan can invoke
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description returns the text shown to the planner
	Description() string

	// Params returns the positional parameters, in call order
	Params() []Param

	// Call runs the tool with positional arguments already resolved
	Call(ctx context.Context, args []any) (any, error)
}

// Param describes one positional argument
type Param struct {
	Name        string
	Description string
	// Optional parameters may be omitted from the end of the argument list
	Optional bool
}

var (
	// ErrNotFound is returned when no tool is registered under a name
	ErrNotFound = errors.New("tool not found")
	// ErrDenied is returned when a hook refused the call
	ErrDenied = errors.New("tool execution denied")
)

// ArityError reports a call with the wrong number of arguments
type ArityError struct {
	Tool     string
	Got      int
	Min, Max int
}

func (e *ArityError) Error() string {
	if e.Min == e.Max {
		return fmt.Sprintf("%s expects %d argument(s), got %d", e.Tool, e.Max, e.Got)
	}
	return fmt.Sprintf("%s expects %d to %d argument(s), got %d", e.Tool, e.Min, e.Max, e.Got)
}

// Arity returns the required and total argument counts of a tool
func Arity(t Tool) (required, total int) {
	params := t.Params()
	for _, p := range params {
		if !p.Optional {
			required++
		}
	}
	return required, len(params)
}

// Signature renders "name(a, b?)" for prompts and listings
func Signature(t Tool) string {
	params := t.Params()
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
		if p.Optional {
			names[i] += "?"
		}
	}
	return fmt.Sprintf("%s(%s)", t.Name(), strings.Join(names, ", "))
}

// CallResult records one dispatched call
type CallResult struct {
	ToolName  string
	Args      []any
	Output    any
	Err       error
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the call took
func (r *CallResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Func is a Tool built from a plain Go function
type Func struct {
	name        string
	description string
	params      []Param
	fn          func(ctx context.Context, args []any) (any, error)
}

// NewFunc creates a Tool from a function. The registry checks arity before
// fn runs, so fn may index args up to the number of required params.
func NewFunc(name, description string, params []Param, fn func(ctx context.Context, args []any) (any, error)) *Func {
	return &Func{
		name:        name,
		description: description,
		params:      params,
		fn:          fn,
	}
}

func (f *Func) Name() string {
	return f.name
}

func (f *Func) Description() string {
	return f.description
}

func (f *Func) Params() []Param {
	return f.params
}

func (f *Func) Call(ctx context.Context, args []any) (any, error) {
	return f.fn(ctx, args)
}
