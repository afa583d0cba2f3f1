package hook

import (
	"context"
	"time"
)

// Point defines when a hook is triggered
type Point string

const (
	// BeforeToolExecution fires once the step's arguments are resolved and
	// before the tool runs. A denial aborts the plan.
	BeforeToolExecution Point = "before_tool_execution"
	// AfterToolExecution fires after a tool returned, successful or not.
	AfterToolExecution Point = "after_tool_execution"
)

// Data carries the step being executed to the handlers
type Data struct {
	Point     Point
	Timestamp time.Time
	ToolName  string
	Args      []any
	Result    any
	Err       error
	Duration  time.Duration
}

// NewData creates a new Data instance for a tool
func NewData(point Point, toolName string, args []any) *Data {
	return &Data{
		Point:     point,
		Timestamp: time.Now(),
		ToolName:  toolName,
		Args:      args,
	}
}

// Feedback is returned by handlers to control execution flow
type Feedback struct {
	Allow   bool
	Message string
}

// AllowFeedback creates an allow feedback
func AllowFeedback() *Feedback {
	return &Feedback{Allow: true}
}

// DenyFeedback creates a deny feedback with message
func DenyFeedback(message string) *Feedback {
	return &Feedback{Allow: false, Message: message}
}

// Handler is the interface for hook handlers
type Handler interface {
	// Name returns the handler name
	Name() string

	// Points returns which hook points this handler listens to
	Points() []Point

	// Handle processes the hook event and returns feedback
	Handle(ctx context.Context, data *Data) (*Feedback, error)

	// Priority returns the handler priority (higher = earlier execution)
	Priority() int
}

// Func adapts a plain function into a Handler
type Func struct {
	HandlerName string
	On          []Point
	Order       int
	Fn          func(ctx context.Context, data *Data) (*Feedback, error)
}

func (f *Func) Name() string { return f.HandlerName }

func (f *Func) Points() []Point { return f.On }

func (f *Func) Priority() int { return f.Order }

func (f *Func) Handle(ctx context.Context, data *Data) (*Feedback, error) {
	return f.Fn(ctx, data)
}
