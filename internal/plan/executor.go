package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agentplan/internal/logger"
	"agentplan/internal/memory"
	"agentplan/internal/tool"
	"agentplan/internal/trace"
)

// Planner turns a prompt into a plan
type Planner interface {
	Plan(ctx context.Context, system, prompt string) (*Plan, error)
}

// PlannerFunc adapts a function to Planner
type PlannerFunc func(ctx context.Context, system, prompt string) (*Plan, error)

func (f PlannerFunc) Plan(ctx context.Context, system, prompt string) (*Plan, error) {
	return f(ctx, system, prompt)
}

// Executor obtains a plan for each prompt and runs it against a tool
// registry and a memory log. One Executor serves one session; Run calls
// must not overlap on the same memory log.
type Executor struct {
	planner        Planner
	tools          *tool.Executor
	memory         *memory.Log
	sink           trace.Sink
	log            *logger.Logger
	system         string
	agent          string
	record         bool
	plannerTimeout time.Duration
}

// Option configures an Executor
type Option func(*Executor)

// WithMemory sets the log that the memory tool reads and successful runs
// append to
func WithMemory(log *memory.Log) Option {
	return func(e *Executor) {
		if log != nil {
			e.memory = log
		}
	}
}

// WithTrace sets where step entries are written
func WithTrace(sink trace.Sink) Option {
	return func(e *Executor) {
		if sink != nil {
			e.sink = sink
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSystemPrompt sets the instructions passed to the planner
func WithSystemPrompt(system string) Option {
	return func(e *Executor) {
		e.system = system
	}
}

// WithAgent tags trace entries with the agent running the plan
func WithAgent(name string) Option {
	return func(e *Executor) {
		e.agent = name
	}
}

// WithRecordMemory controls whether successful runs append to memory.
// Executors nested under a router leave recording to the router.
func WithRecordMemory(record bool) Option {
	return func(e *Executor) {
		e.record = record
	}
}

// WithPlannerTimeout bounds the planner call; zero means no bound
func WithPlannerTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.plannerTimeout = d
	}
}

func NewExecutor(planner Planner, tools *tool.Executor, opts ...Option) *Executor {
	e := &Executor{
		planner: planner,
		tools:   tools,
		memory:  memory.NewLog(),
		sink:    trace.Discard,
		log:     logger.Discard(),
		record:  true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Memory returns the log the executor reads and writes
func (e *Executor) Memory() *memory.Log {
	return e.memory
}

// Run plans and executes one request. It never panics on a bad plan or a
// failing tool; failures come back in the result.
func (e *Executor) Run(ctx context.Context, prompt string) *RunResult {
	runID := trace.NewRunID()
	start := time.Now()
	e.log.RunStart(prompt)

	p, err := e.plan(ctx, prompt)
	if err != nil {
		result := e.fail(ctx, runID, &Failure{Kind: PlanningFailure, Err: err}, nil)
		e.log.RunEnd(time.Since(start), 0, true)
		return result
	}
	e.log.Debug("plan has %d step(s)", len(p.Steps))

	result := e.execute(ctx, runID, prompt, p)
	e.log.RunEnd(time.Since(start), len(result.Steps), result.Failed())
	return result
}

// Execute runs an already obtained plan without calling the planner
func (e *Executor) Execute(ctx context.Context, prompt string, p *Plan) *RunResult {
	return e.execute(ctx, trace.NewRunID(), prompt, p)
}

func (e *Executor) plan(ctx context.Context, prompt string) (*Plan, error) {
	if e.planner == nil {
		return nil, errors.New("no planner configured")
	}
	if e.plannerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.plannerTimeout)
		defer cancel()
	}
	p, err := e.planner.Plan(ctx, e.system, prompt)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("planner returned no plan")
	}
	return p, nil
}

func (e *Executor) execute(ctx context.Context, runID, prompt string, p *Plan) *RunResult {
	var last any
	steps := make([]trace.Entry, 0, len(p.Steps))

	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, runID, &Failure{Kind: ToolExecutionFailure, Tool: step.Tool, Err: err}, steps)
		}

		args := step.Resolve(last)
		e.log.Step(i, step.Tool, args, step.Reasoning)

		entry := trace.Entry{
			RunID:     runID,
			Agent:     e.agent,
			Kind:      trace.KindStep,
			Step:      i,
			Tool:      step.Tool,
			Args:      args,
			Reasoning: step.Reasoning,
		}

		started := time.Now()
		out, failure := e.dispatch(ctx, step, args)
		entry.Timestamp = time.Now()

		if failure != nil {
			if failure.Kind == UnknownToolFailure {
				entry.Args = step.Raw()
			}
			entry.Error = failure.Error()
			e.write(ctx, entry)
			e.log.StepResult(step.Tool, false, entry.Error, time.Since(started))
			steps = append(steps, entry)
			return e.fail(ctx, runID, failure, steps)
		}

		entry.Result = out
		e.write(ctx, entry)
		e.log.StepResult(step.Tool, true, tool.Text(out), time.Since(started))
		steps = append(steps, entry)
		last = out
	}

	if len(steps) > 0 && e.record {
		if err := e.memory.Append(ctx, prompt, last); err != nil {
			e.log.Warn("memory not persisted: %v", err)
		}
	}

	return &RunResult{RunID: runID, FinalResult: last, Steps: steps}
}

// dispatch runs a single resolved step
func (e *Executor) dispatch(ctx context.Context, step Step, args []any) (any, *Failure) {
	if step.Tool == tool.ReservedMemory {
		return e.memory.Lookup(memoryRef(args)), nil
	}

	res, err := e.tools.Call(ctx, step.Tool, args)
	if err != nil {
		if errors.Is(err, tool.ErrNotFound) {
			return nil, &Failure{Kind: UnknownToolFailure, Tool: step.Tool, Err: err}
		}
		return nil, &Failure{Kind: ToolExecutionFailure, Tool: step.Tool, Err: err}
	}
	return res.Output, nil
}

// memoryRef joins the memory tool's arguments into one reference
func memoryRef(args []any) string {
	if len(args) == 0 {
		return "last answer"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = tool.Text(a)
	}
	return strings.Join(parts, " ")
}

// fail writes the terminal failure record and builds the failed result
func (e *Executor) fail(ctx context.Context, runID string, failure *Failure, steps []trace.Entry) *RunResult {
	e.log.Error("%v", failure)
	e.write(ctx, trace.Entry{
		Timestamp: time.Now(),
		RunID:     runID,
		Agent:     e.agent,
		Kind:      trace.KindFailure,
		Step:      len(steps),
		Tool:      failureTool(failure),
		Error:     failure.Error(),
	})
	return &RunResult{RunID: runID, Err: failure, Steps: steps}
}

func failureTool(f *Failure) string {
	if f.Tool == "" {
		return "unknown"
	}
	return f.Tool
}

// write records an entry; trace write failures never abort a run
func (e *Executor) write(ctx context.Context, entry trace.Entry) {
	if err := e.sink.Write(context.WithoutCancel(ctx), entry); err != nil {
		e.log.Warn("trace write failed: %v", fmt.Errorf("step %d: %w", entry.Step, err))
	}
}
