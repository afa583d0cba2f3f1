package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agentplan/internal/logger"
	"agentplan/internal/memory"
	"agentplan/internal/plan"
	"agentplan/internal/planner"
	"agentplan/internal/trace"
)

// RoutePlanner picks an agent and a task for a prompt
type RoutePlanner interface {
	Route(ctx context.Context, system, prompt string) (*plan.Route, error)
}

// Router sends each prompt to one agent and records successful answers
// in the memory log
type Router struct {
	planner RoutePlanner
	agents  map[Kind]Agent
	order   []Kind
	memory  *memory.Log
	sink    trace.Sink
	log     *logger.Logger
	timeout time.Duration
}

// NewRouter creates a router over the given agents
func NewRouter(p RoutePlanner, mem *memory.Log, agents ...Agent) *Router {
	if mem == nil {
		mem = memory.NewLog()
	}
	r := &Router{
		planner: p,
		agents:  make(map[Kind]Agent, len(agents)),
		memory:  mem,
		sink:    trace.Discard,
		log:     logger.Discard(),
	}
	for _, a := range agents {
		if _, exists := r.agents[a.Kind()]; !exists {
			r.order = append(r.order, a.Kind())
		}
		r.agents[a.Kind()] = a
	}
	return r
}

// NewRouterFromFactory creates every requested kind with factory. With no
// kinds it creates the full roster.
func NewRouterFromFactory(p RoutePlanner, mem *memory.Log, factory Factory, kinds ...Kind) (*Router, error) {
	if len(kinds) == 0 {
		kinds = Kinds()
	}
	agents := make([]Agent, 0, len(kinds))
	for _, k := range kinds {
		a, err := factory.CreateAgent(k)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return NewRouter(p, mem, agents...), nil
}

func (r *Router) SetTrace(sink trace.Sink) {
	if sink != nil {
		r.sink = sink
	}
}

func (r *Router) SetLogger(log *logger.Logger) {
	if log != nil {
		r.log = log
	}
}

// SetTimeout bounds the routing call; zero means no bound
func (r *Router) SetTimeout(d time.Duration) {
	r.timeout = d
}

// Agents returns the routable agent names in roster order
func (r *Router) Agents() []string {
	names := make([]string, len(r.order))
	for i, k := range r.order {
		names[i] = string(k)
	}
	return names
}

// Memory returns the log the router records into
func (r *Router) Memory() *memory.Log {
	return r.memory
}

// Response is the outcome of one routed request
type Response struct {
	RunID  string
	Agent  string
	Task   string
	Result any
	Err    error
	Steps  []trace.Entry
}

func (r *Response) Failed() bool {
	return r.Err != nil
}

func (r *Response) MarshalJSON() ([]byte, error) {
	steps := r.Steps
	if steps == nil {
		steps = []trace.Entry{}
	}
	if r.Err != nil {
		return json.Marshal(struct {
			Agent string        `json:"agent,omitempty"`
			Task  string        `json:"task,omitempty"`
			Error string        `json:"error"`
			Steps []trace.Entry `json:"steps"`
		}{r.Agent, r.Task, r.Err.Error(), steps})
	}
	return json.Marshal(struct {
		Agent  string        `json:"agent"`
		Task   string        `json:"task"`
		Result any           `json:"result"`
		Steps  []trace.Entry `json:"steps"`
	}{r.Agent, r.Task, r.Result, steps})
}

// Handle routes one prompt. It never panics on a bad decision or a failing
// agent; failures come back in the response and leave memory untouched.
func (r *Router) Handle(ctx context.Context, prompt string) *Response {
	runID := trace.NewRunID()
	start := time.Now()
	r.log.RunStart(prompt)

	resp := r.handle(ctx, runID, prompt)
	resp.RunID = runID
	if resp.Err != nil {
		r.log.Error("%v", resp.Err)
	}
	r.log.RunEnd(time.Since(start), len(resp.Steps), resp.Failed())
	return resp
}

func (r *Router) handle(ctx context.Context, runID, prompt string) *Response {
	route, err := r.route(ctx, prompt)
	if err != nil {
		failure := &plan.Failure{Kind: plan.PlanningFailure, Err: err}
		r.write(ctx, trace.Entry{
			Timestamp: time.Now(),
			RunID:     runID,
			Kind:      trace.KindFailure,
			Tool:      "router",
			Args:      []any{prompt},
			Error:     failure.Error(),
		})
		return &Response{Err: failure}
	}

	task := route.Task
	if task == "" {
		task = prompt
	}

	kind, ok := ParseKind(route.Agent)
	a, registered := r.agents[kind]
	if !ok || !registered {
		failure := &plan.Failure{
			Kind: plan.UnknownAgentFailure,
			Tool: route.Agent,
			Err:  fmt.Errorf("available agents: %v", r.Agents()),
		}
		entry := trace.Entry{
			Timestamp: time.Now(),
			RunID:     runID,
			Agent:     route.Agent,
			Kind:      trace.KindFailure,
			Tool:      "router",
			Args:      []any{task},
			Error:     failure.Error(),
		}
		r.write(ctx, entry)
		return &Response{Agent: route.Agent, Task: task, Err: failure, Steps: []trace.Entry{entry}}
	}

	r.log.Route(route.Agent, task)
	outcome, err := a.Handle(ctx, task)

	resp := &Response{Agent: route.Agent, Task: task}
	if outcome != nil && outcome.Run != nil {
		resp.Steps = outcome.Run.Steps
	}
	if err != nil {
		var failure *plan.Failure
		if !errors.As(err, &failure) {
			err = &plan.Failure{Kind: plan.ToolExecutionFailure, Tool: route.Agent, Err: err}
		}
		resp.Err = err
		return resp
	}

	resp.Result = outcome.Result
	// a plan with no steps answered nothing
	if outcome.Run != nil && len(outcome.Run.Steps) == 0 {
		return resp
	}
	if err := r.memory.Append(ctx, prompt, outcome.Result); err != nil {
		r.log.Warn("memory not persisted: %v", err)
	}
	return resp
}

func (r *Router) route(ctx context.Context, prompt string) (*plan.Route, error) {
	if r.planner == nil {
		return nil, errors.New("no route planner configured")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	system := planner.RoutePrompt(r.Agents(), r.memory.Recent(planner.RecentLimit))
	route, err := r.planner.Route(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, errors.New("route planner returned no decision")
	}
	return route, nil
}

func (r *Router) write(ctx context.Context, entry trace.Entry) {
	if err := r.sink.Write(context.WithoutCancel(ctx), entry); err != nil {
		r.log.Warn("trace write failed: %v", err)
	}
}
