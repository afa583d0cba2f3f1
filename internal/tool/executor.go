package tool

import (
	"context"
	"fmt"
	"time"

	"agentplan/internal/hook"
)

// Executor dispatches single calls against a registry, running hooks
// around each call. Plans call it one step at a time.
type Executor struct {
	registry    *Registry
	hookManager *hook.Manager
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
	}
}

// SetHookManager sets the hook manager for tool execution hooks
func (e *Executor) SetHookManager(manager *hook.Manager) {
	e.hookManager = manager
}

// Registry returns the registry calls are resolved against
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Call resolves name, checks arity, runs the before hook, invokes the tool
// and runs the after hook. The returned CallResult is never nil; its Err is
// the same error Call returns.
func (e *Executor) Call(ctx context.Context, name string, args []any) (*CallResult, error) {
	res := &CallResult{
		ToolName:  name,
		Args:      args,
		StartTime: time.Now(),
	}
	finish := func(out any, err error) (*CallResult, error) {
		res.Output = out
		res.Err = err
		res.EndTime = time.Now()
		return res, err
	}

	t, err := e.registry.Get(name)
	if err != nil {
		return finish(nil, err)
	}

	required, total := Arity(t)
	if len(args) < required || len(args) > total {
		return finish(nil, &ArityError{Tool: name, Got: len(args), Min: required, Max: total})
	}

	if e.hookManager != nil {
		feedback, err := e.hookManager.Trigger(ctx, hook.NewData(hook.BeforeToolExecution, name, args))
		if err != nil {
			return finish(nil, fmt.Errorf("hook error: %w", err))
		}
		if !feedback.Allow {
			return finish(nil, fmt.Errorf("%w: %s", ErrDenied, feedback.Message))
		}
	}

	out, callErr := t.Call(ctx, args)
	if callErr != nil {
		out = nil
	}
	res, _ = finish(out, callErr)

	if e.hookManager != nil {
		data := hook.NewData(hook.AfterToolExecution, name, args)
		data.Result = out
		data.Err = callErr
		data.Duration = res.Duration()
		// After hooks observe only
		_, _ = e.hookManager.Trigger(ctx, data)
	}

	return res, callErr
}
