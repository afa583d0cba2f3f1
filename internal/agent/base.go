package agent

import (
	"context"

	"agentplan/internal/memory"
	"agentplan/internal/plan"
)

// ToolAgent answers by planning and executing tool calls over its own
// tool subset
type ToolAgent struct {
	kind     Kind
	executor *plan.Executor
}

func NewToolAgent(kind Kind, executor *plan.Executor) *ToolAgent {
	return &ToolAgent{
		kind:     kind,
		executor: executor,
	}
}

func (a *ToolAgent) Kind() Kind {
	return a.kind
}

// Handle runs one plan for task. A failed plan is returned as the error,
// with the partial run still attached to the outcome.
func (a *ToolAgent) Handle(ctx context.Context, task string) (*Outcome, error) {
	run := a.executor.Run(ctx, task)
	if run.Err != nil {
		return &Outcome{Run: run}, run.Err
	}
	return &Outcome{Result: run.FinalResult, Run: run}, nil
}

// MemoryAgent answers straight from the memory log
type MemoryAgent struct {
	log *memory.Log
}

func NewMemoryAgent(log *memory.Log) *MemoryAgent {
	return &MemoryAgent{log: log}
}

func (a *MemoryAgent) Kind() Kind {
	return KindMemory
}

func (a *MemoryAgent) Handle(_ context.Context, task string) (*Outcome, error) {
	return &Outcome{Result: a.log.Lookup(task)}, nil
}
