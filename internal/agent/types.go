package agent

import (
	"fmt"
	"time"

	"agentplan/internal/hook"
	"agentplan/internal/logger"
	"agentplan/internal/memory"
	"agentplan/internal/plan"
	"agentplan/internal/planner"
	"agentplan/internal/tool"
	"agentplan/internal/tool/builtin"
	"agentplan/internal/trace"
)

// Factory creates agents of different kinds
type Factory interface {
	CreateAgent(kind Kind) (Agent, error)
}

// DefaultFactory builds agents over one shared tool registry and memory log
type DefaultFactory struct {
	planner        plan.Planner
	toolRegistry   *tool.Registry
	memory         *memory.Log
	hookManager    *hook.Manager
	sink           trace.Sink
	log            *logger.Logger
	plannerTimeout time.Duration
}

// NewDefaultFactory creates a new agent factory
func NewDefaultFactory(p plan.Planner, registry *tool.Registry, mem *memory.Log) *DefaultFactory {
	if mem == nil {
		mem = memory.NewLog()
	}
	return &DefaultFactory{
		planner:      p,
		toolRegistry: registry,
		memory:       mem,
		sink:         trace.Discard,
		log:          logger.Discard(),
	}
}

// SetHookManager sets the hooks run around every tool call of every agent
func (f *DefaultFactory) SetHookManager(manager *hook.Manager) {
	f.hookManager = manager
}

func (f *DefaultFactory) SetTrace(sink trace.Sink) {
	if sink != nil {
		f.sink = sink
	}
}

func (f *DefaultFactory) SetLogger(log *logger.Logger) {
	if log != nil {
		f.log = log
	}
}

func (f *DefaultFactory) SetPlannerTimeout(d time.Duration) {
	f.plannerTimeout = d
}

// CreateAgent creates an agent of the specified kind
func (f *DefaultFactory) CreateAgent(kind Kind) (Agent, error) {
	switch kind {
	case KindMath:
		return f.createToolAgent(kind, planner.MathIntro, "add", "subtract", "multiply", "divide", "power")
	case KindString:
		return f.createToolAgent(kind, planner.StringIntro, "word_count", "letter_count")
	case KindRAG:
		return f.createToolAgent(kind, planner.RAGIntro, builtin.SearchToolName)
	case KindMemory:
		return NewMemoryAgent(f.memory), nil
	default:
		return nil, fmt.Errorf("unknown agent kind: %s", kind)
	}
}

// createToolAgent scopes a plan executor to the named tools. Memory is
// recorded by the router, not by the agent.
func (f *DefaultFactory) createToolAgent(kind Kind, intro string, required ...string) (Agent, error) {
	registry, err := f.toolRegistry.Subset(required...)
	if err != nil {
		return nil, fmt.Errorf("%s agent requires tools %v: %w", kind, required, err)
	}

	executor := tool.NewExecutor(registry)
	executor.SetHookManager(f.hookManager)

	return NewToolAgent(kind, plan.NewExecutor(f.planner, executor,
		plan.WithMemory(f.memory),
		plan.WithTrace(f.sink),
		plan.WithLogger(f.log),
		plan.WithSystemPrompt(planner.ToolPrompt(intro, registry, false)),
		plan.WithAgent(string(kind)),
		plan.WithRecordMemory(false),
		plan.WithPlannerTimeout(f.plannerTimeout),
	)), nil
}

// NewSingleAgent builds the single tool-planning agent mode: one executor
// over every registered tool plus the memory tool, recording its own memory
func (f *DefaultFactory) NewSingleAgent() *plan.Executor {
	executor := tool.NewExecutor(f.toolRegistry)
	executor.SetHookManager(f.hookManager)

	return plan.NewExecutor(f.planner, executor,
		plan.WithMemory(f.memory),
		plan.WithTrace(f.sink),
		plan.WithLogger(f.log),
		plan.WithSystemPrompt(planner.ToolPrompt(planner.GeneralIntro, f.toolRegistry, true)),
		plan.WithPlannerTimeout(f.plannerTimeout),
	)
}
