package agent

import (
	"context"

	"agentplan/internal/plan"
)

// Kind names one of the fixed routable agents
type Kind string

const (
	KindMath   Kind = "math"
	KindString Kind = "string"
	KindMemory Kind = "memory"
	KindRAG    Kind = "rag"
)

// Kinds returns every routable agent kind in roster order
func Kinds() []Kind {
	return []Kind{KindMath, KindString, KindMemory, KindRAG}
}

// ParseKind matches an agent name exactly. The router itself is not
// routable.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Agent handles one routed task
type Agent interface {
	Kind() Kind
	Handle(ctx context.Context, task string) (*Outcome, error)
}

// Outcome is an agent's answer. Run is set for agents that executed a plan.
type Outcome struct {
	Result any
	Run    *plan.RunResult
}
