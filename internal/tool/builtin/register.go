package builtin

import (
	"fmt"

	"agentplan/internal/tool"
)

// RegisterAll registers each tool, stopping at the first conflict
func RegisterAll(registry *tool.Registry, tools ...tool.Tool) error {
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("register %s: %w", t.Name(), err)
		}
	}
	return nil
}

// NewDefaultRegistry registers the math and string tools, plus the retrieval
// tool when a searcher is available
func NewDefaultRegistry(searcher Searcher, topK int) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	tools := append(MathTools(), StringTools()...)
	if searcher != nil {
		tools = append(tools, NewSearchTool(searcher, topK))
	}
	if err := RegisterAll(registry, tools...); err != nil {
		return nil, err
	}
	return registry, nil
}
