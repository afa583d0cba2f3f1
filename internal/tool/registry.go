package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps tool names to tools. It is filled once at start-up and only
// read while plans execute.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool; a second tool with the same name is rejected
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if name == ReservedMemory {
		return fmt.Errorf("tool name %q is reserved", name)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// ReservedMemory is the pseudo-tool name plans use to query the memory log
const ReservedMemory = "memory"

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return tool, nil
}

// List returns the tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	tools := r.List()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Subset builds a new registry holding only the named tools
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := NewRegistry()
	for _, name := range names {
		t, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if err := sub.Register(t); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Describe renders the roster shown to the planner, one tool per line
func (r *Registry) Describe() string {
	tools := r.List()
	if len(tools) == 0 {
		return "No tools available."
	}

	lines := make([]string, len(tools))
	for i, t := range tools {
		lines[i] = fmt.Sprintf("%s: %s", Signature(t), t.Description())
	}
	return strings.Join(lines, "\n")
}
