package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func echoTool(name string, params ...Param) *Func {
	return NewFunc(name, "echoes its arguments", params, func(ctx context.Context, args []any) (any, error) {
		return args, nil
	})
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool("echo")); err != nil {
		t.Fatalf("Failed to register tool: %v", err)
	}
	if err := registry.Register(echoTool("echo")); err == nil {
		t.Error("Expected error registering a duplicate name")
	}
}

func TestRegistry_RejectsReservedName(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(echoTool(ReservedMemory)); err == nil {
		t.Error("Expected error registering the memory pseudo-tool name")
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"subtract", "add", "power"} {
		if err := registry.Register(echoTool(name)); err != nil {
			t.Fatalf("Failed to register %s: %v", name, err)
		}
	}

	names := registry.Names()
	want := []string{"add", "power", "subtract"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, names)
	}
}

func TestRegistry_Subset(t *testing.T) {
	registry := NewRegistry()
	registry.Register(echoTool("add"))
	registry.Register(echoTool("word_count"))

	sub, err := registry.Subset("add")
	if err != nil {
		t.Fatalf("Subset failed: %v", err)
	}
	if sub.Len() != 1 {
		t.Errorf("Expected 1 tool in subset, got %d", sub.Len())
	}
	if _, err := sub.Get("word_count"); err == nil {
		t.Error("Subset should not expose tools outside the list")
	}

	if _, err := registry.Subset("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing subset tool, got %v", err)
	}
}

func TestRegistry_Describe(t *testing.T) {
	registry := NewRegistry()
	if got := registry.Describe(); got != "No tools available." {
		t.Errorf("Unexpected empty roster: %q", got)
	}

	registry.Register(echoTool("search", Param{Name: "query"}, Param{Name: "top_k", Optional: true}))

	roster := registry.Describe()
	if !strings.Contains(roster, "search(query, top_k?): echoes its arguments") {
		t.Errorf("Roster should contain signature and description, got: %s", roster)
	}
}
