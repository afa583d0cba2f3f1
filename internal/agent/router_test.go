package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"agentplan/internal/memory"
	"agentplan/internal/plan"
	"agentplan/internal/tool/builtin"
	"agentplan/internal/trace"
)

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query string, k int) ([]string, error) {
	return []string{"The sun is a star at the center of the solar system."}, nil
}

// scriptedPlanner routes and plans from fixed replies and remembers the
// system prompts it saw
type scriptedPlanner struct {
	route   string
	plan    string
	systems []string
}

func (p *scriptedPlanner) Route(ctx context.Context, system, prompt string) (*plan.Route, error) {
	p.systems = append(p.systems, system)
	return plan.ParseRoute(p.route)
}

func (p *scriptedPlanner) Plan(ctx context.Context, system, prompt string) (*plan.Plan, error) {
	p.systems = append(p.systems, system)
	return plan.Parse(p.plan)
}

func newRouter(t *testing.T, p *scriptedPlanner) (*Router, *memory.Log, *trace.MemorySink) {
	t.Helper()
	reg, err := builtin.NewDefaultRegistry(stubSearcher{}, 3)
	if err != nil {
		t.Fatalf("NewDefaultRegistry failed: %v", err)
	}
	mem := memory.NewLog()
	sink := trace.NewMemorySink()

	factory := NewDefaultFactory(p, reg, mem)
	factory.SetTrace(sink)
	router, err := NewRouterFromFactory(p, mem, factory)
	if err != nil {
		t.Fatalf("NewRouterFromFactory failed: %v", err)
	}
	router.SetTrace(sink)
	return router, mem, sink
}

func TestRouter_MathAgentRecordsPrompt(t *testing.T) {
	p := &scriptedPlanner{
		route: `{"agent": "math", "task": "Add 3 and 5 then multiply by 2"}`,
		plan:  `[{"tool":"add","args":[3,5]},{"tool":"multiply","args":["previous",2]}]`,
	}
	router, mem, sink := newRouter(t, p)

	resp := router.Handle(context.Background(), "what is (3+5)*2?")
	if resp.Err != nil {
		t.Fatalf("Handle failed: %v", resp.Err)
	}
	if resp.Agent != "math" || resp.Result != 16.0 || len(resp.Steps) != 2 {
		t.Errorf("Unexpected response: %+v", resp)
	}

	records := mem.Records()
	if len(records) != 1 {
		t.Fatalf("Expected exactly one memory record, got %d", len(records))
	}
	if records[0].Question != "what is (3+5)*2?" || records[0].Answer != 16.0 {
		t.Errorf("Router should record the original prompt, got %+v", records[0])
	}
	for _, e := range sink.Entries() {
		if e.Agent != "math" {
			t.Errorf("Step entry not tagged with agent: %+v", e)
		}
	}
}

func TestRouter_EmptyPlanNotRecorded(t *testing.T) {
	p := &scriptedPlanner{
		route: `{"agent": "math", "task": "nothing to compute"}`,
		plan:  `[]`,
	}
	router, mem, _ := newRouter(t, p)

	resp := router.Handle(context.Background(), "hello")
	if resp.Err != nil {
		t.Fatalf("Handle failed: %v", resp.Err)
	}
	if resp.Result != nil || len(resp.Steps) != 0 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if mem.Len() != 0 {
		t.Errorf("Empty plan should not write memory, got %d records", mem.Len())
	}
}

func TestRouter_AgentToolScope(t *testing.T) {
	p := &scriptedPlanner{
		route: `{"agent": "math", "task": "count words"}`,
		plan:  `[{"tool":"word_count","args":["a b c"]}]`,
	}
	router, mem, _ := newRouter(t, p)

	resp := router.Handle(context.Background(), "count words in a b c")
	if !plan.IsKind(resp.Err, plan.UnknownToolFailure) {
		t.Fatalf("Math agent must not see string tools, got %v", resp.Err)
	}
	if len(resp.Steps) != 1 {
		t.Errorf("Expected the failing step in the response, got %d", len(resp.Steps))
	}
	if mem.Len() != 0 {
		t.Error("Failed request must not write memory")
	}
}

func TestRouter_UnknownAgent(t *testing.T) {
	for _, name := range []string{"poet", "planner", "Math"} {
		p := &scriptedPlanner{route: `{"agent": "` + name + `", "task": "x"}`}
		router, mem, sink := newRouter(t, p)

		resp := router.Handle(context.Background(), "write a poem")
		if !plan.IsKind(resp.Err, plan.UnknownAgentFailure) {
			t.Errorf("%s: expected UnknownAgentFailure, got %v", name, resp.Err)
		}
		if !strings.Contains(resp.Err.Error(), name) {
			t.Errorf("%s: error should name the agent: %v", name, resp.Err)
		}
		if len(sink.Entries()) != 1 || len(resp.Steps) != 1 {
			t.Errorf("%s: expected one trace entry for the routing step", name)
		}
		if mem.Len() != 0 {
			t.Errorf("%s: failed request must not write memory", name)
		}
	}
}

func TestRouter_PlanningFailure(t *testing.T) {
	p := &scriptedPlanner{route: `I'd use the math agent`}
	router, mem, _ := newRouter(t, p)

	resp := router.Handle(context.Background(), "add 1 and 1")
	if !plan.IsKind(resp.Err, plan.PlanningFailure) {
		t.Errorf("Expected PlanningFailure, got %v", resp.Err)
	}
	if len(resp.Steps) != 0 || mem.Len() != 0 {
		t.Error("Routing failure should have no steps and no memory")
	}
}

func TestRouter_MemoryAgentAndRecentPrompt(t *testing.T) {
	p := &scriptedPlanner{
		route: `{"agent": "math", "task": "add 3 and 5"}`,
		plan:  `[{"tool":"add","args":[3,5]}]`,
	}
	router, mem, _ := newRouter(t, p)
	router.Handle(context.Background(), "add 3 and 5")

	p.route = `{"agent": "memory", "task": "last answer"}`
	resp := router.Handle(context.Background(), "what was the answer?")
	if resp.Err != nil || resp.Result != 8.0 {
		t.Fatalf("Unexpected memory response: %+v", resp)
	}
	if mem.Len() != 2 {
		t.Errorf("Memory agent answers are recorded too, got %d records", mem.Len())
	}

	last := p.systems[len(p.systems)-1]
	if !strings.Contains(last, "- add 3 and 5 → 8") {
		t.Errorf("Routing prompt should show recent memory:\n%s", last)
	}
}

func TestRouter_RAGAgent(t *testing.T) {
	p := &scriptedPlanner{
		route: `{"agent": "rag", "task": "What is the sun?"}`,
		plan:  `[{"tool":"search_vector_db","args":["What is the sun?"]}]`,
	}
	router, _, _ := newRouter(t, p)

	resp := router.Handle(context.Background(), "tell me about the sun")
	if resp.Err != nil {
		t.Fatalf("Handle failed: %v", resp.Err)
	}
	docs, ok := resp.Result.([]string)
	if !ok || len(docs) != 1 {
		t.Errorf("Expected retrieved documents, got %v", resp.Result)
	}
}

func TestRouter_EmptyTaskFallsBackToPrompt(t *testing.T) {
	p := &scriptedPlanner{route: `{"agent": "memory"}`}
	router, _, _ := newRouter(t, p)

	resp := router.Handle(context.Background(), "last question")
	if resp.Task != "last question" {
		t.Errorf("Expected prompt as task, got %q", resp.Task)
	}
	if resp.Result != memory.EmptyMemory {
		t.Errorf("Expected empty sentinel, got %v", resp.Result)
	}
}

type failingAgent struct{}

func (failingAgent) Kind() Kind { return KindString }

func (failingAgent) Handle(ctx context.Context, task string) (*Outcome, error) {
	return nil, errors.New("backend offline")
}

func TestRouter_PlainAgentError(t *testing.T) {
	p := &scriptedPlanner{route: `{"agent": "string", "task": "x"}`}
	router := NewRouter(p, nil, failingAgent{})

	resp := router.Handle(context.Background(), "x")
	if !plan.IsKind(resp.Err, plan.ToolExecutionFailure) {
		t.Errorf("Expected ToolExecutionFailure, got %v", resp.Err)
	}
	if router.Memory().Len() != 0 {
		t.Error("Failed request must not write memory")
	}
}

func TestResponse_JSON(t *testing.T) {
	data, err := json.Marshal(&Response{Agent: "math", Task: "t", Result: 16.0})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"agent":"math","task":"t","result":16,"steps":[]}` {
		t.Errorf("Unexpected JSON: %s", data)
	}
}

func TestFactory_MissingTools(t *testing.T) {
	reg, _ := builtin.NewDefaultRegistry(nil, 0)
	factory := NewDefaultFactory(&scriptedPlanner{}, reg, nil)

	if _, err := factory.CreateAgent(KindRAG); err == nil {
		t.Error("Expected error creating rag agent without the search tool")
	}
	if _, err := factory.CreateAgent(Kind("planner")); err == nil {
		t.Error("Expected error for unknown kind")
	}
	if a, err := factory.CreateAgent(KindMath); err != nil || a.Kind() != KindMath {
		t.Errorf("Math agent should build: %v", err)
	}
}

func TestFactory_SingleAgent(t *testing.T) {
	reg, _ := builtin.NewDefaultRegistry(nil, 0)
	mem := memory.NewLog()
	p := &scriptedPlanner{plan: `[{"tool":"word_count","args":["one two"]},{"tool":"add","args":["previous",1]}]`}

	exec := NewDefaultFactory(p, reg, mem).NewSingleAgent()
	res := exec.Run(context.Background(), "words plus one")
	if res.Err != nil || res.FinalResult != 3.0 {
		t.Fatalf("Unexpected result: %+v", res)
	}
	if mem.Len() != 1 {
		t.Errorf("Single agent records its own memory, got %d", mem.Len())
	}
	if !strings.Contains(p.systems[0], "memory") {
		t.Error("Single agent prompt should describe the memory tool")
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("rag"); !ok || k != KindRAG {
		t.Error("rag should parse")
	}
	if _, ok := ParseKind("planner"); ok {
		t.Error("planner must not be routable")
	}
}
