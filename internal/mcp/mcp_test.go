package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"agentplan/internal/memory"
	"agentplan/internal/plan"
	"agentplan/internal/tool"
	"agentplan/internal/tool/builtin"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type calcInput struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type noteInput struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// startCalc runs an in-process MCP server and connects a Client to it
func startCalc(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "calc", Version: "0.1.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "mod", Description: "a mod b"},
		func(ctx context.Context, req *mcp.CallToolRequest, in calcInput) (*mcp.CallToolResult, any, error) {
			if in.B == 0 {
				return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "modulo by zero"}}}, nil, nil
			}
			r := int(in.A) % int(in.B)
			data, _ := json.Marshal(r)
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil, nil
		})
	mcp.AddTool(server, &mcp.Tool{Name: "note"},
		func(ctx context.Context, req *mcp.CallToolRequest, in noteInput) (*mcp.CallToolResult, any, error) {
			text := in.Text + "|" + in.Tag + "|" + in.Title
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil, nil
		})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect failed: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client, err := Connect(ctx, "calc", clientTransport)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestManager_AttachRegistersNamespacedTools(t *testing.T) {
	registry := tool.NewRegistry()
	manager := NewManager(registry, nil)

	if err := manager.Attach(startCalc(t)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if _, err := registry.Get("calc_mod"); err != nil {
		t.Errorf("Expected calc_mod in registry: %v", err)
	}
	if got := manager.ToolNames("calc"); len(got) != 2 {
		t.Errorf("Expected 2 tools from calc, got %v", got)
	}
	if manager.ServerCount() != 1 || manager.ListServers()[0] != "calc" {
		t.Errorf("Unexpected servers: %v", manager.ListServers())
	}
}

func TestToolAdapter_PositionalMapping(t *testing.T) {
	client := startCalc(t)
	var note *ToolAdapter
	for _, mt := range client.Tools() {
		if mt.Name == "note" {
			note = NewToolAdapter(client, mt)
		}
	}
	if note == nil {
		t.Fatal("note tool not listed")
	}

	params := note.Params()
	if len(params) != 3 || params[0].Name != "text" || params[0].Optional {
		t.Fatalf("Required params should come first: %+v", params)
	}
	if params[1].Name != "tag" || params[2].Name != "title" || !params[1].Optional {
		t.Errorf("Optional params should follow sorted: %+v", params)
	}
	if tool.Signature(note) != "calc_note(text, tag?, title?)" {
		t.Errorf("Unexpected signature: %s", tool.Signature(note))
	}

	out, err := note.Call(context.Background(), []any{"hello", "greeting"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if out != "hello|greeting|" {
		t.Errorf("Unexpected output: %v", out)
	}
}

func TestToolAdapter_InPlan(t *testing.T) {
	registry, _ := builtin.NewDefaultRegistry(nil, 0)
	if err := NewManager(registry, nil).Attach(startCalc(t)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	exec := plan.NewExecutor(nil, tool.NewExecutor(registry))

	p, _ := plan.Parse(`[{"tool":"calc_mod","args":[17,5]},{"tool":"multiply","args":["previous",10]}]`)
	res := exec.Execute(context.Background(), "17 mod 5 times 10", p)
	if res.Err != nil {
		t.Fatalf("Execute failed: %v", res.Err)
	}
	if res.FinalResult != 20.0 {
		t.Errorf("Expected 20, got %v", res.FinalResult)
	}

	p, _ = plan.Parse(`[{"tool":"calc_mod","args":[1,0]}]`)
	res = exec.Execute(context.Background(), "1 mod 0", p)
	if !plan.IsKind(res.Err, plan.ToolExecutionFailure) || !strings.Contains(res.Err.Error(), "modulo by zero") {
		t.Errorf("Expected tool error from server, got %v", res.Err)
	}
}

func connectService(t *testing.T, s *Service) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := s.Server().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect failed: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	session, err := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s failed: %v", name, err)
	}
	return formatMCPContent(res.Content), res.IsError
}

func TestService_ExecutePlanAndRecall(t *testing.T) {
	registry, _ := builtin.NewDefaultRegistry(nil, 0)
	mem := memory.NewLog()
	exec := plan.NewExecutor(nil, tool.NewExecutor(registry), plan.WithMemory(mem))
	session := connectService(t, NewService(exec, nil))

	text, isErr := callText(t, session, "execute_plan", map[string]any{
		"plan":   `[{"tool":"add","args":[3,5]},{"tool":"multiply","args":["previous",2]}]`,
		"prompt": "double the sum",
	})
	if isErr {
		t.Fatalf("execute_plan failed: %s", text)
	}
	var out struct {
		FinalResult float64 `json:"final_result"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil || out.FinalResult != 16 {
		t.Errorf("Unexpected result %s (%v)", text, err)
	}

	if text, _ := callText(t, session, "recall", map[string]any{"reference": "last question"}); text != "double the sum" {
		t.Errorf("Unexpected recall: %q", text)
	}
	if text, _ := callText(t, session, "recall", map[string]any{"reference": "-1"}); text != "16" {
		t.Errorf("Unexpected recall: %q", text)
	}
}

func TestService_ExecutePlanFailure(t *testing.T) {
	registry, _ := builtin.NewDefaultRegistry(nil, 0)
	exec := plan.NewExecutor(nil, tool.NewExecutor(registry))
	session := connectService(t, NewService(exec, nil))

	text, isErr := callText(t, session, "execute_plan", map[string]any{"plan": `[{"tool":"divide","args":[1,0]}]`})
	if !isErr || !strings.Contains(text, "cannot divide by zero") {
		t.Errorf("Expected tool failure, got %v %s", isErr, text)
	}

	text, isErr = callText(t, session, "execute_plan", map[string]any{"plan": `[{"args":[1]}]`})
	if !isErr || !strings.Contains(text, "planning failed") {
		t.Errorf("Expected planning failure, got %v %s", isErr, text)
	}

	text, isErr = callText(t, session, "execute_plan", map[string]any{"plan": "```json\n```"})
	if !isErr || !strings.Contains(text, "planning failed") {
		t.Errorf("Expected planning failure for an empty fence, got %v %s", isErr, text)
	}
	if exec.Memory().Len() != 0 {
		t.Error("Failed plans must not write memory")
	}
}

func TestService_AskWithoutRouter(t *testing.T) {
	registry, _ := builtin.NewDefaultRegistry(nil, 0)
	planner := plan.PlannerFunc(func(ctx context.Context, system, prompt string) (*plan.Plan, error) {
		return plan.Parse(`[{"tool":"letter_count","args":["hello world"]}]`)
	})
	exec := plan.NewExecutor(planner, tool.NewExecutor(registry))
	session := connectService(t, NewService(exec, nil))

	text, isErr := callText(t, session, "ask", map[string]any{"prompt": "how many letters in hello world?"})
	if isErr || !strings.Contains(text, `"final_result": 10`) {
		t.Errorf("Unexpected ask result: %v %s", isErr, text)
	}
}
