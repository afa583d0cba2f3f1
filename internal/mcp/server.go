package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"agentplan/internal/agent"
	"agentplan/internal/plan"
	"agentplan/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Service exposes the engine to MCP clients. Requests are serialised: the
// engine owns one memory log and steps of different requests must not
// interleave on it.
type Service struct {
	mu       sync.Mutex
	executor *plan.Executor
	router   *agent.Router
	server   *mcp.Server
}

type AskInput struct {
	Prompt string `json:"prompt" jsonschema:"the question to answer"`
}

type ExecutePlanInput struct {
	Plan   string `json:"plan" jsonschema:"JSON list of steps: [{\"tool\": \"add\", \"args\": [3, 5]}]"`
	Prompt string `json:"prompt,omitempty" jsonschema:"question recorded in memory with the result"`
}

type RecallInput struct {
	Reference string `json:"reference" jsonschema:"last question, last answer, or an index such as -1"`
}

// NewService builds the MCP server. executor runs explicit plans and, when
// router is nil, answers ask as well.
func NewService(executor *plan.Executor, router *agent.Router) *Service {
	s := &Service{
		executor: executor,
		router:   router,
		server:   mcp.NewServer(Implementation, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question by planning and running tool calls. Successful answers are remembered.",
	}, s.ask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "execute_plan",
		Description: "Run an explicit plan of tool calls without asking the planner.",
	}, s.executePlan)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recall",
		Description: "Look up the conversation memory.",
	}, s.recall)

	return s
}

// Server returns the underlying SDK server
func (s *Service) Server() *mcp.Server {
	return s.server
}

// Run serves over transport until the client disconnects or ctx ends
func (s *Service) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func (s *Service) ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, any, error) {
	if in.Prompt == "" {
		return nil, nil, errors.New("prompt is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.router != nil {
		resp := s.router.Handle(ctx, in.Prompt)
		return jsonResult(resp, resp.Failed()), nil, nil
	}
	res := s.executor.Run(ctx, in.Prompt)
	return jsonResult(res, res.Failed()), nil, nil
}

func (s *Service) executePlan(ctx context.Context, _ *mcp.CallToolRequest, in ExecutePlanInput) (*mcp.CallToolResult, any, error) {
	p, err := plan.Parse(in.Plan)
	if err != nil {
		failure := &plan.RunResult{Err: &plan.Failure{Kind: plan.PlanningFailure, Err: err}}
		return jsonResult(failure, true), nil, nil
	}
	prompt := in.Prompt
	if prompt == "" {
		prompt = in.Plan
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.executor.Execute(ctx, prompt, p)
	return jsonResult(res, res.Failed()), nil, nil
}

func (s *Service) recall(_ context.Context, _ *mcp.CallToolRequest, in RecallInput) (*mcp.CallToolResult, any, error) {
	answer := s.executor.Memory().Lookup(in.Reference)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: tool.Text(answer)}},
	}, nil, nil
}

func jsonResult(v any, failed bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}
	}
	return &mcp.CallToolResult{
		IsError: failed,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
