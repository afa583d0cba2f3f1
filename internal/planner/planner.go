// Package planner asks a chat model for plans and routing decisions.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agentplan/internal/llm"
	"agentplan/internal/logger"
	"agentplan/internal/plan"
)

// LLMPlanner implements plan.Planner and the router's route planner with
// one chat completion per call
type LLMPlanner struct {
	client      llm.Client
	temperature float32
	maxTokens   int
	log         *logger.Logger
}

// Option configures an LLMPlanner
type Option func(*LLMPlanner)

func WithTemperature(t float32) Option {
	return func(p *LLMPlanner) {
		p.temperature = t
	}
}

func WithMaxTokens(n int) Option {
	return func(p *LLMPlanner) {
		p.maxTokens = n
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(p *LLMPlanner) {
		if log != nil {
			p.log = log
		}
	}
}

func New(client llm.Client, opts ...Option) *LLMPlanner {
	p := &LLMPlanner{
		client: client,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan asks the model for a list of tool calls
func (p *LLMPlanner) Plan(ctx context.Context, system, prompt string) (*plan.Plan, error) {
	text, err := p.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	p.log.Debug("raw plan:\n%s", text)
	return plan.Parse(text)
}

// Route asks the model which agent should handle the prompt
func (p *LLMPlanner) Route(ctx context.Context, system, prompt string) (*plan.Route, error) {
	text, err := p.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	p.log.Debug("raw route:\n%s", text)
	return plan.ParseRoute(text)
}

func (p *LLMPlanner) complete(ctx context.Context, system, prompt string) (string, error) {
	if p.client == nil {
		return "", errors.New("no llm client configured")
	}
	messages := make([]llm.Message, 0, 2)
	if system != "" {
		messages = append(messages, llm.NewMessage(llm.RoleSystem, system))
	}
	messages = append(messages, llm.NewMessage(llm.RoleUser, prompt))

	resp, err := p.client.Chat(ctx, &llm.ChatRequest{
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", p.client.Provider(), err)
	}
	p.log.Debug("%s/%s used %d tokens", p.client.Provider(), p.client.Model(), resp.Usage.TotalTokens)

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return "", errors.New("model returned an empty reply")
	}
	return text, nil
}
