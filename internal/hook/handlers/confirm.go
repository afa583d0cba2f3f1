package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"agentplan/internal/hook"
)

// ToolConfirmHandler prompts the user before selected tools run
type ToolConfirmHandler struct {
	reader    *bufio.Reader
	writer    io.Writer
	toolNames map[string]bool // Only confirm these tools (empty = all)
}

// NewToolConfirmHandler creates a handler reading answers from stdin
func NewToolConfirmHandler(tools ...string) *ToolConfirmHandler {
	return NewToolConfirmHandlerWithIO(os.Stdin, os.Stdout, tools...)
}

// NewToolConfirmHandlerWithIO creates a handler with custom IO. Pass the
// same *bufio.Reader the interactive session reads from so neither side
// buffers the other's lines.
func NewToolConfirmHandlerWithIO(reader io.Reader, writer io.Writer, tools ...string) *ToolConfirmHandler {
	toolNames := make(map[string]bool, len(tools))
	for _, t := range tools {
		toolNames[t] = true
	}
	return &ToolConfirmHandler{
		reader:    bufio.NewReader(reader),
		writer:    writer,
		toolNames: toolNames,
	}
}

func (h *ToolConfirmHandler) Name() string {
	return "tool_confirm"
}

func (h *ToolConfirmHandler) Points() []hook.Point {
	return []hook.Point{hook.BeforeToolExecution}
}

func (h *ToolConfirmHandler) Priority() int {
	return 100
}

func (h *ToolConfirmHandler) Handle(ctx context.Context, data *hook.Data) (*hook.Feedback, error) {
	if len(h.toolNames) > 0 && !h.toolNames[data.ToolName] {
		return hook.AllowFeedback(), nil
	}

	fmt.Fprintf(h.writer, "\n\033[33m⚠️  Tool '%s' requires confirmation:\033[0m\n", data.ToolName)
	if args, err := json.Marshal(data.Args); err == nil && len(data.Args) > 0 {
		fmt.Fprintf(h.writer, "    Arguments: %s\n", args)
	}
	fmt.Fprintf(h.writer, "\nAllow? [y/N]: ")

	line, err := h.reader.ReadString('\n')
	if err != nil && line == "" {
		return hook.DenyFeedback("no input received"), nil
	}

	switch strings.TrimSpace(strings.ToLower(line)) {
	case "y", "yes":
		fmt.Fprintf(h.writer, "\033[32m✓ Allowed\033[0m\n\n")
		return hook.AllowFeedback(), nil
	default:
		fmt.Fprintf(h.writer, "\033[31m✗ Denied\033[0m\n\n")
		return hook.DenyFeedback("user denied tool execution"), nil
	}
}
