package handlers

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"agentplan/internal/hook"
)

func TestToolConfirmHandler_Allow(t *testing.T) {
	var out bytes.Buffer
	h := NewToolConfirmHandlerWithIO(strings.NewReader("y\n"), &out, "divide")

	fb, err := h.Handle(context.Background(), hook.NewData(hook.BeforeToolExecution, "divide", []any{1.0, 2.0}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !fb.Allow {
		t.Errorf("Expected allow, got deny: %s", fb.Message)
	}
	if !strings.Contains(out.String(), "[1,2]") {
		t.Errorf("Prompt should show the arguments, got: %s", out.String())
	}
}

func TestToolConfirmHandler_DenyByDefault(t *testing.T) {
	var out bytes.Buffer
	h := NewToolConfirmHandlerWithIO(strings.NewReader("\n"), &out)

	fb, err := h.Handle(context.Background(), hook.NewData(hook.BeforeToolExecution, "add", nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if fb.Allow {
		t.Error("Empty answer should deny")
	}
}

func TestToolConfirmHandler_SkipsUnlistedTools(t *testing.T) {
	var out bytes.Buffer
	h := NewToolConfirmHandlerWithIO(strings.NewReader(""), &out, "divide")

	fb, err := h.Handle(context.Background(), hook.NewData(hook.BeforeToolExecution, "add", nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !fb.Allow {
		t.Error("Tools outside the confirm list should be allowed")
	}
	if out.Len() != 0 {
		t.Errorf("No prompt expected, got: %s", out.String())
	}
}

func TestToolConfirmHandler_NoInputDenies(t *testing.T) {
	h := NewToolConfirmHandlerWithIO(strings.NewReader(""), &bytes.Buffer{})

	fb, err := h.Handle(context.Background(), hook.NewData(hook.BeforeToolExecution, "power", nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if fb.Allow || fb.Message != "no input received" {
		t.Errorf("Expected denial for missing input, got %+v", fb)
	}
}
