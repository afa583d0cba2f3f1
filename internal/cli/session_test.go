package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeResult struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r *fakeResult) Failed() bool { return r.Error != "" }

func newTestSession(input string, handler Handler) (*Session, *bytes.Buffer) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.SetColorMode(false)
	return NewSession(strings.NewReader(input), w, handler), &buf
}

func TestSession_HandlesLinesUntilExit(t *testing.T) {
	var prompts []string
	s, out := newTestSession("add 3 and 5\n\n   \nEXIT\nnever\n", func(ctx context.Context, prompt string) Result {
		prompts = append(prompts, prompt)
		return &fakeResult{Answer: "8"}
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(prompts) != 1 || prompts[0] != "add 3 and 5" {
		t.Errorf("Unexpected prompts: %v", prompts)
	}
	if !strings.Contains(out.String(), "{\n  \"answer\": \"8\"\n}") {
		t.Errorf("Expected indented JSON, got %q", out.String())
	}
}

func TestSession_EndOfInput(t *testing.T) {
	calls := 0
	s, _ := newTestSession("one\ntwo", func(ctx context.Context, prompt string) Result {
		calls++
		return &fakeResult{Answer: prompt}
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestSession_FailureDoesNotStopLoop(t *testing.T) {
	calls := 0
	s, out := newTestSession("bad\ngood\nexit\n", func(ctx context.Context, prompt string) Result {
		calls++
		if prompt == "bad" {
			return &fakeResult{Error: "Unknown tool: teleport"}
		}
		return &fakeResult{Answer: "ok"}
	})

	s.Run(context.Background())
	if calls != 2 {
		t.Errorf("Loop should continue after a failure, got %d calls", calls)
	}
	if !strings.Contains(out.String(), "Unknown tool: teleport") {
		t.Error("Failure should be rendered")
	}
}

func TestSession_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newTestSession("x\n", func(ctx context.Context, prompt string) Result {
		t.Error("Handler should not run")
		return &fakeResult{}
	})

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWriter_ColorMode(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.WriteColored("hi", ColorGreen)
	if buf.String() != ColorGreen+"hi"+ColorReset {
		t.Errorf("Unexpected colored output: %q", buf.String())
	}

	buf.Reset()
	w.SetColorMode(false)
	w.WriteColored("hi", ColorGreen)
	if buf.String() != "hi" {
		t.Errorf("Unexpected plain output: %q", buf.String())
	}
}
