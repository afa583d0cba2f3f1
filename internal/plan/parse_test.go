package plan

import (
	"encoding/json"
	"testing"
)

func TestParse_BareArray(t *testing.T) {
	p, err := Parse(`[{"tool": "add", "args": [3, 5], "reasoning": "sum"},
		{"tool": "multiply", "args": ["previous", 2]}]`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(p.Steps))
	}

	first := p.Steps[0]
	if first.Tool != "add" || first.Reasoning != "sum" {
		t.Errorf("Unexpected first step: %+v", first)
	}
	if first.Args[0].Value() != 3.0 {
		t.Errorf("Numbers should decode to float64, got %T", first.Args[0].Value())
	}
	if !p.Steps[1].Args[0].IsPrevious() {
		t.Error("Expected previous sentinel in second step")
	}
}

func TestParse_CodeFenceAndStepsObject(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"steps\": [{\"tool\": \"word_count\", \"args\": [\"a b\"], \"reason\": \"count\"}]}\n```"
	p, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Steps) != 1 || p.Steps[0].Tool != "word_count" {
		t.Fatalf("Unexpected plan: %+v", p)
	}
	if p.Steps[0].Reasoning != "count" {
		t.Errorf("Expected reason to fill reasoning, got %q", p.Steps[0].Reasoning)
	}
}

func TestParse_SingleStepObject(t *testing.T) {
	p, err := Parse(`{"tool": "memory", "args": "last question"}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Steps) != 1 || len(p.Steps[0].Args) != 1 {
		t.Fatalf("Unexpected plan: %+v", p)
	}
	if p.Steps[0].Args[0].Value() != "last question" {
		t.Errorf("Lone argument should become one literal, got %v", p.Steps[0].Args[0].Value())
	}
}

func TestParse_RepairsBrokenJSON(t *testing.T) {
	p, err := Parse(`[{"tool": "add", "args": [1, 2],}]`)
	if err != nil {
		t.Fatalf("Parse should repair trailing comma: %v", err)
	}
	if len(p.Steps) != 1 || p.Steps[0].Tool != "add" {
		t.Errorf("Unexpected plan: %+v", p)
	}
}

func TestParse_MissingToolKey(t *testing.T) {
	if _, err := Parse(`[{"args": [1, 2]}]`); err == nil {
		t.Error("Expected error for a step without a tool key")
	}
}

func TestParse_NotAPlan(t *testing.T) {
	for _, text := range []string{`42`, `"add 3 and 5"`} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Expected error for %s", text)
		}
	}
}

func TestParse_EmptyTextFails(t *testing.T) {
	for _, text := range []string{"", "   ", "```json\n```", "```\n\n```"} {
		if p, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) = %+v, expected an error", text, p)
		}
	}
}

func TestParse_EmptyArrayIsEmptyPlan(t *testing.T) {
	p, err := Parse("[]")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Steps) != 0 {
		t.Errorf("Expected empty plan, got %d steps", len(p.Steps))
	}
}

func TestArg_PreviousIsExactMatch(t *testing.T) {
	var args []Arg
	if err := json.Unmarshal([]byte(`["PREVIOUS", "the previous one", " previous", null, true, [1]]`), &args); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !args[0].IsPrevious() {
		t.Error("Sentinel match should ignore case")
	}
	for i := 1; i < len(args); i++ {
		if args[i].IsPrevious() {
			t.Errorf("Argument %d should stay literal", i)
		}
	}
	if args[1].Value() != "the previous one" {
		t.Errorf("Literal changed: %v", args[1].Value())
	}
}

func TestStep_ResolveAndRaw(t *testing.T) {
	step := Step{Tool: "add", Args: Literals("previous", "Previous", 1.0)}

	resolved := step.Resolve(8.0)
	if resolved[0] != 8.0 || resolved[1] != 8.0 || resolved[2] != 1.0 {
		t.Errorf("Unexpected resolution: %v", resolved)
	}
	raw := step.Raw()
	if raw[0] != "previous" || raw[2] != 1.0 {
		t.Errorf("Unexpected raw args: %v", raw)
	}

	if got := step.Resolve(nil); got[0] != nil {
		t.Errorf("Previous at the first step should resolve to nil, got %v", got[0])
	}
}

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute("```\n{\"agent\": \" math \", \"task\": \"add 2 and 3\"}\n```")
	if err != nil {
		t.Fatalf("ParseRoute failed: %v", err)
	}
	if r.Agent != "math" || r.Task != "add 2 and 3" {
		t.Errorf("Unexpected route: %+v", r)
	}

	if _, err := ParseRoute(`{"task": "x"}`); err == nil {
		t.Error("Expected error for missing agent")
	}
	if _, err := ParseRoute(""); err == nil {
		t.Error("Expected error for empty reply")
	}
}
