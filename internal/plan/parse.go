package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var errEmptyPlan = errors.New("empty plan: no JSON in planner reply")

var jsonBlockRE = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// clean strips surrounding whitespace and a markdown code fence
func clean(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := jsonBlockRE.FindStringSubmatch(trimmed); len(m) > 1 {
		trimmed = strings.TrimSpace(m[1])
	}
	return trimmed
}

// decode unmarshals text, repairing broken JSON once before giving up
func decode(text string, v any) error {
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}
	fixed, rerr := jsonrepair.JSONRepair(text)
	if rerr != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("invalid JSON after repair: %w", err)
	}
	return nil
}

// Parse reads a planner reply. It accepts a bare array of steps, an object
// with a "steps" array, or a single step object. Text with no JSON in it,
// including an empty code fence, is an error; "[]" is a valid empty plan.
func Parse(text string) (*Plan, error) {
	trimmed := clean(text)
	if trimmed == "" {
		return nil, errEmptyPlan
	}

	var raw json.RawMessage
	if err := decode(trimmed, &raw); err != nil {
		return nil, err
	}

	var steps []Step
	switch first := firstByte(raw); first {
	case '[':
		if err := json.Unmarshal(raw, &steps); err != nil {
			return nil, err
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		if inner, ok := obj["steps"]; ok {
			if err := json.Unmarshal(inner, &steps); err != nil {
				return nil, err
			}
			break
		}
		var step Step
		if err := json.Unmarshal(raw, &step); err != nil {
			return nil, err
		}
		steps = []Step{step}
	default:
		return nil, fmt.Errorf("plan must be a JSON array of steps, got %s", truncate(string(raw), 40))
	}

	if steps == nil {
		steps = []Step{}
	}
	return &Plan{Steps: steps}, nil
}

// ParseRoute reads a router reply: {"agent": "...", "task": "..."}
func ParseRoute(text string) (*Route, error) {
	trimmed := clean(text)
	if trimmed == "" {
		return nil, errors.New("empty routing decision")
	}

	var raw struct {
		Agent *string `json:"agent"`
		Task  any     `json:"task"`
	}
	if err := decode(trimmed, &raw); err != nil {
		return nil, err
	}
	if raw.Agent == nil {
		return nil, errors.New(`routing decision is missing the "agent" key`)
	}

	route := &Route{Agent: strings.TrimSpace(*raw.Agent)}
	switch t := raw.Task.(type) {
	case nil:
	case string:
		route.Task = t
	default:
		data, _ := json.Marshal(t)
		route.Task = string(data)
	}
	return route, nil
}

func firstByte(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
