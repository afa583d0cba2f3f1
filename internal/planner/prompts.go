package planner

import (
	"fmt"
	"strings"

	"agentplan/internal/memory"
	"agentplan/internal/tool"
)

// Agent introductions, one per tool-planning agent
const (
	MathIntro = "You are a math agent that can solve arithmetic, powers, and multi-step problems."

	StringIntro = "You are a string agent that counts words and letters in text."

	RAGIntro = "You are a Knowledge Retrieval agent. You can only retrieve information from a vector database.\n" +
		"You CANNOT add or modify the database."

	GeneralIntro = "You are an AI reasoning agent that breaks a user's question into a sequence of tool calls."
)

const planFormat = `Return a JSON list of tool calls like:
[
  {"tool": "add", "args": [2, 3], "reasoning": "Adding 2 and 3 to compute the sum."},
  {"tool": "multiply", "args": ["previous", 5], "reasoning": "Multiplying previous result by 5."}
]
Use the string "previous" as an argument to pass the result of the step before.
Always include a "reasoning" field explaining why the tool is being called.`

const memoryFormat = `To refer to memory, use the "memory" tool with one reference:
"last question", "last answer", or an index such as "0" or "-1".
[{"tool": "memory", "args": ["last question"]}]`

// ToolPrompt builds the planning instructions for an agent over registry
func ToolPrompt(intro string, registry *tool.Registry, withMemory bool) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\nTools:\n")
	b.WriteString(registry.Describe())
	b.WriteString("\n\n")
	b.WriteString(planFormat)
	if withMemory {
		b.WriteString("\n")
		b.WriteString(memoryFormat)
	}
	b.WriteString("\nRespond with ONLY valid JSON and nothing else.")
	return b.String()
}

// RecentLimit is how many memory records the routing prompt shows
const RecentLimit = 5

// RoutePrompt builds the routing instructions: the agent roster and the
// most recent memory
func RoutePrompt(agents []string, recent []memory.Record) string {
	var b strings.Builder
	b.WriteString("You are a routing agent.\nAvailable agents:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s\n", a)
	}

	b.WriteString("\nRecent memory:\n")
	if len(recent) == 0 {
		b.WriteString("No history.\n")
	}
	for _, r := range recent {
		fmt.Fprintf(&b, "- %s → %s\n", r.Question, tool.Text(r.Answer))
	}

	b.WriteString("\nDecide which agent to use and what task to pass it.\n")
	b.WriteString(`Return JSON like: {"agent": "math", "task": "Add 3 and 5"}`)
	return b.String()
}
