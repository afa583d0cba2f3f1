package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel answers. Lookups degrade to these instead of failing so that a
// memory step can never abort a plan.
const (
	EmptyMemory = "Memory is empty."
)

// RefKind classifies a memory reference
type RefKind int

const (
	RefUnknown RefKind = iota
	RefQuestion
	RefAnswer
	RefIndex
)

// Ref is a parsed memory reference
type Ref struct {
	Kind  RefKind
	Index int    // RefIndex only
	Text  string // the lowercased reference as given
}

// ParseRef classifies a free-text reference. Priority: "question", then
// "answer"/"result", then a whole signed integer; anything else is unknown.
func ParseRef(reference string) Ref {
	text := strings.ToLower(strings.TrimSpace(reference))
	switch {
	case strings.Contains(text, "question"):
		return Ref{Kind: RefQuestion, Text: text}
	case strings.Contains(text, "answer"), strings.Contains(text, "result"):
		return Ref{Kind: RefAnswer, Text: text}
	}
	if n, err := strconv.Atoi(text); err == nil {
		return Ref{Kind: RefIndex, Index: n, Text: text}
	}
	return Ref{Kind: RefUnknown, Text: text}
}

// Lookup resolves a reference against the log. It never fails.
func (l *Log) Lookup(reference string) any {
	return Resolve(l.Records(), ParseRef(reference))
}

// Resolve answers ref from records. Index references count from the start,
// or from the end when negative, and return the answer half.
func Resolve(records []Record, ref Ref) any {
	if len(records) == 0 {
		return EmptyMemory
	}

	last := records[len(records)-1]
	switch ref.Kind {
	case RefQuestion:
		return last.Question
	case RefAnswer:
		return last.Answer
	case RefIndex:
		i := ref.Index
		if i < 0 {
			i += len(records)
		}
		if i < 0 || i >= len(records) {
			return fmt.Sprintf("No memory at index %d.", ref.Index)
		}
		return records[i].Answer
	default:
		return fmt.Sprintf("Unknown memory reference: %s", ref.Text)
	}
}
