package builtin

import (
	"context"
	"strings"
	"unicode"

	"agentplan/internal/tool"
)

var single = []tool.Param{{Name: "s", Description: "text to inspect"}}

// StringTools returns word_count and letter_count
func StringTools() []tool.Tool {
	return []tool.Tool{
		tool.NewFunc("word_count", "Counts number of words in a string.", single,
			func(ctx context.Context, args []any) (any, error) {
				s, err := tool.String(args, 0)
				if err != nil {
					return nil, err
				}
				return len(strings.Fields(s)), nil
			}),
		tool.NewFunc("letter_count", "Counts number of letters in a string.", single,
			func(ctx context.Context, args []any) (any, error) {
				s, err := tool.String(args, 0)
				if err != nil {
					return nil, err
				}
				n := 0
				for _, r := range s {
					if unicode.IsLetter(r) {
						n++
					}
				}
				return n, nil
			}),
	}
}
