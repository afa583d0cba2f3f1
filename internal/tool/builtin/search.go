package builtin

import (
	"context"
	"fmt"

	"agentplan/internal/tool"
)

// SearchToolName is the retrieval tool exposed to the rag agent
const SearchToolName = "search_vector_db"

// DefaultTopK is used when a plan omits top_k
const DefaultTopK = 3

// Searcher is the retrieval backend contract
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]string, error)
}

// SearchTool queries the vector store for documents related to a query
type SearchTool struct {
	searcher Searcher
	topK     int
}

// NewSearchTool creates the retrieval tool; topK <= 0 falls back to DefaultTopK
func NewSearchTool(searcher Searcher, topK int) *SearchTool {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &SearchTool{searcher: searcher, topK: topK}
}

func (t *SearchTool) Name() string {
	return SearchToolName
}

func (t *SearchTool) Description() string {
	return "Searches the vector DB for relevant documents. Read-only: it cannot add or modify documents."
}

func (t *SearchTool) Params() []tool.Param {
	return []tool.Param{
		{Name: "query", Description: "natural language query"},
		{Name: "top_k", Description: fmt.Sprintf("number of documents to return (default %d)", t.topK), Optional: true},
	}
}

func (t *SearchTool) Call(ctx context.Context, args []any) (any, error) {
	query, err := tool.String(args, 0)
	if err != nil {
		return nil, err
	}

	k := t.topK
	if len(args) > 1 && args[1] != nil {
		if k, err = tool.Int(args, 1); err != nil {
			return nil, err
		}
	}

	docs, err := t.searcher.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if docs == nil {
		docs = []string{}
	}
	return docs, nil
}
