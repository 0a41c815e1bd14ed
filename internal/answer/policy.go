package answer

import (
	"fmt"
	"strings"

	"github.com/parker-estes/bankdocs/internal/chunk"
)

// Policy selects which closed-world instruction template frames the
// generation call.
type Policy string

const (
	PolicyGeneral    Policy = "general"
	PolicyTable      Policy = "table"
	PolicyCompliance Policy = "compliance"
)

// complianceKeywords mark a chunk as regulatory content. Matching is
// case-insensitive substring search.
var complianceKeywords = []string{
	"regulation", "compliance", "regulatory", "requirement",
	"deadline", "audit", "policy", "procedure",
}

// classify picks the answering policy from the retrieved chunks. A
// table chunk anywhere in the set selects the table policy regardless
// of what else was retrieved; otherwise any chunk mentioning a
// compliance keyword selects the compliance policy.
func classify(chunks []chunk.Chunk) Policy {
	for _, c := range chunks {
		if c.IsTable() {
			return PolicyTable
		}
	}
	for _, c := range chunks {
		lower := strings.ToLower(c.Content)
		for _, kw := range complianceKeywords {
			if strings.Contains(lower, kw) {
				return PolicyCompliance
			}
		}
	}
	return PolicyGeneral
}

// ComposeContext labels each retrieved chunk with its source and joins
// the blocks with a visible separator, preserving retrieval order so
// the model sees the most relevant evidence first. The extractor uses
// the same composition for structured queries.
func ComposeContext(chunks []chunk.Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		label := fmt.Sprintf("DOCUMENT %d: %s", i+1, c.Metadata.SourceLabel())
		if c.Metadata.Page > 0 {
			label += fmt.Sprintf(" (Page: %d)", c.Metadata.Page)
		}
		blocks = append(blocks, label+"\n"+strings.TrimSpace(c.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
