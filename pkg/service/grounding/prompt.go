package grounding

import (
	"fmt"
	"strings"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

// systemPrompt is the strict instruction set sent with every generation call.
// Compliance is not trusted: citations are re-validated against the context
// after the answer comes back.
const systemPrompt = `You are a personal data assistant. You MUST ONLY answer based on the provided context from the user's indexed data.

CRITICAL RULES:
1. ONLY use information explicitly stated in the context below
2. If the context does not contain relevant information, respond: "I could not find this information in your data."
3. NEVER use knowledge from your training data - only the provided context
4. ALWAYS cite your sources using the format: [Source: <source_type>, <date>, "<brief_quote>"]
5. Be specific about which source each fact comes from`

// formatContext renders the admitted fragments as numbered sources
func formatContext(window *model.ContextWindow) string {
	var sb strings.Builder
	for i, fragment := range window.Fragments {
		chunk := fragment.Result.Chunk
		date := ""
		if chunk.Date != nil {
			date = chunk.Date.Format("2006-01-02")
		}
		fmt.Fprintf(&sb, "[Source %d] (%s, %s, %s):\n%s\n\n", i+1, chunk.SourceType, date, chunk.Filename, chunk.Text)
	}
	return sb.String()
}

// buildUserPrompt assembles the generation input
func buildUserPrompt(window *model.ContextWindow, query string) string {
	var sb strings.Builder
	sb.WriteString("Context from user's data:\n\n")
	sb.WriteString(formatContext(window))
	sb.WriteString("User's question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer using ONLY the context above. Include inline citations for every fact.")
	return sb.String()
}
