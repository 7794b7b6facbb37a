package grounding

import (
	"regexp"
	"strings"

	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
)

// citationPattern matches the inline citation format the model is instructed
// to use: [Source: <type>, <date>, "<quote>"]
var citationPattern = regexp.MustCompile(`\[Source:\s*([^,\]]+),\s*([^,\]]*),\s*"([^"]*)"\]`)

// absencePhrases signal that the answer explicitly states no information was
// found, which counts as grounded behavior.
var absencePhrases = []string{
	"could not find",
	"no information",
	"not found in",
	"don't have information",
	"no relevant",
}

// ExtractCitations re-derives citations from the answer instead of trusting
// the model: each cited quote is matched back against the fragments actually
// placed in context, and citations to anything outside the context are
// dropped. The result is ordered the way fragments appeared in context, one
// citation per cited document.
func ExtractCitations(answer string, window *model.ContextWindow) []model.Citation {
	matches := citationPattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return []model.Citation{}
	}

	cited := make(map[int]bool)
	for _, match := range matches {
		quote := strings.TrimSuffix(strings.TrimSpace(match[3]), "...")
		if quote == "" {
			continue
		}
		for i, fragment := range window.Fragments {
			if containsFold(fragment.Result.Chunk.Text, quote) {
				cited[i] = true
				break
			}
		}
	}

	citations := make([]model.Citation, 0, len(cited))
	seen := make(map[string]bool)
	for i, fragment := range window.Fragments {
		if !cited[i] {
			continue
		}
		key := fragment.Result.Chunk.DocumentID.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, model.NewCitation(fragment.Result))
	}

	return citations
}

// ValidateGrounding decides whether the answer is grounded: either at least
// one citation survived validation, or the answer explicitly states that no
// information was found. An answer asserting facts with zero matching
// citations is not grounded.
func ValidateGrounding(answer string, citations []model.Citation) bool {
	if len(citations) > 0 {
		return true
	}

	lower := strings.ToLower(answer)
	for _, phrase := range absencePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
