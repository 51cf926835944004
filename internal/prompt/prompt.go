package prompt

import (
	"fmt"
	"strings"

	"reciperag/internal/domain"
)

const (
	DefaultLanguage        = "Indonesian"
	DefaultMaxRecords      = domain.DefaultTopK
	DefaultMaxContextChars = 8000
)

// Assembler renders retrieved recipes and a question into one instruction string.
// MaxRecords and MaxContextChars bound the context block; zero means the default.
type Assembler struct {
	Language        string
	MaxRecords      int
	MaxContextChars int
}

// New returns an assembler with default limits.
func New(language string) Assembler {
	return Assembler{Language: language}
}

// Context renders results as "recipe_name\ndirections" blocks separated by a
// blank line, in rank order, within the configured bounds. The first record is
// always kept and is cut to MaxContextChars if it alone exceeds it.
func (a Assembler) Context(results []domain.SearchResult) string {
	maxRecords := a.MaxRecords
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	maxChars := a.MaxContextChars
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	blocks := make([]string, 0, maxRecords)
	used := 0
	for _, r := range results {
		if len(blocks) == maxRecords {
			break
		}
		block := r.Payload.RecipeName + "\n" + r.Payload.Directions
		size := len([]rune(block))
		if len(blocks) > 0 {
			size += 2 // "\n\n" separator
		}
		if used+size > maxChars {
			if len(blocks) == 0 {
				blocks = append(blocks, string([]rune(block)[:maxChars]))
			}
			break
		}
		blocks = append(blocks, block)
		used += size
	}
	return strings.Join(blocks, "\n\n")
}

// Assemble builds the full prompt. The question is inserted verbatim.
func (a Assembler) Assemble(results []domain.SearchResult, question string) string {
	language := a.Language
	if language == "" {
		language = DefaultLanguage
	}
	return fmt.Sprintf(`
You are a concise, to-the-point cooking assistant.

Task:
- Answer the user question below in detail, clearly, and in %s.
- If the context does not contain enough instructions, give practical advice (mark it as general advice).

Related recipe context (retrieval results):
%s

User question:
"""%s"""
`, language, a.Context(results), question)
}
