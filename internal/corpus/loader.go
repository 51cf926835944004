package corpus

import (
	"fmt"
	"io"
	"os"
	"strings"

	"reciperag/internal/domain"
)

// labelWidth is the number of characters kept in a recipe label.
const labelWidth = 30

// Parse splits raw text into recipe units, one per non-empty line.
// IDs follow the position in the filtered sequence.
func Parse(raw string) []domain.RecipeUnit {
	lines := strings.Split(raw, "\n")
	units := make([]domain.RecipeUnit, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		units = append(units, domain.RecipeUnit{
			ID:    uint64(len(units)),
			Text:  text,
			Label: Label(text),
		})
	}
	return units
}

// Label returns the first 30 characters of text followed by "...".
// The ellipsis is appended even when nothing was cut.
func Label(text string) string {
	runes := []rune(text)
	if len(runes) > labelWidth {
		runes = runes[:labelWidth]
	}
	return string(runes) + "..."
}

// Load reads the whole source and parses it.
func Load(r io.Reader) ([]domain.RecipeUnit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(string(data)), nil
}

// LoadFile reads and parses the corpus file at path.
func LoadFile(path string) ([]domain.RecipeUnit, error) {
	if path == "" {
		return nil, domain.ErrEmptyCorpusPath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
