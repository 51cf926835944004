package corpus

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"reciperag/internal/domain"
)

// Resolve expands a corpus path into the files it names. A plain path is
// returned as is; a pattern such as "data/**/*.txt" is matched with
// doublestar and must name at least one regular file.
func Resolve(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, domain.ErrEmptyCorpusPath
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("corpus pattern %s: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no corpus files match %s: %w", pattern, os.ErrNotExist)
	}
	sort.Strings(files)
	return files, nil
}

// LoadPattern loads every file Resolve finds as one corpus, in path order.
// IDs run across files so they stay unique within the collection.
func LoadPattern(pattern string) ([]domain.RecipeUnit, []string, error) {
	files, err := Resolve(pattern)
	if err != nil {
		return nil, nil, err
	}
	var b strings.Builder
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open corpus %s: %w", path, err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return Parse(b.String()), files, nil
}
