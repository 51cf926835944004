package cli

import (
	"context"
	"fmt"
	"io"

	"reciperag/internal/history"
)

// PrintHistory writes the last n recorded questions, newest first.
func PrintHistory(ctx context.Context, out io.Writer, rec history.Recorder, n int) error {
	entries, err := rec.Recent(ctx, n)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No questions recorded yet.")
		return nil
	}
	for _, e := range entries {
		mark := "✅"
		if !e.Grounded {
			mark = "⚠️"
		}
		fmt.Fprintf(out, "%s [%s] %s (%d hits)\n", mark, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Question, e.Hits)
	}
	return nil
}
