package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"reciperag/internal/cli"
	"reciperag/internal/history"
	"reciperag/internal/service"
)

// redirectLogs sends the standard logger and the pipeline's progress lines
// to path so they do not draw over the terminal UI.
func redirectLogs(svc *service.RAGService, path string) (io.Closer, error) {
	f, err := tea.LogToFile(path, "reciperag")
	if err != nil {
		return nil, err
	}
	svc.SetLogger(log.New(f, "", log.LstdFlags))
	return f, nil
}

// printHistory opens the query log at path, prints the last n entries and
// closes it again before returning.
func printHistory(ctx context.Context, out io.Writer, path string, n int) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	rec, err := history.NewSQLiteRecorder(path)
	if err != nil {
		return err
	}
	defer rec.Close()
	return cli.PrintHistory(ctx, out, rec, n)
}
