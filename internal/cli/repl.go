package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"reciperag/internal/domain"
)

const (
	PromptText = "\n🧠 Enter your question (or type 'exit' to quit): "
	NoResults  = "⚠️ No similar results found in the database."
	Goodbye    = "👋 Leaving the system."
)

// IsExit reports whether a line ends the session.
func IsExit(line string) bool {
	return strings.ToLower(strings.TrimSpace(line)) == "exit"
}

// REPL reads one question per line and answers it through the pipeline.
type REPL struct {
	pipeline domain.Pipeline
	in       *bufio.Scanner
	out      io.Writer
}

func NewREPL(p domain.Pipeline, in io.Reader, out io.Writer) *REPL {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &REPL{pipeline: p, in: sc, out: out}
}

// Run loops until "exit", end of input or a canceled context. Query errors
// are printed and the loop goes on.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, PromptText)
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		line := r.in.Text()
		if IsExit(line) {
			fmt.Fprintln(r.out, Goodbye)
			return nil
		}
		r.ask(ctx, line)
	}
}

func (r *REPL) ask(ctx context.Context, question string) {
	fmt.Fprintf(r.out, "\n🔍 Searching for: %s\n", question)
	answer, err := r.pipeline.Query(ctx, question)
	if err != nil {
		fmt.Fprintf(r.out, "❌ %v\n", err)
		return
	}
	fmt.Fprint(r.out, Render(answer))
}

// Render formats an answer the way the interactive surfaces print it.
func Render(a domain.Answer) string {
	if !a.Grounded {
		return NoResults + "\n"
	}
	return "\n🤖 Gemini answer:\n" + a.Text + "\n"
}
