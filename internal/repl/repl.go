package repl

import (
	"fmt"
	"io"
	"rill/internal/evaluator"
	"rill/internal/lexer"
	"rill/internal/object"
	"rill/internal/parser"
	"strings"

	"github.com/chzyer/readline"
)

const prompt = ">> "

// Start runs the interactive loop. Declarations and bindings accumulate in
// one shared environment; the actor system lives for the whole session.
func Start(out io.Writer) error {
	rl, err := readline.New(prompt)
	if err != nil {
		return err
	}
	defer rl.Close()

	env := object.NewEnvironment()
	eval := evaluator.New(env)
	defer eval.System().Shutdown()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		l := lexer.New(line)
		p := parser.New(l)
		program := p.ParseProgram()
		if errs := p.Errors(); len(errs) != 0 {
			printParserErrors(out, errs)
			continue
		}

		result := eval.Eval(program)
		if result == nil {
			continue
		}
		if _, isUnit := result.(*object.Unit); isUnit {
			continue
		}
		fmt.Fprintln(out, result.Inspect())
	}
}

func printParserErrors(out io.Writer, errors []string) {
	for _, msg := range errors {
		fmt.Fprintf(out, "parse error: %s\n", msg)
	}
}
