package usecase

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// CommandLine is a line that parsed as exactly one simple command: a plain
// command name followed by words, with no pipes, lists, redirections,
// assignments or background operator.
type CommandLine struct {
	Name  string
	words []*syntax.Word
}

// ParseCommandLine parses line with a shell parser and reports whether it is
// a single simple command. Lines that do not parse, or that need shell
// grammar, return false and belong to the command executor.
func ParseCommandLine(line string) (*CommandLine, bool) {
	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil || len(file.Stmts) != 1 {
		return nil, false
	}

	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, false
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 || len(call.Args) == 0 {
		return nil, false
	}

	name := call.Args[0].Lit()
	if name == "" {
		return nil, false
	}
	return &CommandLine{Name: name, words: call.Args[1:]}, true
}

// Args expands the argument words against the current environment: quotes
// are removed and parameters, tildes and field splitting are applied.
// Command substitution and globbing are not performed.
func (c *CommandLine) Args() ([]string, error) {
	cfg := &expand.Config{Env: expand.ListEnviron(os.Environ()...)}
	args, err := expand.Fields(cfg, c.words...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	return args, nil
}
