package port

import (
	"context"
)

// CommandExecutor runs a fully resolved, bang-free command line that is not
// a shell builtin. The command is opaque to the shell.
type CommandExecutor interface {
	// Execute runs line in the foreground and returns its exit status.
	// A non-zero status is not an error; err is reserved for failures to
	// start or wait for the command.
	Execute(ctx context.Context, line string) (int, error)
}
