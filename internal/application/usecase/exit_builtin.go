package usecase

import (
	"context"
	"fmt"
	"strconv"
)

// ExitBuiltin ends the session. `exit` uses status 0 and `exit N` uses N
// truncated to 0-255, the range a process status can carry.
type ExitBuiltin struct{}

// NewExitBuiltin creates an ExitBuiltin.
func NewExitBuiltin() *ExitBuiltin {
	return &ExitBuiltin{}
}

// Name returns "exit".
func (e *ExitBuiltin) Name() string {
	return "exit"
}

// Run returns *ExitError unless the arguments are unusable, in which case
// the shell keeps running.
func (e *ExitBuiltin) Run(_ context.Context, args []string, streams Streams) (int, error) {
	switch len(args) {
	case 0:
		return 0, &ExitError{Code: 0}
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(streams.Stderr, "exit: %s: numeric argument required\n", args[0])
			return 2, nil
		}
		code := n & 0xff
		return code, &ExitError{Code: code}
	default:
		fmt.Fprintln(streams.Stderr, "exit: too many arguments")
		return 1, nil
	}
}
