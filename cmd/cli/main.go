package main

import (
	"cush/cmd/cli/cmd"
	"fmt"
	"os"
)

func main() {
	err := cmd.Execute()
	if _, ok := err.(*cmd.ExitStatusError); !ok && err != nil {
		fmt.Fprintf(os.Stderr, "cush: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
