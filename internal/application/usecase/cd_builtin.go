package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// CdBuiltin changes the shell's working directory and keeps PWD and OLDPWD
// in the environment so child commands see them.
//
//	cd        home directory
//	cd ~/dir  path under the home directory
//	cd -      previous directory, printed after the change
//	cd dir    dir
type CdBuiltin struct {
	home func() (string, error)
}

// NewCdBuiltin creates a CdBuiltin resolving the home directory with go-homedir.
func NewCdBuiltin() *CdBuiltin {
	return NewCdBuiltinWithHome(homedir.Dir)
}

// NewCdBuiltinWithHome creates a CdBuiltin with a custom home directory lookup.
func NewCdBuiltinWithHome(home func() (string, error)) *CdBuiltin {
	if home == nil {
		home = homedir.Dir
	}
	return &CdBuiltin{home: home}
}

// Name returns "cd".
func (c *CdBuiltin) Name() string {
	return "cd"
}

// Run changes directory.
func (c *CdBuiltin) Run(_ context.Context, args []string, streams Streams) (int, error) {
	if len(args) > 1 {
		fmt.Fprintln(streams.Stderr, "cd: too many arguments")
		return 1, nil
	}

	current, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(streams.Stderr, "cd: failed to get current directory:", err)
		return 1, nil
	}

	target, status := c.resolve(args, streams)
	if status != 0 {
		return status, nil
	}

	if err := os.Chdir(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(streams.Stderr, "cd: %s: No such file or directory\n", target)
		} else {
			fmt.Fprintf(streams.Stderr, "cd: %s: %s\n", target, unwrapPathError(err))
		}
		return 1, nil
	}

	if len(args) == 1 && args[0] == "-" {
		fmt.Fprintln(streams.Stdout, target)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = target
	}
	_ = os.Setenv("OLDPWD", current)
	_ = os.Setenv("PWD", wd)
	return 0, nil
}

func (c *CdBuiltin) resolve(args []string, streams Streams) (string, int) {
	if len(args) == 0 {
		home, err := c.home()
		if err != nil || home == "" {
			fmt.Fprintln(streams.Stderr, "cd: HOME not set")
			return "", 1
		}
		return home, 0
	}

	arg := args[0]
	switch {
	case arg == "-":
		prev := os.Getenv("OLDPWD")
		if prev == "" {
			fmt.Fprintln(streams.Stderr, "cd: OLDPWD not set")
			return "", 1
		}
		return prev, 0
	case arg == "~" || strings.HasPrefix(arg, "~/"):
		home, err := c.home()
		if err != nil || home == "" {
			fmt.Fprintln(streams.Stderr, "cd: HOME not set")
			return "", 1
		}
		return filepath.Join(home, strings.TrimPrefix(arg, "~")), 0
	default:
		return arg, 0
	}
}

func unwrapPathError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
