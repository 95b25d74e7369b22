// Package usecase provides use case implementations for the application layer.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
)

var (
	// ErrBuiltinRequired is returned when a nil builtin is registered.
	ErrBuiltinRequired = errors.New("builtin is required")

	// ErrBuiltinNameRequired is returned when a builtin has an empty name.
	ErrBuiltinNameRequired = errors.New("builtin name is required")

	// ErrBuiltinAlreadyRegistered is returned when two builtins share a name.
	ErrBuiltinAlreadyRegistered = errors.New("builtin already registered")

	// ErrHistoryStoreRequired is returned when HistoryStore is nil.
	ErrHistoryStoreRequired = errors.New("history store is required")
)

// Streams are the output streams a builtin writes to.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Builtin is a command run inside the shell process.
type Builtin interface {
	// Name is the command word the builtin is dispatched on.
	Name() string

	// Run executes the builtin and returns its exit status. Usage problems
	// are reported on Stderr with a non-zero status; the only error returned
	// is *ExitError.
	Run(ctx context.Context, args []string, streams Streams) (int, error)
}

// ExitError asks the shell loop to stop with Code as the process status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

// Registry maps command words to builtins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds b under b.Name().
//
// Returns:
//   - error: An error if b is nil, unnamed or its name is taken
func (r *Registry) Register(b Builtin) error {
	if b == nil {
		return ErrBuiltinRequired
	}
	name := b.Name()
	if name == "" {
		return ErrBuiltinNameRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builtins[name]; exists {
		return fmt.Errorf("%w: %s", ErrBuiltinAlreadyRegistered, name)
	}
	r.builtins[name] = b
	return nil
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builtins[name]
	return b, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
