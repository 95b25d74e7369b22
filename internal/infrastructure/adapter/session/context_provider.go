// Package session provides the SessionContext adapter that reports who and
// where the shell is running.
package session

import (
	"cush/internal/domain/entity"
	"cush/internal/domain/port"
	"os"
	"os/user"

	"github.com/mitchellh/go-homedir"
)

// Sources supplies the raw process facts a snapshot is built from.
// Nil fields use the operating system.
type Sources struct {
	Username func() (string, error)
	Hostname func() (string, error)
	Getwd    func() (string, error)
	Home     func() (string, error)
	Euid     func() int
	Getenv   func(string) string
}

// ContextProvider implements port.SessionContext from the live process state.
type ContextProvider struct {
	src Sources
}

var _ port.SessionContext = (*ContextProvider)(nil)

// NewContextProvider creates a provider backed by the operating system.
func NewContextProvider() *ContextProvider {
	return NewContextProviderWithSources(Sources{})
}

// NewContextProviderWithSources creates a provider with custom sources.
func NewContextProviderWithSources(src Sources) *ContextProvider {
	if src.Username == nil {
		src.Username = func() (string, error) {
			u, err := user.Current()
			if err != nil {
				return "", err
			}
			return u.Username, nil
		}
	}
	if src.Hostname == nil {
		src.Hostname = os.Hostname
	}
	if src.Getwd == nil {
		src.Getwd = os.Getwd
	}
	if src.Home == nil {
		src.Home = homedir.Dir
	}
	if src.Euid == nil {
		src.Euid = os.Geteuid
	}
	if src.Getenv == nil {
		src.Getenv = os.Getenv
	}
	return &ContextProvider{src: src}
}

// Snapshot returns the current prompt context. Lookups that fail fall back
// to the environment and then to "?", so a prompt can always be drawn.
func (p *ContextProvider) Snapshot() entity.PromptContext {
	return entity.PromptContext{
		User: p.userName(),
		Host: p.hostName(),
		Dir:  p.workingDir(),
		Home: p.homeDir(),
		Root: p.src.Euid() == 0,
	}
}

func (p *ContextProvider) userName() string {
	if name, err := p.src.Username(); err == nil && name != "" {
		return name
	}
	for _, key := range []string{"USER", "LOGNAME"} {
		if name := p.src.Getenv(key); name != "" {
			return name
		}
	}
	return "?"
}

func (p *ContextProvider) hostName() string {
	if host, err := p.src.Hostname(); err == nil && host != "" {
		return host
	}
	if host := p.src.Getenv("HOSTNAME"); host != "" {
		return host
	}
	return "?"
}

func (p *ContextProvider) workingDir() string {
	if dir, err := p.src.Getwd(); err == nil && dir != "" {
		return dir
	}
	if dir := p.src.Getenv("PWD"); dir != "" {
		return dir
	}
	return "?"
}

func (p *ContextProvider) homeDir() string {
	if home, err := p.src.Home(); err == nil {
		return home
	}
	return p.src.Getenv("HOME")
}
