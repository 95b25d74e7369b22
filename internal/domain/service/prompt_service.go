package service

import (
	"cush/internal/domain/entity"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultPromptFormat renders "<user@host>$".
const DefaultPromptFormat = `<\u@\h>$`

// ErrEmptyPromptFormat is returned when an empty prompt template is configured.
var ErrEmptyPromptFormat = errors.New("prompt format cannot be empty")

// PromptService renders the interactive prompt from a PromptContext.
//
// The template uses bash PS1 style escapes:
//
//	\u  user name
//	\h  host name up to the first "."
//	\H  full host name
//	\w  working directory, home shown as "~"
//	\W  base name of the working directory
//	\$  "#" for root, "$" otherwise
//	\n  newline
//	\\  backslash
//
// Unknown escapes are copied literally. Render is a pure function of the
// context and the current template; the template can be swapped at runtime
// by SetFormat when the configuration is reloaded.
type PromptService struct {
	mu       sync.RWMutex
	format   string
	color    string
	renderer *lipgloss.Renderer
}

// NewPromptService creates a PromptService with the given template.
// An empty template falls back to DefaultPromptFormat.
// renderer may be nil, in which case colors are never applied.
func NewPromptService(format string, renderer *lipgloss.Renderer) *PromptService {
	if format == "" {
		format = DefaultPromptFormat
	}
	return &PromptService{
		format:   format,
		renderer: renderer,
	}
}

// Render expands the prompt template for ctx.
func (s *PromptService) Render(ctx entity.PromptContext) string {
	s.mu.RLock()
	format, color := s.format, s.color
	s.mu.RUnlock()

	prompt := expandPrompt(format, ctx)
	if color == "" || s.renderer == nil {
		return prompt
	}
	return s.renderer.NewStyle().Foreground(lipgloss.Color(color)).Render(prompt)
}

// Format returns the current prompt template.
func (s *PromptService) Format() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// SetFormat replaces the prompt template.
func (s *PromptService) SetFormat(format string) error {
	if format == "" {
		return ErrEmptyPromptFormat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = format
	return nil
}

// SetColor sets the prompt foreground color. Any lipgloss color string is
// accepted ("5", "#ff8800"); an empty string disables coloring.
func (s *PromptService) SetColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = color
}

func expandPrompt(format string, ctx entity.PromptContext) string {
	var b strings.Builder
	b.Grow(len(format) + len(ctx.User) + len(ctx.Host))

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '\\' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'u':
			b.WriteString(ctx.User)
		case 'h':
			host, _, _ := strings.Cut(ctx.Host, ".")
			b.WriteString(host)
		case 'H':
			b.WriteString(ctx.Host)
		case 'w':
			b.WriteString(abbreviateHome(ctx.Dir, ctx.Home))
		case 'W':
			b.WriteString(baseDir(ctx.Dir, ctx.Home))
		case '$':
			if ctx.Root {
				b.WriteByte('#')
			} else {
				b.WriteByte('$')
			}
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func abbreviateHome(dir, home string) string {
	if home == "" || dir == "" {
		return dir
	}
	if dir == home {
		return "~"
	}
	if strings.HasPrefix(dir, home+string(filepath.Separator)) {
		return "~" + dir[len(home):]
	}
	return dir
}

func baseDir(dir, home string) string {
	if dir == "" {
		return ""
	}
	if home != "" && dir == home {
		return "~"
	}
	return filepath.Base(dir)
}
