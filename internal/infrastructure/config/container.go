package config

import (
	"context"
	"cush/internal/application/usecase"
	"cush/internal/domain/port"
	"cush/internal/domain/service"
	"cush/internal/infrastructure/adapter/process"
	"cush/internal/infrastructure/adapter/session"
	"cush/internal/infrastructure/adapter/ui"
	"cush/internal/infrastructure/logging"
	"cush/internal/infrastructure/signal"
	"errors"
	"fmt"
	"io"
	"os"

	appsvc "cush/internal/application/service"

	"github.com/charmbracelet/lipgloss"
)

// Streams are the standard streams the shell is attached to.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Container holds all application dependencies wired together.
// It provides a single point of access to all services and ports,
// following the dependency injection pattern for clean architecture.
type Container struct {
	config       *Config
	logger       *logging.Logger
	history      *ui.HistoryManager
	promptSvc    *service.PromptService
	expansionSvc *service.ExpansionService
	session      port.SessionContext
	reader       *ui.CLIAdapter
	executor     *process.ShellExecutor
	builtins     *usecase.Registry
	shellService *appsvc.ShellService
	interrupts   *signal.InterruptHandler
	reload       *signal.ReloadHandler
}

// NewContainer creates a new DI container attached to the process's
// standard streams.
func NewContainer(cfg *Config) (*Container, error) {
	return NewContainerWithStreams(cfg, Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr})
}

// NewContainerWithStreams creates a new DI container and wires all dependencies.
//
// The wiring order is:
// 1. Create infrastructure adapters (infra layer)
// 2. Create domain services (domain layer)
// 3. Create application services (application layer)
//
// Parameters:
//   - cfg: Configuration object containing application settings
//   - streams: The shell's stdin, stdout and stderr
//
// Returns:
//   - *Container: A fully wired dependency container
//   - error: An error if any dependency creation fails
func NewContainerWithStreams(cfg *Config, streams Streams) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if streams.Stdin == nil || streams.Stdout == nil || streams.Stderr == nil {
		return nil, errors.New("stdin, stdout and stderr are required")
	}

	// Step 1: Create infrastructure adapters
	logger, err := logging.NewLogger(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Format:  logging.ParseFormat(cfg.LogFormat),
		File:    cfg.LogFile,
		AddTime: true,
	})
	if err != nil {
		return nil, err
	}

	history := ui.NewHistoryManager(ui.HistoryOptions{
		MaxEntries: cfg.HistoryMaxEntries,
		IgnoreDups: cfg.HistoryIgnoreDups,
	})
	reader := ui.NewCLIAdapterWithIO(streams.Stdin, streams.Stdout, history, ui.CLIOptions{
		Interactive:   cfg.Interactive,
		EscapeTimeout: cfg.EscapeTimeout,
		Logger:        logger.Component("terminal"),
	})
	sessionCtx := session.NewContextProvider()
	interrupts := signal.NewInterruptHandler(context.Background())
	executor := process.NewShellExecutor(process.ExecutorOptions{
		Shell:  cfg.Shell,
		Stdin:  streams.Stdin,
		Stdout: streams.Stdout,
		Stderr: streams.Stderr,
		Guard:  interrupts,
		Logger: logger.Component("process"),
	})

	// Step 2: Create domain services
	promptSvc := service.NewPromptService(cfg.PromptFormat, lipgloss.NewRenderer(streams.Stdout))
	promptSvc.SetColor(cfg.PromptColor)

	expansionSvc, err := service.NewExpansionService(history)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	// Step 3: Create application services
	builtins, err := newBuiltinRegistry(history)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	shellService, err := appsvc.NewShellService(appsvc.ShellDeps{
		Reader:    reader,
		Session:   sessionCtx,
		Prompt:    promptSvc,
		Expander:  expansionSvc,
		History:   history,
		Builtins:  builtins,
		Executor:  executor,
		Stdout:    streams.Stdout,
		Stderr:    streams.Stderr,
		Logger:    logger.Component("shell"),
		EchoLines: cfg.EchoExpansion,
	})
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	c := &Container{
		config:       cfg,
		logger:       logger,
		history:      history,
		promptSvc:    promptSvc,
		expansionSvc: expansionSvc,
		session:      sessionCtx,
		reader:       reader,
		executor:     executor,
		builtins:     builtins,
		shellService: shellService,
		interrupts:   interrupts,
	}
	c.reload = signal.NewReloadHandler(c.Reload, logger.Component("reload"))

	logger.Debug("container wired",
		"interactive", reader.Interactive(),
		"terminal", reader.IsTerminal(),
		"shell", executor.Shell(),
		"config_file", cfg.ConfigFile,
	)
	return c, nil
}

func newBuiltinRegistry(history port.HistoryStore) (*usecase.Registry, error) {
	historyBuiltin, err := usecase.NewHistoryBuiltin(history)
	if err != nil {
		return nil, err
	}

	registry := usecase.NewRegistry()
	for _, b := range []usecase.Builtin{historyBuiltin, usecase.NewExitBuiltin(), usecase.NewCdBuiltin()} {
		if err := registry.Register(b); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Run starts the signal handlers and runs the shell loop until it ends.
//
// Returns:
//   - int: The status the process should exit with
//   - error: An error if the shell loop failed
func (c *Container) Run(ctx context.Context) (int, error) {
	c.interrupts.Start()
	defer c.interrupts.Stop()
	c.reload.Start()
	defer c.reload.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.interrupts.Context(), cancel)
	defer stop()

	c.logger.Info("shell started")
	status, err := c.shellService.Run(runCtx)
	c.logger.Info("shell stopped", "status", status)
	return status, err
}

// Reload re-reads the config file and environment and applies the settings
// that can change in a running shell: prompt format, prompt color and log level.
func (c *Container) Reload(_ context.Context) error {
	if _, err := ReadConfigFile(c.config.ConfigFile); err != nil {
		return err
	}
	next := LoadConfig()

	if err := c.promptSvc.SetFormat(next.PromptFormat); err != nil {
		return fmt.Errorf("invalid prompt format: %w", err)
	}
	c.promptSvc.SetColor(next.PromptColor)
	c.logger.SetLevel(logging.ParseLevel(next.LogLevel))

	c.config.PromptFormat = next.PromptFormat
	c.config.PromptColor = next.PromptColor
	c.config.LogLevel = next.LogLevel
	return nil
}

// Close releases the log file.
func (c *Container) Close() error {
	return c.logger.Close()
}

// Config returns the application configuration.
func (c *Container) Config() *Config {
	return c.config
}

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// History returns the session history store.
func (c *Container) History() *ui.HistoryManager {
	return c.history
}

// PromptService returns the prompt formatter.
func (c *Container) PromptService() *service.PromptService {
	return c.promptSvc
}

// ExpansionService returns the bang expansion resolver.
func (c *Container) ExpansionService() *service.ExpansionService {
	return c.expansionSvc
}

// SessionContext returns the session context provider.
func (c *Container) SessionContext() port.SessionContext {
	return c.session
}

// LineReader returns the terminal adapter.
func (c *Container) LineReader() *ui.CLIAdapter {
	return c.reader
}

// Executor returns the external command executor.
func (c *Container) Executor() *process.ShellExecutor {
	return c.executor
}

// Builtins returns the builtin registry.
func (c *Container) Builtins() *usecase.Registry {
	return c.builtins
}

// ShellService returns the read-eval loop.
func (c *Container) ShellService() *appsvc.ShellService {
	return c.shellService
}

// InterruptHandler returns the SIGINT/SIGTERM handler.
func (c *Container) InterruptHandler() *signal.InterruptHandler {
	return c.interrupts
}

// ReloadHandler returns the SIGHUP handler.
func (c *Container) ReloadHandler() *signal.ReloadHandler {
	return c.reload
}
