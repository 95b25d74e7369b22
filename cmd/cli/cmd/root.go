// Package cmd implements the cush command line.
package cmd

import (
	"context"
	"cush/internal/infrastructure/config"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ExitStatusError carries the status the shell asked the process to exit with.
type ExitStatusError struct {
	Status int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", e.Status)
}

// global config shared between PreRunE and RunE.
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cush",
	Short: "A small interactive shell with history expansion",
	Long: `cush reads command lines, keeps a numbered history of them and runs
each one with the system shell.

History references are resolved before a line runs:

  !!        the previous command
  !n        command number n
  !-n       the command n entries back
  !prefix   the latest command starting with prefix
  !?text    the latest command containing text

The up and down arrows walk the history while editing a line.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString(config.KeyConfig)
		if err != nil {
			return err
		}
		if _, err := config.ReadConfigFile(configFile); err != nil {
			return err
		}

		cfg = config.LoadConfig()
		return nil
	},
	RunE: runShell,
}

// runShell wires the container and runs the read-eval loop.
func runShell(cmd *cobra.Command, args []string) error {
	container, err := config.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	status, err := container.Run(cmd.Context())
	if err != nil {
		return err
	}
	if status != 0 {
		return &ExitStatusError{Status: status}
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// SIGINT is left to the shell's interrupt handler so that Ctrl+C only
// stops the foreground command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if statusErr, ok := err.(*ExitStatusError); ok {
		return statusErr.Status
	}
	return 1
}

func init() {
	defaults := config.Defaults()
	flags := rootCmd.PersistentFlags()

	// Define flags
	flags.String(config.KeyConfig, "", "Config file (default $HOME/.cush.yaml)")
	flags.StringP(config.KeyPrompt, "p", defaults.PromptFormat, `Prompt template (\u user, \h host, \w cwd, \W cwd base, \$ # or $)`)
	flags.String(config.KeyPromptColor, "", "Prompt color, a color name or hex code")
	flags.String(config.KeyShell, defaults.Shell, "Shell used to run external commands")
	flags.Int(config.KeyHistorySize, 0, "Maximum history entries to keep (0 keeps all)")
	flags.Bool(config.KeyHistoryIgnoreDups, false, "Do not record a command equal to the previous one")
	flags.Duration(config.KeyEscapeTimeout, defaults.EscapeTimeout, "How long to wait for the rest of an escape sequence")
	flags.BoolP(config.KeyInteractive, "i", false, "Show the prompt and edit lines even when stdin is not a terminal")
	flags.Bool(config.KeyEchoExpansion, defaults.EchoExpansion, "Print history references after expanding them")
	flags.String(config.KeyLogLevel, defaults.LogLevel, "Log level: debug, info, warn, error")
	flags.String(config.KeyLogFile, "", "Write logs to this file")
	flags.String(config.KeyLogFormat, defaults.LogFormat, "Log format: text or json")

	bindFlags()
}

// bindFlags binds every persistent flag except --config to its viper key.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	for _, key := range []string{
		config.KeyPrompt,
		config.KeyPromptColor,
		config.KeyShell,
		config.KeyHistorySize,
		config.KeyHistoryIgnoreDups,
		config.KeyEscapeTimeout,
		config.KeyInteractive,
		config.KeyEchoExpansion,
		config.KeyLogLevel,
		config.KeyLogFile,
		config.KeyLogFormat,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", key, err)
		}
	}
}
