package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shell/internal/config"
	"github.com/vango-dev/shell/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by all commands.
type globalFlags struct {
	configPath string
	logLevel   string
	jsonErrors bool
	noColor    bool
}

func main() {
	flags := &globalFlags{}
	rootCmd := newRootCmd(flags)

	if err := rootCmd.Execute(); err != nil {
		se := errors.Classify(err)
		if flags.jsonErrors {
			fmt.Fprintln(os.Stderr, se.FormatJSON())
		} else {
			errors.PrintError(se)
		}
		os.Exit(1)
	}
}

func newRootCmd(flags *globalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shell",
		Short: "Bootstrap and navigation shell for server-driven UIs",
		Long: `shell initializes a server-side UI session, activates the push
runtime and asks the server to attach views to placeholder elements.

It also ships a reference server implementing the init and push
endpoints, so both ends can be run locally:

  shell serve --route main/users --route 'users/{id}'
  shell navigate main/users users/42`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.noColor {
				errors.DisableColors()
			}
			return setupLogging(flags.logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to shell.json (default: nearest shell.json upwards)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonErrors, "json-errors", false, "Print errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		serveCmd(flags),
		navigateCmd(flags),
		initCmd(),
		versionCmd(),
	)
	return rootCmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return errors.New("E050").
			WithDetail("Unknown log level " + level).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig loads the configuration named by --config, or the nearest
// shell.json. Without any shell.json the defaults are used.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadFile(flags.configPath)
	}
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		if se, ok := err.(*errors.ShellError); ok && se.Code == "E042" {
			return config.New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
