// Package cli implements explorerctl, a terminal client for the collection explorer.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"firestore-explorer/internal/di"
	"firestore-explorer/internal/explorer"
	"firestore-explorer/internal/explorer/config"
	"firestore-explorer/internal/shared/logger"

	"github.com/spf13/cobra"
)

// OpenFunc returns a ready explorer module and a function releasing it.
type OpenFunc func(ctx context.Context) (*explorer.ExplorerModule, func() error, error)

// Options configures NewRootCommand.
type Options struct {
	// Open defaults to a container built from the environment.
	Open OpenFunc
}

type app struct {
	open    OpenFunc
	verbose bool
}

// NewRootCommand builds explorerctl with all of its subcommands.
func NewRootCommand(opts Options) *cobra.Command {
	a := &app{open: opts.Open}
	if a.open == nil {
		a.open = a.openFromEnvironment
	}

	rootCmd := &cobra.Command{
		Use:           "explorerctl",
		Short:         "Browse and edit Firestore-style collections from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		a.newListCommand(),
		a.newAddCommand(),
		a.newRemoveCommand(),
		a.newSeedCommand(),
		a.newChangesCommand(),
		a.newTokenCommand(),
		newHashPasswordCommand(),
	)
	return rootCmd
}

// Execute runs the command tree and prints the error, if any, to stderr.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func (a *app) openFromEnvironment(ctx context.Context) (*explorer.ExplorerModule, func() error, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	container := di.NewContainer(cfg, logger.NewLoggerWithConfig(level, "text"))
	if err := container.Initialize(ctx); err != nil {
		_ = container.Close()
		return nil, nil, err
	}
	return container.GetExplorerModule(), container.Close, nil
}

// withModule opens the module for the duration of fn.
func (a *app) withModule(cmd *cobra.Command, fn func(ctx context.Context, m *explorer.ExplorerModule) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	m, closeFn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(ctx, m)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
