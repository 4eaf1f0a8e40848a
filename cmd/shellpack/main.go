package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shellpack/pkg/cli"
)

var (
	contextBuilder = cli.ContextBuilder{Output: cli.OutputText}
)

// reportedError is an error already printed by the UI.
type reportedError struct {
	error
}

func (e *reportedError) Unwrap() error {
	return e.error
}

func wrapCmd(cmd cli.Command) func(*cobra.Command, []string) error {
	return func(c *cobra.Command, args []string) error {
		if err := contextBuilder.BuildAndRun(c.Context(), cmd, args...); err != nil {
			return &reportedError{err}
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	buildCmd := &cli.BuildCmd{}
	root := &cobra.Command{
		Use:   "shellpack",
		Short: "Package the application into per-platform distribution directories",
		Long: `Package the application into per-platform distribution directories.

The project root is the closest directory containing package.json, starting
from the working directory. For every platform whose runtime archive is
present, the payload is copied into
    {dist}/{product}-{version}-{platform}/resources/app
and the archive is extracted into the output root. Platforms without an
archive are skipped.

Without a command, "build" is performed.
`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          wrapCmd(buildCmd),
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&contextBuilder.WorkDir, "dir", "C", "", "Working directory.")
	flags.BoolVar(&contextBuilder.TextUI, "no-color", contextBuilder.TextUI, "Disable color terminal support.")
	flags.BoolVarP(&contextBuilder.Verbose, "verbose", "v", false, "Print diagnostics to stderr.")
	flags.IntVarP(&contextBuilder.NumWorkers, "jobs", "j", 1, "Number of platforms built in parallel.")
	flags.StringArrayVar(&contextBuilder.Platforms, "platform", nil, "Restrict to the platform, repeatable.")
	flags.StringVar(&contextBuilder.Product, "product", "", "Product name, overrides the config.")
	flags.StringVarP(&contextBuilder.Output, "output", "o", contextBuilder.Output, "Output format: text or yaml.")

	root.AddCommand(
		&cobra.Command{
			Use:     "build",
			Aliases: []string{"b"},
			Short:   "Build all platforms",
			Args:    cobra.NoArgs,
			RunE:    wrapCmd(buildCmd),
		},
		&cobra.Command{
			Use:   "check",
			Short: "Resolve the version and payload without writing anything",
			Args:  cobra.NoArgs,
			RunE:  wrapCmd(&cli.CheckCmd{}),
		},
		&cobra.Command{
			Use:     "platforms",
			Aliases: []string{"p"},
			Short:   "List known platforms and availability of runtime archives",
			Args:    cobra.NoArgs,
			RunE:    wrapCmd(&cli.PlatformsCmd{}),
		},
		&cobra.Command{
			Use:     "status",
			Aliases: []string{"st"},
			Short:   "Print output directories of the current version",
			Args:    cobra.NoArgs,
			RunE:    wrapCmd(&cli.StatusCmd{}),
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Compare the payload with existing output directories",
			Args:  cobra.NoArgs,
			RunE:  wrapCmd(&cli.VerifyCmd{}),
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove output directories of the current version",
			Args:  cobra.NoArgs,
			RunE:  wrapCmd(&cli.CleanCmd{}),
		},
		newRunCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [-- ARGUMENTS...]",
		Aliases: []string{"r"},
		Short:   "Execute the packaged executable of the host platform",
		Args:    cobra.ArbitraryArgs,
		RunE:    wrapCmd(&cli.RunCmd{}),
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		<-sigCh
		os.Exit(1)
	}()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			// Usage errors from flags and arguments.
			fmt.Fprintf(os.Stderr, "Error: %v.\n", err)
		}
		os.Exit(1)
	}
}
