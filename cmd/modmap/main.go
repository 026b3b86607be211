// Command modmap orders, highlights and renders module prerequisite maps.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modmap/internal/cli"
	errs "github.com/matzehuels/modmap/pkg/errors"
)

// Exit statuses. A dataset problem is told apart from a usage mistake so
// scripts running `modmap check` in CI can react to cycles.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitDataset   = 3
	exitInterrupt = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, cli.StyleError.Render("✗")+" "+errs.UserMessage(err))
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupt
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPref, errs.ErrCodeInvalidPath:
		return exitUsage
	case errs.ErrCodeCycle, errs.ErrCodeInvalidDataset:
		return exitDataset
	}
	return exitFailure
}

// run builds the command tree with a --verbose switch that lowers the log
// level before any command's own setup runs.
func run(ctx context.Context, args []string, logOut io.Writer) error {
	c := cli.New(logOut, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.SetArgs(args)

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if setup == nil {
			return nil
		}
		return setup(cmd, args)
	}
	return root.ExecuteContext(ctx)
}
