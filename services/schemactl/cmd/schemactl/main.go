package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// execute runs one command line and releases whatever it opened.
func execute(ctx context.Context, args []string, out io.Writer) error {
	a := &app{}
	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	err := cmd.ExecuteContext(ctx)
	return multierr.Append(err, a.close(ctx))
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schemactl",
		Short:         "Manage the Prompterly schema, seed data and snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand(a))
	cmd.AddCommand(newSeedCommand(a))
	cmd.AddCommand(newCheckCommand(a))
	cmd.AddCommand(newReconcileCommand(a))
	cmd.AddCommand(newSchemaCommand(a))
	cmd.AddCommand(newSnapshotCommand(a))
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
