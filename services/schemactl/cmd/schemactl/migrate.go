package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"prompterly/pkg/db/migrate"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back and inspect schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newMigrateUpCommand(a))
	cmd.AddCommand(newMigrateDownCommand(a))
	cmd.AddCommand(newMigrateStatusCommand(a))
	cmd.AddCommand(newMigrateRepairCommand(a))
	return cmd
}

func newMigrateUpCommand(a *app) *cobra.Command {
	var to int64

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			return a.migrate(ctx, cmd.OutOrStdout(), migrate.DirectionUp, func() ([]migrate.Result, error) {
				if cmd.Flags().Changed("to") {
					return a.runner.UpTo(ctx, to)
				}
				return a.runner.Up(ctx)
			})
		},
	}

	cmd.Flags().Int64Var(&to, "to", 0, "Stop after applying this version")
	return cmd
}

func newMigrateDownCommand(a *app) *cobra.Command {
	var to int64

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or every migration above --to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			return a.migrate(ctx, cmd.OutOrStdout(), migrate.DirectionDown, func() ([]migrate.Result, error) {
				if cmd.Flags().Changed("to") {
					return a.runner.DownTo(ctx, to)
				}
				res, err := a.runner.Down(ctx)
				if res == nil {
					return nil, err
				}
				return []migrate.Result{*res}, err
			})
		},
	}

	cmd.Flags().Int64Var(&to, "to", 0, "Roll back to this version (0 rolls back everything)")
	return cmd
}

// migrate runs fn, reports what it applied, and announces the version change
// even when a later migration failed.
func (a *app) migrate(ctx context.Context, out io.Writer, dir migrate.Direction, fn func() ([]migrate.Result, error)) error {
	before, err := a.runner.Version(ctx)
	if err != nil {
		return err
	}
	results, runErr := fn()
	for _, r := range results {
		fmt.Fprintf(out, "%s %s (%s)\n", verb(dir), r.ID(), r.Duration.Round(time.Millisecond))
	}

	after, err := a.runner.Version(ctx)
	if err != nil {
		return multierr.Append(runErr, err)
	}
	a.publishMigrated(ctx, before.Version, after.Version, dir)
	a.pushMetrics(ctx)
	if runErr != nil {
		return runErr
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "nothing to do; schema is at %s\n", after.ID())
		return nil
	}
	fmt.Fprintf(out, "schema is at %s\n", after.ID())
	return nil
}

func verb(dir migrate.Direction) string {
	if dir == migrate.DirectionDown {
		return "rolled back"
	}
	return "applied"
}

func newMigrateStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List migrations, the version marker and any drift from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			statuses, err := a.runner.Status(ctx)
			if err != nil {
				return err
			}
			marker, err := a.runner.Version(ctx)
			if err != nil {
				return err
			}
			drift, err := migrate.CheckDrift(ctx, a.handle.ORM, a.reg)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), statuses, marker, drift)
		},
	}
}

func printStatus(out io.Writer, statuses []migrate.Status, marker migrate.Marker, drift []migrate.Drift) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATE\tAPPLIED AT")
	for _, s := range statuses {
		state, at := "pending", "-"
		if s.Applied {
			state = "applied"
			at = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%04d\t%s\t%s\t%s\n", s.Version, s.Name, state, at)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	dirty := ""
	if marker.Dirty {
		dirty = " (dirty; run migrate repair)"
	}
	fmt.Fprintf(out, "\nmarker: %s%s\n", marker.ID(), dirty)

	if len(drift) == 0 {
		fmt.Fprintln(out, "drift: none")
		return nil
	}
	fmt.Fprintln(out, "drift:")
	for _, d := range drift {
		switch {
		case d.MissingTable:
			fmt.Fprintf(out, "  %s: table missing\n", d.Table)
		default:
			fmt.Fprintf(out, "  %s: missing [%s] extra [%s]\n", d.Table, strings.Join(d.Missing, ", "), strings.Join(d.Extra, ", "))
		}
	}
	return nil
}

func newMigrateRepairCommand(a *app) *cobra.Command {
	var version int64

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Record --version as current after fixing a partial migration by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			if err := a.runner.Repair(ctx, version); err != nil {
				return err
			}
			marker, err := a.runner.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marker repaired; schema is at %s\n", marker.ID())
			return nil
		},
	}

	cmd.Flags().Int64Var(&version, "version", 0, "Version to record as current")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
