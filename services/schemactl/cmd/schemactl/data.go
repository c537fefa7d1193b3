package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"prompterly/pkg/consistency"
	"prompterly/pkg/db/seed"
)

func newSeedCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample dataset, or --file, into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}

			var (
				ds  *seed.Dataset
				err error
			)
			if file != "" {
				ds, err = seed.ParseFile(file)
			} else {
				ds, err = seed.Sample()
			}
			if err != nil {
				return err
			}

			loader, err := seed.New(a.handle.ORM, a.reg, seed.WithLogger(a.log))
			if err != nil {
				return err
			}
			res, err := loader.Load(ctx, ds)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range res.Tables {
				fmt.Fprintf(out, "%s: %d inserted, %d skipped\n", t.Table, t.Inserted, t.Skipped)
			}
			a.pushMetrics(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML dataset to load instead of the bundled sample")
	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	var (
		strict bool
		asJSON bool
		grace  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report status fields that disagree with their timestamps",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			checker, err := consistency.NewChecker(a.handle.ORM, consistency.WithLogger(a.log), consistency.WithGrace(grace))
			if err != nil {
				return err
			}
			report, err := checker.Run(ctx, time.Now())
			if err != nil {
				return err
			}
			a.pushMetrics(ctx)

			if err := printReport(cmd.OutOrStdout(), report, asJSON); err != nil {
				return err
			}
			if strict && !report.Clean() {
				return fmt.Errorf("%d consistency findings", len(report.Findings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when anything is found")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().DurationVar(&grace, "grace", consistency.DefaultGrace, "How long past renews_at an active subscription is tolerated")
	return cmd
}

func printReport(out io.Writer, report *consistency.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if report.Clean() {
		fmt.Fprintln(out, "no findings")
		return nil
	}
	for _, f := range report.Findings {
		fmt.Fprintf(out, "%s %s#%d: %s\n", f.Kind, f.Table, f.ID, f.Detail)
	}
	return nil
}

func newReconcileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Apply explicit repairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "capsules",
		Short: "Unlock time capsules whose unlock time has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			rec, err := consistency.NewReconciler(a.handle.ORM, a.publisher(), a.log)
			if err != nil {
				return err
			}
			unlocked, err := rec.UnlockDue(ctx, time.Now())
			for _, u := range unlocked {
				fmt.Fprintf(cmd.OutOrStdout(), "unlocked capsule %d for user %d\n", u.CapsuleID, u.UserID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d capsules unlocked\n", len(unlocked))
			return nil
		},
	})
	return cmd
}
