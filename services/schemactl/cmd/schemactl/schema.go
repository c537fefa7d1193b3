package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prompterly/pkg/render"
)

func newSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the schema registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print every table with its columns, enums and references",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			doc := render.Describe(a.reg)
			marker, err := a.runner.Version(ctx)
			if err != nil {
				return err
			}
			doc.Version, doc.Migration = marker.Version, marker.ID()

			switch format {
			case "yaml":
				out, err := render.YAML(doc)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			case "markdown", "md":
				engine, err := render.New()
				if err != nil {
					return err
				}
				out, err := engine.Markdown(doc)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			default:
				return fmt.Errorf("unknown format %q (want markdown or yaml)", format)
			}
		},
	}
	dump.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or yaml")

	cmd.AddCommand(dump)
	return cmd
}
