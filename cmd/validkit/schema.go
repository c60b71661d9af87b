package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/validkit/pkg/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and convert form schemas",
	}
	cmd.AddCommand(newSchemaStatsCmd(), newSchemaConvertCmd(), newSchemaMergeCmd())
	return cmd
}

func newSchemaStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats SCHEMA",
		Short: "Count fields and validators of a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			st := form.Stats()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "fields\t%d\n", st.Fields)
			fmt.Fprintf(tw, "required fields\t%d\n", st.RequiredFields)
			fmt.Fprintf(tw, "validators\t%d\n", st.Validators)
			fmt.Fprintf(tw, "async validators\t%d\n", st.AsyncValidators)
			fmt.Fprintf(tw, "form validators\t%d\n", st.FormValidators)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print stats as JSON")
	return cmd
}

func newSchemaConvertCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert SCHEMA",
		Short: "Convert a schema between JSON and YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			if to == "" {
				to = "yaml"
				if isYAML(args[0]) {
					to = "json"
				}
			}
			return encodeSchema(cmd.OutOrStdout(), form, strings.ToLower(to))
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output format: json or yaml (default: the other one)")
	return cmd
}

func newSchemaMergeCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "merge BASE OVERLAY...",
		Short: "Merge schemas left to right; later fields and options win",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			for _, path := range args[1:] {
				next, err := loadSchema(path)
				if err != nil {
					return err
				}
				if merged, err = schema.Merge(merged, next); err != nil {
					return fmt.Errorf("merge %s: %w", path, err)
				}
			}
			return encodeSchema(cmd.OutOrStdout(), merged, strings.ToLower(to))
		},
	}
	cmd.Flags().StringVar(&to, "to", "json", "Output format: json or yaml")
	return cmd
}
