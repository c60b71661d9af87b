package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/validkit/pkg/rules"
	"github.com/dmitrymomot/validkit/pkg/unique"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

func newRulesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in validator types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := validation.NewRegistry()
			if err := rules.Register(reg); err != nil {
				return err
			}
			// Registered for its metadata only; the checker is never called.
			if err := unique.Register(reg, unique.CheckerFunc(nil)); err != nil {
				return err
			}

			type row struct {
				Type        string         `json:"type"`
				Async       bool           `json:"async"`
				Description string         `json:"description,omitempty"`
				Params      map[string]any `json:"params,omitempty"`
			}
			var rows []row
			for _, typ := range reg.Types() {
				entry, _ := reg.Entry(typ)
				r := row{Type: typ, Async: entry.IsAsync}
				if entry.Metadata != nil {
					r.Description = entry.Metadata.Description
					r.Params = entry.Metadata.ParameterSchema
				}
				rows = append(rows, r)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tASYNC\tDESCRIPTION")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%t\t%s\n", r.Type, r.Async, r.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
