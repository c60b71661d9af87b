package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/validkit/pkg/openapi"
)

func newOpenAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Work with OpenAPI documents",
	}
	cmd.AddCommand(newOpenAPIImportCmd())
	return cmd
}

func newOpenAPIImportCmd() *cobra.Command {
	var (
		component string
		to        string
	)
	cmd := &cobra.Command{
		Use:   "import DOCUMENT",
		Short: "Convert an OpenAPI component schema into a form schema",
		Long: `Converts one component schema of an OpenAPI 3 document into a form schema.
Without --component the available component names are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			raw, err := readFile(args[0])
			if err != nil {
				return err
			}
			if component == "" {
				names, err := openapi.Components(ctx, raw)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			form, err := openapi.FromDocument(ctx, raw, component)
			if err != nil {
				return err
			}
			return encodeSchema(cmd.OutOrStdout(), form, strings.ToLower(to))
		},
	}
	cmd.Flags().StringVarP(&component, "component", "c", "", "Component schema name")
	cmd.Flags().StringVar(&to, "to", "json", "Output format: json or yaml")
	return cmd
}
