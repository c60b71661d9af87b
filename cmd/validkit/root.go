package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/validkit/pkg/config"
	"github.com/dmitrymomot/validkit/pkg/logger"
)

// errInvalid is returned when validation ran and the record failed. The
// result has already been printed.
var errInvalid = errors.New("record is invalid")

type app struct {
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logger.Nop()}

	root := &cobra.Command{
		Use:           "validkit",
		Short:         "Validate records against declarative form schemas",
		Long:          `validkit runs form schemas (JSON or YAML) against records, converts schemas between formats and imports them from OpenAPI documents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFiles, _ := cmd.Flags().GetStringSlice("env-file")
			if err := config.LoadEnv(envFiles...); err != nil {
				return err
			}

			var cfg logger.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Level, _ = cmd.Flags().GetString("log-level")
			}
			a.logger = logger.New(logger.WithConfig(cfg), logger.WithOutput(cmd.ErrOrStderr()))
			return nil
		},
	}

	root.PersistentFlags().StringSlice("env-file", nil, "Load environment variables from these .env files")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default from LOG_LEVEL)")

	root.AddCommand(
		newValidateCmd(a),
		newSchemaCmd(),
		newOpenAPICmd(),
		newRulesCmd(),
	)
	return root
}
