package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/validkit"
	"github.com/dmitrymomot/validkit/pkg/config"
	"github.com/dmitrymomot/validkit/pkg/messages"
	"github.com/dmitrymomot/validkit/pkg/metrics"
	"github.com/dmitrymomot/validkit/pkg/pg"
	"github.com/dmitrymomot/validkit/pkg/redis"
	"github.com/dmitrymomot/validkit/pkg/unique"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		schemaPath   string
		messagesPath string
		lang         string
		backend      string
		metricsPath  string
		cacheSize    int
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "validate RECORD",
		Short: "Validate a record against a schema",
		Long: `Validates a JSON or YAML record (use - for stdin) against a form schema and
prints the result as JSON. Exits with status 1 when the record is invalid.

The async "unique" validator is available when --unique selects a backend:
http (UNIQUE_CHECK_URL), redis (REDIS_URL) or postgres (PG_CONN_URL).

--metrics writes the async validation counters in the Prometheus text format,
ready for the node exporter's textfile collector.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			form, err := loadSchema(schemaPath)
			if err != nil {
				return fmt.Errorf("load schema: %w", err)
			}
			record, err := loadRecord(args[0])
			if err != nil {
				return err
			}

			var cfg validkit.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			opts := []validkit.Option{
				validkit.WithConfig(cfg),
				validkit.WithLogger(a.logger),
			}
			if cmd.Flags().Changed("strict") {
				opts = append(opts, validkit.WithEngineOptions(validation.WithStrictMode(strict)))
			}

			var reg *prometheus.Registry
			if metricsPath != "" {
				reg = prometheus.NewRegistry()
				obs, err := metrics.New(reg, "")
				if err != nil {
					return err
				}
				opts = append(opts, validkit.WithObserver(obs))
			}

			if messagesPath != "" {
				catalog := messages.Default(messages.WithLogger(a.logger))
				if err := catalog.Load(ctx, messages.NewFileAdapter(messagesPath)); err != nil {
					return err
				}
				opts = append(opts, validkit.WithCatalog(catalog))
			}

			checker, closeFn, err := a.uniqueChecker(ctx, backend)
			if err != nil {
				return err
			}
			defer closeFn()
			if checker != nil {
				if cacheSize > 0 {
					checker = unique.NewCachedChecker(checker, cacheSize, time.Minute)
				}
				opts = append(opts, validkit.WithUniqueChecker(checker))
			}

			kit, err := validkit.New(opts...)
			if err != nil {
				return err
			}
			defer kit.Close()

			if lang == "" {
				lang = kit.Language()
			}
			res := kit.ValidateFormIn(ctx, lang, record, form)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if reg != nil {
				if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			if !res.Success {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "Form schema file (.json, .yaml)")
	cmd.Flags().StringVar(&messagesPath, "messages", "", "Message catalog file merged over the built-in English messages")
	cmd.Flags().StringVar(&lang, "lang", "", "Message language (default from VALIDATION_LANGUAGE)")
	cmd.Flags().StringVar(&backend, "unique", "none", "Backend for the unique validator: none, http, redis or postgres")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Write async validation metrics to this file in the Prometheus text format")
	cmd.Flags().IntVar(&cacheSize, "unique-cache", 0, "Cache up to this many uniqueness answers for a minute")
	cmd.Flags().BoolVar(&strict, "strict", false, "Report unknown validator types as errors (default from VALIDATION_STRICT)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

// uniqueChecker connects the selected backend. The returned func releases it.
func (a *app) uniqueChecker(ctx context.Context, backend string) (unique.Checker, func(), error) {
	noop := func() {}
	switch backend {
	case "", "none":
		return nil, noop, nil
	case "http":
		var cfg unique.HTTPConfig
		if err := config.Load(&cfg); err != nil {
			return nil, noop, err
		}
		c, err := unique.NewHTTPCheckerFromConfig(cfg, unique.WithLogger(a.logger))
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, noop, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return unique.NewRedisChecker(client, ""), func() { _ = client.Close() }, nil
	case "postgres":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, noop, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return unique.NewPostgresChecker(pool, unique.WithCaseFolding()), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown unique backend %q", backend)
	}
}
