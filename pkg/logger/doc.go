// Package logger builds the *slog.Logger used across validkit and the
// attribute helpers that keep validation events under stable keys.
//
// New picks a JSON or text handler from its options. WithConfig applies a
// Config read from LOG_LEVEL, LOG_FORMAT, APP_ENV and APP_NAME, starting from
// the preset of the named environment:
//
//	log := logger.New(logger.WithConfig(cfg), logger.WithOutput(os.Stderr))
//
// The async controller tags each run's context with ContextWithRun. Any
// record logged with that context, including records written by validators
// and uniqueness checkers, gets a "run" group holding the field and the
// validation id:
//
//	ctx = logger.ContextWithRun(ctx, "email", id)
//	log.WarnContext(ctx, "lookup failed", logger.Attempt(2), logger.Error(err))
//
// Nop discards everything and is the default for components built without a
// logger.
package logger
