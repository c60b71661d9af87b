// Package validkit validates form data against declarative schemas.
//
// A schema lists, per field, an ordered set of validators identified by
// registry type. The engine runs them in order, feeds transform output to the
// next validator, and merges field results with form-level validators into
// one result. Validators that call remote services run through an async
// controller that adds a timeout, retries with backoff and cancels stale runs
// for the same field. A debouncer in front of the controller coalesces bursts
// of keystrokes into one check.
//
// Kit wires all of that with the built-in rules and English messages:
//
//	kit, err := validkit.New(
//		validkit.WithDebounce(300*time.Millisecond),
//		validkit.WithUniqueChecker(unique.NewRedisChecker(rdb, "")),
//	)
//	if err != nil {
//		return err
//	}
//	defer kit.Close()
//
//	form := schema.NewBuilder().
//		Field("email").Required().Validate("email").
//		ValidateAsync("unique", schema.Params{"scope": "users.email"}).
//		Field("password").Required().Validate("password").
//		Done().
//		MustBuild()
//
//	res := kit.ValidateForm(ctx, data, form)
//	if !res.Success {
//		return res.Err()
//	}
//
// Settings can be read from the environment with pkg/config:
//
//	var cfg validkit.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	kit, err := validkit.New(validkit.WithConfig(cfg))
//
// The packages under pkg/ can be used on their own: schema for the schema
// model and builder, validation for the registry and engine, asyncvalidate
// for the controller, debounce, rules, messages, unique, metrics and openapi.
package validkit
