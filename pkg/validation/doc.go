// Package validation runs schema-described validators over values and forms.
//
// A Registry maps validator type names to executables. Entries are either
// plain validators or factories that bind a spec's params; the IsFactory flag
// decides which calling convention applies. Registering a type twice replaces
// the earlier entry.
//
// The Engine walks a schema.FormSchema in declared field order:
//
//	reg := validation.NewRegistry()
//	rules.Register(reg)
//	engine := validation.NewEngine(reg, validation.WithAsyncExecutor(controller))
//	res := engine.ValidateForm(ctx, map[string]any{"email": "a@b.com"}, form)
//	if !res.Success {
//		for _, e := range res.Errors {
//			fmt.Println(e.Field, e.Code, e.Message)
//		}
//	}
//
// Empty values (nil, blank strings, empty slices) short-circuit a field: a
// required field fails with one "required" error, an optional one passes
// without running any validator. Otherwise validators run in order, each
// successful result with Data replacing the value seen by the next one.
//
// Validators never make the engine return an error. Faults and panics become
// "validationError" entries, unknown types are skipped with a warning log (or
// reported as "unknownValidator" in strict mode) and a cancelled async run
// leaves a "validationCancelled" warning. When Context.IsSubmitting is set the
// cancelled run is reported as an error instead, so a record never passes a
// check that did not finish.
//
// Unknown keys in form input are dropped from Result.Data unless the schema
// sets allowUnknown without stripUnknown.
package validation
