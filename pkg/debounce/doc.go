// Package debounce coalesces rapid validations of the same field, typically
// keystroke-driven, into one run of the most recent value.
//
// Each call to Validate cancels whatever is scheduled or running for its field
// and schedules itself after the quiet window. Calls superseded this way return
// a cancelled asyncvalidate.Result with no errors.
//
//	d := debounce.ForSchema(controller, form)
//	engine := validation.NewEngine(reg, validation.WithAsyncExecutor(d))
package debounce
