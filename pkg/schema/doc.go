// Package schema defines the declarative description of a form: an ordered set
// of fields, each with an ordered list of validator specs, plus whole-record
// validators and options.
//
// A FormSchema is immutable once built. Build one with the fluent Builder,
// decode one from JSON or YAML, or construct one directly with New:
//
//	form := schema.NewBuilder().
//		Field("email").Required().Validate("email").
//		Field("username").Validate("minLength", schema.Params{"min": 3}).
//			ValidateAsync("unique", schema.Params{"scope": "users"}).
//		Done().
//		AbortEarly(false).
//		MustBuild()
//
// Serialization preserves field declaration order in both formats, so
// Deserialize(Serialize(form)) yields an equivalent schema.
package schema
