// Package rules provides the built-in validators for a validation.Registry.
//
// Register installs all of them:
//
//	reg := validation.NewRegistry()
//	if err := rules.Register(reg); err != nil {
//		return err
//	}
//
// Parameterised rules are factories; their params are decoded with
// mapstructure in weak mode, so {"min": 3} and {"min": 3.0} bind the same way.
// A rule's failure code equals its type (minLength fails with "minLength")
// and carries its bound params for message interpolation. Rules leave the
// message empty so the engine's resolver chain can render it.
//
// Rules other than required pass empty values through. Transform rules
// (trim, lowercase, uppercase, titleCase, normalize, stripHTML) always pass
// and return the rewritten string as result data.
//
// requiredIf is a form-level rule and expects the validated record as its
// value:
//
//	schema.NewBuilder().
//		Field("company").Done().
//		FormValidator("requiredIf", schema.Params{"field": "company", "when": "accountType", "equals": "business"})
package rules
