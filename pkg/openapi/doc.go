// Package openapi imports form schemas from OpenAPI 3 documents.
//
// FromDocument loads a document with kin-openapi, validates it and converts
// one component schema into a schema.FormSchema. Each property becomes a
// field; standard keywords map onto the built-in rules registered by package
// rules:
//
//	form, err := openapi.FromDocument(ctx, raw, "Signup")
//	if err != nil {
//		return err
//	}
//	res := engine.ValidateForm(ctx, data, form)
//
// Validators with no OpenAPI keyword, such as async uniqueness checks, are
// declared with the x-validators extension on a property:
//
//	username:
//	  type: string
//	  x-validators:
//	    - type: unique
//	      async: true
//	      params: {scope: users.username}
//
// x-form-validators and x-validation-options on the object schema carry
// form-level validators and options. Properties are declared in name order
// because OpenAPI objects do not preserve key order.
package openapi
