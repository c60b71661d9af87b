package messages_test

import "github.com/dmitrymomot/validkit/pkg/schema"

func fieldWith(types ...string) schema.FieldSchema {
	specs := make([]schema.ValidatorSpec, len(types))
	for i, typ := range types {
		specs[i] = schema.ValidatorSpec{Type: typ}
	}
	return schema.FieldSchema{Validators: specs}
}
