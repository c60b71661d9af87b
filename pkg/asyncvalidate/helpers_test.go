package asyncvalidate_test

import "github.com/dmitrymomot/validkit/pkg/schema"

func schemaField(types ...string) schema.FieldSchema {
	fs := schema.FieldSchema{}
	for _, typ := range types {
		fs.Validators = append(fs.Validators, schema.ValidatorSpec{Type: typ})
	}
	return fs
}
