package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

type document struct {
	Fields         orderedFields   `json:"fields"`
	FormValidators []ValidatorSpec `json:"formValidators,omitempty"`
	Options        *Options        `json:"options,omitempty"`
}

type yamlDocument struct {
	Fields         yaml.Node       `yaml:"fields"`
	FormValidators []ValidatorSpec `yaml:"formValidators,omitempty"`
	Options        *Options        `yaml:"options,omitempty"`
}

// orderedFields encodes as a JSON object whose key order matches declaration order.
type orderedFields []Field

func (o orderedFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fld.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fld.Schema)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedFields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("fields must be an object")
	}

	out := orderedFields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var fs FieldSchema
		if err := dec.Decode(&fs); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		out = append(out, Field{Name: name, Schema: fs})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func (f *FormSchema) toDocument() document {
	doc := document{
		Fields:         orderedFields(f.fields),
		FormValidators: f.formValidators,
	}
	if !f.options.IsZero() {
		opts := f.options.clone()
		doc.Options = &opts
	}
	return doc
}

func (f *FormSchema) fromDocument(fields []Field, formValidators []ValidatorSpec, opts *Options) error {
	var o Options
	if opts != nil {
		o = *opts
	}
	built, err := New(fields, formValidators, o)
	if err != nil {
		return err
	}
	*f = *built
	return nil
}

func (f FormSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.toDocument())
}

func (f *FormSchema) UnmarshalJSON(data []byte) error {
	var doc *document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil || doc.Fields == nil {
		return ErrMissingFields
	}
	return f.fromDocument(doc.Fields, doc.FormValidators, doc.Options)
}

func (f FormSchema) MarshalYAML() (any, error) {
	doc := yamlDocument{FormValidators: f.formValidators}
	doc.Fields = yaml.Node{Kind: yaml.MappingNode}
	for _, fld := range f.fields {
		var key, val yaml.Node
		key.SetString(fld.Name)
		if err := val.Encode(fld.Schema); err != nil {
			return nil, fmt.Errorf("field %q: %w", fld.Name, err)
		}
		doc.Fields.Content = append(doc.Fields.Content, &key, &val)
	}
	if !f.options.IsZero() {
		opts := f.options.clone()
		doc.Options = &opts
	}
	return doc, nil
}

func (f *FormSchema) UnmarshalYAML(value *yaml.Node) error {
	var doc yamlDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}

	var fields []Field
	switch {
	case doc.Fields.Kind == 0, doc.Fields.Tag == "!!null":
		return ErrMissingFields
	case doc.Fields.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(doc.Fields.Content); i += 2 {
			name := doc.Fields.Content[i].Value
			var fs FieldSchema
			if err := doc.Fields.Content[i+1].Decode(&fs); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			fields = append(fields, Field{Name: name, Schema: fs})
		}
	default:
		return fmt.Errorf("line %d: fields must be a mapping", doc.Fields.Line)
	}
	return f.fromDocument(fields, doc.FormValidators, doc.Options)
}

// Serialize encodes a schema as JSON, preserving field order.
func Serialize(form *FormSchema) ([]byte, error) {
	if form == nil {
		return nil, ErrNilSchema
	}
	return json.Marshal(form)
}

// Deserialize decodes a JSON schema. Any failure wraps ErrSchemaParse.
func Deserialize(data []byte) (*FormSchema, error) {
	form := new(FormSchema)
	if err := json.Unmarshal(data, form); err != nil {
		return nil, errors.Join(ErrSchemaParse, err)
	}
	return form, nil
}

// SerializeYAML encodes a schema as YAML, preserving field order.
func SerializeYAML(form *FormSchema) ([]byte, error) {
	if form == nil {
		return nil, ErrNilSchema
	}
	return yaml.Marshal(form)
}

// DeserializeYAML decodes a YAML schema. Any failure wraps ErrSchemaParse.
func DeserializeYAML(data []byte) (*FormSchema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Join(ErrSchemaParse, err)
	}
	if len(root.Content) == 0 || root.Content[0].Tag == "!!null" {
		return nil, errors.Join(ErrSchemaParse, ErrMissingFields)
	}
	form := new(FormSchema)
	if err := root.Content[0].Decode(form); err != nil {
		return nil, errors.Join(ErrSchemaParse, err)
	}
	return form, nil
}
