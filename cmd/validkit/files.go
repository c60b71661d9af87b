package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/validkit/pkg/schema"
)

// readFile reads path, or stdin when path is "-".
func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func loadSchema(path string) (*schema.FormSchema, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return schema.DeserializeYAML(raw)
	}
	return schema.Deserialize(raw)
}

func loadRecord(path string) (map[string]any, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if isYAML(path) {
		err = yaml.Unmarshal(raw, &data)
	} else {
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func encodeSchema(w io.Writer, form *schema.FormSchema, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "yaml", "yml":
		out, err = schema.SerializeYAML(form)
	case "json":
		out, err = json.MarshalIndent(form, "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
