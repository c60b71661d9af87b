package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a catalog document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file name's extension.
func FormatFor(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Parse decodes a catalog document: a map from language code to a (possibly
// nested) map of message templates.
func Parse(format Format, content []byte) (map[string]map[string]any, error) {
	var raw map[string]any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(content, &raw)
	case FormatYAML:
		err = yaml.Unmarshal(content, &raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, errors.Join(ErrParse, err)
	}

	out := make(map[string]map[string]any, len(raw))
	for lang, val := range raw {
		tree, ok := val.(map[string]any)
		if !ok || lang == "" {
			return nil, fmt.Errorf("%w: language %q: expected map, got %T", ErrInvalidStructure, lang, val)
		}
		out[lang] = tree
	}
	if len(out) == 0 {
		return nil, ErrNoMessages
	}
	return out, nil
}
