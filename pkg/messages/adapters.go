package messages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
)

// Adapter loads message templates keyed by language.
type Adapter interface {
	Load(ctx context.Context) (map[string]map[string]any, error)
}

// MapAdapter serves an in-memory catalog.
type MapAdapter struct {
	Data map[string]map[string]any
}

func (a *MapAdapter) Load(_ context.Context) (map[string]map[string]any, error) {
	if a.Data == nil {
		return map[string]map[string]any{}, nil
	}
	return a.Data, nil
}

// FileAdapter reads one JSON or YAML catalog from disk.
type FileAdapter struct {
	path string
}

// NewFileAdapter reads path, decoding it as YAML or JSON by extension.
func NewFileAdapter(path string) *FileAdapter {
	return &FileAdapter{path: path}
}

func (a *FileAdapter) Load(ctx context.Context) (map[string]map[string]any, error) {
	if a.path == "" {
		return nil, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrLoadCancelled, err)
	}
	format, err := FormatFor(a.path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(a.path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}
	return Parse(format, content)
}

// EmbeddedAdapter reads every JSON and YAML catalog in a directory of an
// fs.FS, typically an embed.FS. Later files override earlier ones per key.
type EmbeddedAdapter struct {
	fsys fs.FS
	dir  string
}

// NewEmbeddedAdapter reads the catalogs found directly in dir of fsys.
func NewEmbeddedAdapter(fsys fs.FS, dir string) *EmbeddedAdapter {
	if dir == "" {
		dir = "."
	}
	return &EmbeddedAdapter{fsys: fsys, dir: dir}
}

func (a *EmbeddedAdapter) Load(ctx context.Context) (map[string]map[string]any, error) {
	entries, err := fs.ReadDir(a.fsys, a.dir)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	out := make(map[string]map[string]any)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, err := FormatFor(entry.Name())
		if err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(ErrLoadCancelled, err)
		}
		name := path.Join(a.dir, entry.Name())
		content, err := fs.ReadFile(a.fsys, name)
		if err != nil {
			return nil, errors.Join(ErrReadFile, err)
		}
		parsed, err := Parse(format, content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for lang, tree := range parsed {
			if out[lang] == nil {
				out[lang] = make(map[string]any, len(tree))
			}
			maps.Copy(out[lang], tree)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMessages
	}
	return out, nil
}
