package messages

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/validkit/pkg/logger"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

// DefaultLanguage is used when a lookup misses in the requested language.
const DefaultLanguage = "en"

// GenericMessage is the last resort when no template matches at all.
const GenericMessage = "Invalid value"

//go:embed locales
var locales embed.FS

// Catalog holds message templates per language. Templates live under three
// kinds of keys: fields.<field path>.<code> for field-specific text, <code>
// for text shared by every field, and default as the catch-all.
type Catalog struct {
	mu          sync.RWMutex
	messages    map[string]map[string]any
	defaultLang string
	logger      *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithDefaultLanguage sets the language used when a lookup misses.
func WithDefaultLanguage(lang string) Option {
	return func(c *Catalog) {
		if lang != "" {
			c.defaultLang = lang
		}
	}
}

// WithLogger sets the logger for missing templates and load problems.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a catalog from adapter.
func New(ctx context.Context, adapter Adapter, opts ...Option) (*Catalog, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	c := &Catalog{
		messages:    make(map[string]map[string]any),
		defaultLang: DefaultLanguage,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Load(ctx, adapter); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns a catalog holding the built-in English messages.
func Default(opts ...Option) *Catalog {
	c, err := New(context.Background(), NewEmbeddedAdapter(locales, "locales"), opts...)
	if err != nil {
		panic(fmt.Sprintf("messages: embedded catalog: %v", err))
	}
	return c
}

// Load merges templates from adapter into the catalog. Keys already present
// are overridden; nested field maps are merged key by key.
func (c *Catalog) Load(ctx context.Context, adapter Adapter) error {
	if adapter == nil {
		return ErrNilAdapter
	}
	data, err := adapter.Load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for lang, tree := range data {
		if lang == "" || tree == nil {
			return fmt.Errorf("%w: empty language or nil messages", ErrInvalidStructure)
		}
		if c.messages[lang] == nil {
			c.messages[lang] = make(map[string]any, len(tree))
		}
		mergeTree(c.messages[lang], tree)
	}
	c.logger.DebugContext(ctx, "message catalog loaded",
		logger.Component("messages"),
		slog.Any("languages", c.languages()))
	return nil
}

func mergeTree(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = make(map[string]any, len(sub))
			dst[k] = existing
		}
		mergeTree(existing, sub)
	}
}

func (c *Catalog) languages() []string {
	return slices.Sorted(maps.Keys(c.messages))
}

// Languages lists the loaded language codes, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.languages()
}

// Lookup returns the raw template for a dot-separated key in lang, without
// any fallback.
func (c *Catalog) Lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lookup(c.messages[lang], key)
}

func lookup(tree map[string]any, key string) (string, bool) {
	if tree == nil {
		return "", false
	}
	parts := strings.Split(key, ".")
	current := tree
	for i, part := range parts {
		v, ok := current[part]
		if !ok {
			return "", false
		}
		if i == len(parts)-1 {
			s, ok := v.(string)
			return s, ok
		}
		if current, ok = v.(map[string]any); !ok {
			return "", false
		}
	}
	return "", false
}

// chain lists the languages to try for lang: the exact tag, its base
// language, then the catalog default.
func (c *Catalog) chain(lang string) []string {
	out := make([]string, 0, 3)
	add := func(l string) {
		if l != "" && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	add(lang)
	if base, _, ok := strings.Cut(lang, "-"); ok {
		add(base)
	}
	add(c.defaultLang)
	return out
}

// Message renders the text for code on field. Per language in the fallback
// chain it tries fields.<field>.<code>, fields.<leaf>.<code> for nested
// paths, <code>, then default. GenericMessage is used when nothing matches.
func (c *Catalog) Message(lang, field, code string, params map[string]any) string {
	keys := make([]string, 0, 4)
	if field != "" {
		keys = append(keys, "fields."+field+"."+code)
		if i := strings.LastIndex(field, "."); i >= 0 {
			keys = append(keys, "fields."+field[i+1:]+"."+code)
		}
	}
	keys = append(keys, code, "default")

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.chain(lang) {
		for _, key := range keys {
			if tmpl, ok := lookup(c.messages[l], key); ok {
				return Interpolate(tmpl, field, params)
			}
		}
	}
	return Interpolate(GenericMessage, field, params)
}

// Resolver adapts the catalog to the engine for one language.
func (c *Catalog) Resolver(lang string) validation.MessageResolver {
	return func(field, code string, params map[string]any) string {
		return c.Message(lang, field, code, params)
	}
}

var placeholder = regexp.MustCompile(`%\{([^}]+)\}`)

// Interpolate substitutes %{name} placeholders from params. %{field} is the
// field path unless params sets it. Unknown placeholders are left as is.
func Interpolate(tmpl, field string, params map[string]any) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := params[name]; ok {
			return fmt.Sprint(v)
		}
		if name == "field" {
			if field == "" {
				return "value"
			}
			return field
		}
		return match
	})
}
