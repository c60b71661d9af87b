package unique

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

// Type is the registry type of the uniqueness validator.
const Type = "unique"

// Checker reports whether value is already taken within scope. Scope names a
// namespace such as "users.email"; its meaning is up to the implementation.
// A returned error is a fault and is classified for retry by the controller.
type Checker interface {
	Exists(ctx context.Context, scope, value string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, scope, value string) (bool, error)

func (f CheckerFunc) Exists(ctx context.Context, scope, value string) (bool, error) {
	return f(ctx, scope, value)
}

type params struct {
	Scope           string `mapstructure:"scope"`
	CaseInsensitive bool   `mapstructure:"caseInsensitive"`
}

// Register adds the async "unique" factory to reg. Specs bind it with
// {"scope": "users.email"} and optionally {"caseInsensitive": true}, which
// lowercases the value before lookup.
func Register(reg *validation.Registry, checker Checker) error {
	if checker == nil {
		return ErrNilChecker
	}
	return reg.RegisterAsyncFactory(Type, Factory(checker), validation.Metadata{
		Description:     "value is not taken yet according to an external store",
		ParameterSchema: map[string]any{"scope": "string", "caseInsensitive": "bool"},
		Examples:        []any{map[string]any{"scope": "users.email"}},
	})
}

// Factory binds checker into a validation.Factory.
func Factory(checker Checker) validation.Factory {
	return func(raw map[string]any) (validation.Validator, error) {
		var p params
		if err := mapstructure.WeakDecode(raw, &p); err != nil {
			return nil, err
		}
		if p.Scope == "" {
			return nil, fmt.Errorf("%w: scope is required", ErrInvalidScope)
		}
		return func(ctx context.Context, value any, vctx validation.Context) (validation.Result, error) {
			if validation.IsEmpty(value) {
				return validation.Pass(), nil
			}
			s, ok := value.(string)
			if !ok {
				s = fmt.Sprint(value)
			}
			s = strings.TrimSpace(s)
			if p.CaseInsensitive {
				s = strings.ToLower(s)
			}
			taken, err := checker.Exists(ctx, p.Scope, s)
			if err != nil {
				return validation.Result{}, err
			}
			if taken {
				return vctx.Fail(Type, map[string]any{"scope": p.Scope}), nil
			}
			return validation.Pass(), nil
		}, nil
	}
}
