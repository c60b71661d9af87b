package validation_test

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

func emailValidator(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
	s, _ := value.(string)
	if !strings.Contains(s, "@") || strings.HasPrefix(s, "@") || strings.HasSuffix(s, "@") {
		return vctx.Fail("email", nil), nil
	}
	return validation.Pass(), nil
}

func failing(code string) validation.Validator {
	return func(_ context.Context, _ any, vctx validation.Context) (validation.Result, error) {
		return vctx.Fail(code, nil), nil
	}
}

type spy struct {
	calls atomic.Int32
}

func (s *spy) validator() validation.Validator {
	return func(_ context.Context, _ any, _ validation.Context) (validation.Result, error) {
		s.calls.Add(1)
		return validation.Pass(), nil
	}
}

func newTestRegistry() *validation.Registry {
	reg := validation.NewRegistry()
	_ = reg.Register("email", emailValidator)
	_ = reg.Register("trim", func(_ context.Context, value any, _ validation.Context) (validation.Result, error) {
		if s, ok := value.(string); ok {
			return validation.PassWith(strings.TrimSpace(s)), nil
		}
		return validation.Pass(), nil
	})
	_ = reg.RegisterFactory("minLength", func(params map[string]any) (validation.Validator, error) {
		n, _ := params["min"].(int)
		return func(_ context.Context, value any, vctx validation.Context) (validation.Result, error) {
			s, _ := value.(string)
			if len(s) < n {
				return vctx.Fail("minLength", map[string]any{"min": n}), nil
			}
			return validation.Pass(), nil
		}, nil
	})
	return reg
}
