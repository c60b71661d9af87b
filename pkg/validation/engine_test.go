package validation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/schema"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

func emailSchema(t *testing.T) *schema.FormSchema {
	t.Helper()
	return schema.NewBuilder().
		Field("email").Validate("required").Validate("email").
		Done().MustBuild()
}

func TestEngine_ValidateForm_Scenarios(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newTestRegistry())
	form := emailSchema(t)
	ctx := context.Background()

	t.Run("empty email is required", func(t *testing.T) {
		t.Parallel()
		res := engine.ValidateForm(ctx, map[string]any{"email": ""}, form)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "email", res.Errors[0].Field)
		assert.Equal(t, validation.CodeRequired, res.Errors[0].Code)
		assert.Nil(t, res.Data)
	})

	t.Run("malformed email", func(t *testing.T) {
		t.Parallel()
		res := engine.ValidateForm(ctx, map[string]any{"email": "not-an-email"}, form)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "email", res.Errors[0].Field)
		assert.Equal(t, "email", res.Errors[0].Code)
	})

	t.Run("valid email", func(t *testing.T) {
		t.Parallel()
		res := engine.ValidateForm(ctx, map[string]any{"email": "a@b.com"}, form)
		assert.True(t, res.Success)
		assert.Empty(t, res.Errors)
		assert.Equal(t, map[string]any{"email": "a@b.com"}, res.Data)
	})

	t.Run("strip unknown", func(t *testing.T) {
		t.Parallel()
		f := schema.NewBuilder().Field("name").Done().StripUnknown(true).MustBuild()
		res := engine.ValidateForm(ctx, map[string]any{"name": "X", "extra": "Y"}, f)
		assert.True(t, res.Success)
		assert.Equal(t, map[string]any{"name": "X"}, res.Data)
	})
}

func TestEngine_ValidateField_Required(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	s := &spy{}
	require.NoError(t, reg.Register("spy", s.validator()))
	engine := validation.NewEngine(reg)

	required := schema.FieldSchema{Required: true, Validators: []schema.ValidatorSpec{{Type: "spy"}, {Type: "email"}}}
	optional := schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "spy"}}}

	for _, value := range []any{nil, "", "   ", []any{}, []string{}} {
		res := engine.ValidateField(context.Background(), value, required, validation.Context{FieldPath: "f"})
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1, "value %#v", value)
		assert.Equal(t, validation.CodeRequired, res.Errors[0].Code)
	}

	for _, value := range []any{nil, ""} {
		res := engine.ValidateField(context.Background(), value, optional, validation.Context{FieldPath: "f"})
		assert.True(t, res.Success)
		assert.Equal(t, value, res.Data)
		assert.Empty(t, res.Errors)
	}

	assert.Zero(t, s.calls.Load())
}

func TestEngine_ValidateField_Order(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	require.NoError(t, reg.Register("a", failing("a")))
	require.NoError(t, reg.Register("b", failing("b")))
	engine := validation.NewEngine(reg)
	field := schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "a"}, {Type: "b"}}}

	res := engine.ValidateField(context.Background(), "x", field, validation.Context{FieldPath: "f"})
	assert.Equal(t, []string{"a", "b"}, res.Errors.Codes("f"))

	res = engine.ValidateField(context.Background(), "x", field, validation.Context{
		FieldPath: "f",
		Options:   schema.Options{AbortEarly: schema.Bool(true)},
	})
	assert.Equal(t, []string{"a"}, res.Errors.Codes("f"))
}

func TestEngine_ValidateField_Transforms(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newTestRegistry())
	field := schema.FieldSchema{Validators: []schema.ValidatorSpec{
		{Type: "trim"},
		{Type: "minLength", Params: schema.Params{"min": 3}},
	}}

	res := engine.ValidateField(context.Background(), "  abc  ", field, validation.Context{FieldPath: "name"})
	assert.True(t, res.Success)
	assert.Equal(t, "abc", res.Data)

	res = engine.ValidateField(context.Background(), "  ab  ", field, validation.Context{FieldPath: "name"})
	assert.False(t, res.Success)
	assert.Equal(t, []string{"minLength"}, res.Errors.Codes("name"))
	assert.Equal(t, 3, res.Errors[0].Params["min"])
}

func TestEngine_FaultContainment(t *testing.T) {
	t.Parallel()

	reg := validation.NewRegistry()
	require.NoError(t, reg.Register("faulty", func(context.Context, any, validation.Context) (validation.Result, error) {
		return validation.Result{}, errors.New("db down")
	}))
	require.NoError(t, reg.Register("panicky", func(context.Context, any, validation.Context) (validation.Result, error) {
		panic("nil map")
	}))
	require.NoError(t, reg.RegisterFactory("badParams", func(map[string]any) (validation.Validator, error) {
		return nil, errors.New("min is required")
	}))
	require.NoError(t, reg.Register("silent", func(context.Context, any, validation.Context) (validation.Result, error) {
		return validation.Result{Success: false}, nil
	}))
	engine := validation.NewEngine(reg)

	cases := map[string]string{
		"faulty":    validation.CodeValidationError,
		"panicky":   validation.CodeValidationError,
		"badParams": validation.CodeValidationError,
		"silent":    "silent",
	}
	for typ, code := range cases {
		t.Run(typ, func(t *testing.T) {
			t.Parallel()
			var res validation.Result
			require.NotPanics(t, func() {
				res = engine.ValidateField(context.Background(), "x",
					schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: typ}}},
					validation.Context{FieldPath: "f"})
			})
			assert.False(t, res.Success)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, code, res.Errors[0].Code)
			assert.Equal(t, "f", res.Errors[0].Field)
		})
	}
}

func TestEngine_UnknownValidator(t *testing.T) {
	t.Parallel()

	field := schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "futureRule"}, {Type: "email"}}}

	lenient := validation.NewEngine(newTestRegistry())
	res := lenient.ValidateField(context.Background(), "a@b.com", field, validation.Context{FieldPath: "f"})
	assert.True(t, res.Success)

	strict := validation.NewEngine(newTestRegistry(), validation.WithStrictMode(true))
	res = strict.ValidateField(context.Background(), "a@b.com", field, validation.Context{FieldPath: "f"})
	assert.False(t, res.Success)
	assert.Equal(t, []string{validation.CodeUnknownValidator}, res.Errors.Codes("f"))
	assert.Equal(t, "futureRule", res.Errors[0].Params["type"])
}

func TestEngine_Messages(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	require.NoError(t, reg.Register("own", func(_ context.Context, _ any, vctx validation.Context) (validation.Result, error) {
		return validation.Fail(validation.Error{Code: "own", Message: "validator text"}), nil
	}))
	engine := validation.NewEngine(reg, validation.WithMessageResolver(func(field, code string, _ map[string]any) string {
		if code == "email" {
			return "engine text"
		}
		return ""
	}))

	run := func(spec schema.ValidatorSpec, vctx validation.Context) string {
		vctx.FieldPath = "f"
		res := engine.ValidateField(context.Background(), "bad", schema.FieldSchema{Validators: []schema.ValidatorSpec{spec}}, vctx)
		require.Len(t, res.Errors, 1)
		return res.Errors[0].Message
	}
	ctxResolver := validation.Context{Resolve: func(field, code string, _ map[string]any) string {
		return "context text for " + field
	}}

	assert.Equal(t, "spec text", run(schema.ValidatorSpec{Type: "email", Message: "spec text"}, ctxResolver))
	assert.Equal(t, "validator text", run(schema.ValidatorSpec{Type: "own"}, ctxResolver))
	assert.Equal(t, "context text for f", run(schema.ValidatorSpec{Type: "email"}, ctxResolver))
	assert.Equal(t, "engine text", run(schema.ValidatorSpec{Type: "email"}, validation.Context{}))
	assert.Equal(t, "minLength", run(schema.ValidatorSpec{Type: "minLength", Params: schema.Params{"min": 10}}, validation.Context{}))
}

type fakeExecutor struct {
	calls   atomic.Int32
	outcome func(res validation.Result) validation.AsyncOutcome
}

func (f *fakeExecutor) Execute(ctx context.Context, v validation.Validator, value any, vctx validation.Context) validation.AsyncOutcome {
	f.calls.Add(1)
	res, err := validation.Invoke(ctx, v, value, vctx)
	if err != nil {
		return validation.AsyncOutcome{Result: vctx.Fail(validation.CodeValidationError, nil)}
	}
	if f.outcome != nil {
		return f.outcome(res)
	}
	return validation.AsyncOutcome{Result: res}
}

func TestEngine_AsyncDelegation(t *testing.T) {
	t.Parallel()

	t.Run("async specs and entries use the executor", func(t *testing.T) {
		t.Parallel()
		reg := newTestRegistry()
		require.NoError(t, reg.RegisterAsync("remote", failing("taken")))
		exec := &fakeExecutor{}
		engine := validation.NewEngine(reg, validation.WithAsyncExecutor(exec))

		field := schema.FieldSchema{Validators: []schema.ValidatorSpec{
			{Type: "email"},
			{Type: "email", Async: true},
			{Type: "remote"},
		}}
		res := engine.ValidateField(context.Background(), "a@b.com", field, validation.Context{FieldPath: "email"})
		assert.Equal(t, int32(2), exec.calls.Load())
		assert.Equal(t, []string{"taken"}, res.Errors.Codes("email"))
	})

	t.Run("cancelled outcome is a warning", func(t *testing.T) {
		t.Parallel()
		reg := newTestRegistry()
		s := &spy{}
		require.NoError(t, reg.RegisterAsync("remote", failing("taken")))
		require.NoError(t, reg.Register("after", s.validator()))
		exec := &fakeExecutor{outcome: func(validation.Result) validation.AsyncOutcome {
			return validation.AsyncOutcome{Result: validation.Pass(), Cancelled: true}
		}}
		engine := validation.NewEngine(reg, validation.WithAsyncExecutor(exec))

		field := schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "remote"}, {Type: "after"}}}
		res := engine.ValidateField(context.Background(), "x", field, validation.Context{FieldPath: "u"})
		assert.True(t, res.Success)
		assert.Empty(t, res.Errors)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, validation.CodeValidationCancelled, res.Warnings[0].Code)
		assert.Zero(t, s.calls.Load())
	})

	t.Run("cancelled outcome fails a submission", func(t *testing.T) {
		t.Parallel()
		reg := newTestRegistry()
		require.NoError(t, reg.RegisterAsync("remote", failing("taken")))
		exec := &fakeExecutor{outcome: func(validation.Result) validation.AsyncOutcome {
			return validation.AsyncOutcome{Result: validation.Pass(), Cancelled: true}
		}}
		engine := validation.NewEngine(reg, validation.WithAsyncExecutor(exec))

		form := schema.NewBuilder().Field("u").ValidateAsync("remote").Done().MustBuild()
		res := engine.ValidateForm(context.Background(), map[string]any{"u": "x"}, form,
			validation.Context{IsSubmitting: true})
		assert.False(t, res.Success)
		assert.Equal(t, []string{validation.CodeValidationCancelled}, res.Errors.Codes("u"))
		assert.Empty(t, res.Warnings)
	})

	t.Run("without executor async runs inline", func(t *testing.T) {
		t.Parallel()
		reg := newTestRegistry()
		require.NoError(t, reg.RegisterAsync("remote", failing("taken")))
		engine := validation.NewEngine(reg)
		res := engine.ValidateField(context.Background(), "x",
			schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "remote"}}}, validation.Context{FieldPath: "u"})
		assert.Equal(t, []string{"taken"}, res.Errors.Codes("u"))
	})
}

func TestEngine_FormValidators(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	var seen map[string]any
	require.NoError(t, reg.Register("passwordsMatch", func(_ context.Context, value any, _ validation.Context) (validation.Result, error) {
		data := value.(map[string]any)
		seen = data
		if data["password"] != data["confirm"] {
			return validation.Fail(validation.Error{Field: "confirm", Code: "passwordsMatch"}), nil
		}
		return validation.Pass(), nil
	}))
	engine := validation.NewEngine(reg)

	form := schema.NewBuilder().
		Field("password").Required().Validate("trim").
		Field("confirm").Required().Validate("trim").
		Done().
		FormValidator("passwordsMatch").
		MustBuild()

	res := engine.ValidateForm(context.Background(), map[string]any{"password": " secret ", "confirm": "secret"}, form)
	assert.True(t, res.Success)
	assert.Equal(t, "secret", seen["password"])

	res = engine.ValidateForm(context.Background(), map[string]any{"password": "a", "confirm": "b"}, form)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"passwordsMatch"}, res.Errors.Codes("confirm"))

	t.Run("abort early skips form validators after field errors", func(t *testing.T) {
		seen = nil
		strict := schema.From(form).AbortEarly(true).MustBuild()
		res := engine.ValidateForm(context.Background(), map[string]any{"password": "", "confirm": "b"}, strict)
		assert.Len(t, res.Errors, 1)
		assert.Nil(t, seen)
	})
}

func TestEngine_ValidateForm_AbortEarly(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newTestRegistry())
	b := schema.NewBuilder().
		Field("a").Required().
		Field("b").Required().
		Done()

	res := engine.ValidateForm(context.Background(), map[string]any{}, b.MustBuild())
	assert.Equal(t, []string{"a", "b"}, res.Errors.Fields())

	res = engine.ValidateForm(context.Background(), map[string]any{}, b.AbortEarly(true).MustBuild())
	assert.Equal(t, []string{"a"}, res.Errors.Fields())
}

func TestEngine_ValidateForm_UnknownKeys(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newTestRegistry())
	input := map[string]any{"name": "  X ", "extra": "Y"}
	b := schema.NewBuilder().Field("name").Validate("trim").Done()

	res := engine.ValidateForm(context.Background(), input, b.MustBuild())
	assert.Equal(t, map[string]any{"name": "X"}, res.Data, "unknown keys are stripped by default")

	res = engine.ValidateForm(context.Background(), input, b.Clone().AllowUnknown(true).MustBuild())
	assert.Equal(t, map[string]any{"name": "X", "extra": "Y"}, res.Data)

	res = engine.ValidateForm(context.Background(), input, b.Clone().AllowUnknown(true).StripUnknown(true).MustBuild())
	assert.Equal(t, map[string]any{"name": "X"}, res.Data)

	res = engine.ValidateForm(context.Background(), map[string]any{}, b.MustBuild())
	assert.Equal(t, map[string]any{}, res.Data, "absent optional fields are not added")
}

func TestEngine_ValidateForm_NestedPath(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newTestRegistry())
	form := schema.NewBuilder().Field("city").Required().Done().MustBuild()

	res := engine.ValidateForm(context.Background(), map[string]any{}, form, validation.Context{FieldPath: "address"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "address.city", res.Errors[0].Field)
}

func TestEngine_ValidateFromSchema(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newTestRegistry())
	form := emailSchema(t)
	raw, err := engine.SerializeSchema(form)
	require.NoError(t, err)
	back, err := engine.DeserializeSchema(raw)
	require.NoError(t, err)

	inputs := []map[string]any{
		{"email": ""},
		{"email": "not-an-email"},
		{"email": "a@b.com", "other": 1},
	}
	for _, in := range inputs {
		want := engine.ValidateForm(context.Background(), in, form)
		assert.Equal(t, want, engine.ValidateFromSchema(context.Background(), in, raw))
		assert.Equal(t, want, engine.ValidateFromSchema(context.Background(), in, string(raw)))
		assert.Equal(t, want, engine.ValidateFromSchema(context.Background(), in, back))
		assert.Equal(t, want, engine.ValidateFromSchema(context.Background(), in, *back))
	}

	for _, src := range []any{`{"fields":`, []byte("nope"), 42, "null", "{}", []byte(`{"fields":null}`)} {
		res := engine.ValidateFromSchema(context.Background(), map[string]any{}, src)
		assert.False(t, res.Success)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, validation.CodeSchemaParseError, res.Errors[0].Code)
	}

	res := engine.ValidateForm(context.Background(), map[string]any{}, nil)
	assert.Equal(t, []string{validation.CodeSchemaParseError}, res.Errors.Codes(""))
}

func TestEngine_BindingCache(t *testing.T) {
	t.Parallel()

	reg := validation.NewRegistry()
	var binds atomic.Int32
	require.NoError(t, reg.RegisterFactory("counted", func(map[string]any) (validation.Validator, error) {
		binds.Add(1)
		return func(context.Context, any, validation.Context) (validation.Result, error) {
			return validation.Pass(), nil
		}, nil
	}))
	engine := validation.NewEngine(reg, validation.WithBindingCache(8))
	field := schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "counted", Params: schema.Params{"n": 1}}}}

	for range 3 {
		engine.ValidateField(context.Background(), "x", field, validation.Context{})
	}
	assert.Equal(t, int32(1), binds.Load())

	other := schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "counted", Params: schema.Params{"n": 2}}}}
	engine.ValidateField(context.Background(), "x", other, validation.Context{})
	assert.Equal(t, int32(2), binds.Load())

	uncached := validation.NewEngine(reg)
	uncached.ValidateField(context.Background(), "x", field, validation.Context{})
	uncached.ValidateField(context.Background(), "x", field, validation.Context{})
	assert.Equal(t, int32(4), binds.Load())
}

func TestEngine_CancelledContext(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry()
	s := &spy{}
	require.NoError(t, reg.Register("spy", s.validator()))
	engine := validation.NewEngine(reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := engine.ValidateField(ctx, "x", schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "spy"}}}, validation.Context{FieldPath: "f"})
	assert.True(t, res.Success)
	assert.Equal(t, []string{validation.CodeValidationCancelled}, res.Warnings.Codes("f"))
	assert.Zero(t, s.calls.Load())

	res = engine.ValidateField(ctx, "x", schema.FieldSchema{Validators: []schema.ValidatorSpec{{Type: "spy"}}},
		validation.Context{FieldPath: "f", IsSubmitting: true})
	assert.False(t, res.Success)
	assert.Equal(t, []string{validation.CodeValidationCancelled}, res.Errors.Codes("f"))
}
