package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	errs := validation.Errors{
		{Field: "email", Code: "required", Message: "is required"},
		{Field: "password", Code: "minLength", Message: "too short"},
		{Field: "password", Code: "password"},
	}

	assert.Equal(t, "validation failed: email: is required; password: too short; password: password", errs.Error())
	assert.True(t, errs.Has("password"))
	assert.False(t, errs.Has("name"))
	assert.Len(t, errs.Get("password"), 2)
	assert.Equal(t, []string{"email", "password"}, errs.Fields())
	assert.Equal(t, []string{"minLength", "password"}, errs.Codes("password"))
	assert.Len(t, errs.ByField()["password"], 2)

	assert.Equal(t, "validation failed", validation.Errors{}.Error())
}

func TestResult(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validation.Pass().Err())
	assert.True(t, validation.PassWith("x").Success)

	res := validation.Fail()
	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 1)

	err := validation.Failf("range", "must be between %d and %d", 1, 5).Err()
	var errs validation.Errors
	assert.True(t, errors.As(err, &errs))
	assert.Equal(t, "must be between 1 and 5", errs[0].Message)
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	var nilPtr *string
	blank := "  "
	word := "x"

	for _, v := range []any{nil, "", " \t\n", []any{}, []int{}, [0]int{}, nilPtr, &blank} {
		assert.True(t, validation.IsEmpty(v), "%#v", v)
	}
	for _, v := range []any{"x", 0, false, []any{nil}, &word, map[string]any{}} {
		assert.False(t, validation.IsEmpty(v), "%#v", v)
	}
}
