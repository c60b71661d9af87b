package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/schema"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

func signupForm(t *testing.T) *schema.FormSchema {
	t.Helper()
	form, err := schema.NewBuilder().
		Field("email").Required().Validate("trim").Validate("lowercase").Validate("email").
		Field("password").Required().Validate("password").Validate("notCommonPassword").
		Field("confirm").Required().Validate("matchesField", schema.Params{"field": "password"}).DependsOn("password").
		Field("accountType").Validate("oneOf", schema.Params{"values": []any{"personal", "business"}}).
		Field("company").Done().
		FormValidator("requiredIf", schema.Params{"field": "company", "when": "accountType", "equals": "business"}).
		Build()
	require.NoError(t, err)
	return form
}

func TestRules_WithEngine(t *testing.T) {
	t.Parallel()

	engine := validation.NewEngine(newRegistry(t), validation.WithStrictMode(true))
	form := signupForm(t)

	t.Run("valid signup is normalized", func(t *testing.T) {
		t.Parallel()
		res := engine.ValidateForm(context.Background(), map[string]any{
			"email":       "  John@Example.COM ",
			"password":    "Tr0ub4dor&3",
			"confirm":     "Tr0ub4dor&3",
			"accountType": "personal",
		}, form)
		require.True(t, res.Success, res.Errors)
		data := res.Data.(map[string]any)
		assert.Equal(t, "john@example.com", data["email"])
	})

	t.Run("errors per field", func(t *testing.T) {
		t.Parallel()
		res := engine.ValidateForm(context.Background(), map[string]any{
			"email":       "nope",
			"password":    "password123",
			"confirm":     "different",
			"accountType": "business",
		}, form)
		require.False(t, res.Success)
		assert.Equal(t, []string{"email"}, res.Errors.Codes("email"))
		assert.Equal(t, []string{"password", "notCommonPassword"}, res.Errors.Codes("password"))
		assert.Equal(t, []string{"matchesField"}, res.Errors.Codes("confirm"))
		assert.Equal(t, []string{"required"}, res.Errors.Codes("company"))
	})

	t.Run("form rule runs when fields pass", func(t *testing.T) {
		t.Parallel()
		res := engine.ValidateForm(context.Background(), map[string]any{
			"email":       "a@b.co",
			"password":    "Tr0ub4dor&3",
			"confirm":     "Tr0ub4dor&3",
			"accountType": "business",
		}, form)
		require.False(t, res.Success)
		assert.Equal(t, []string{"required"}, res.Errors.Codes("company"))
	})
}
