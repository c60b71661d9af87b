package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/logger"
)

func TestContextWithRun(t *testing.T) {
	ctx := logger.ContextWithRun(context.Background(), "email", 7)

	field, id, ok := logger.RunFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "email", field)
	assert.Equal(t, 7, id)

	_, _, ok = logger.RunFromContext(context.Background())
	assert.False(t, ok)
}

func TestNew_LogsRun(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))

	log.InfoContext(logger.ContextWithRun(context.Background(), "username", "run-1"), "checking")
	run, ok := decode(t, buf)["run"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "username", run["field"])
	assert.Equal(t, "run-1", run["validation_id"])

	buf.Reset()
	log.InfoContext(logger.ContextWithRun(context.Background(), "username", nil), "no id")
	run, ok = decode(t, buf)["run"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, run, "validation_id")

	buf.Reset()
	log.Info("plain")
	assert.NotContains(t, decode(t, buf), "run")
}
