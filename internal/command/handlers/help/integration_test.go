package help

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/testutil"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelpHandler_Integration_EmptyCommand проверяет что пустой SR_ACTION приводит к help.
// Логика перенаправления реализована в main.go, здесь проверяем что help handler
// зарегистрирован и доступен по ключу "help".
func TestHelpHandler_Integration_EmptyCommand(t *testing.T) {
	// Проверяем что help зарегистрирован в registry
	h, ok := command.Get("help")
	require.True(t, ok, "help должен быть зарегистрирован в registry")

	// Проверяем что пустая команда НЕ найдена (перенаправление делается в main.go)
	_, emptyOk := command.Get("")
	assert.False(t, emptyOk, "пустая команда не должна быть зарегистрирована в registry")

	// Выполняем help handler
	t.Setenv("SR_OUTPUT_FORMAT", "text")
	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), nil)
	})

	require.NoError(t, execErr)
	assert.Contains(t, out, "sql-restore")
}

// TestHelpHandler_Integration_Registration проверяет что help зарегистрирован в registry.
func TestHelpHandler_Integration_Registration(t *testing.T) {
	h, ok := command.Get(constants.ActHelp)
	require.True(t, ok, "help должен быть зарегистрирован в registry")
	assert.Equal(t, constants.ActHelp, h.Name())
	assert.Equal(t, "Вывод списка доступных команд", h.Description())
}

// TestHelpHandler_Integration_StdoutStderrSeparation проверяет что результат идёт в stdout.
func TestHelpHandler_Integration_StdoutStderrSeparation(t *testing.T) {
	t.Setenv("SR_OUTPUT_FORMAT", "json")

	h, ok := command.Get(constants.ActHelp)
	require.True(t, ok)

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(context.Background(), nil)
	})

	require.NoError(t, execErr)

	// stdout должен содержать валидный JSON
	var result output.Result
	err := json.Unmarshal([]byte(out), &result)
	require.NoError(t, err, "stdout должен содержать валидный JSON")
	assert.Equal(t, "success", result.Status)
}

// TestHelpHandler_Integration_TraceID проверяет что trace_id присутствует в metadata.
func TestHelpHandler_Integration_TraceID(t *testing.T) {
	t.Setenv("SR_OUTPUT_FORMAT", "json")

	traceID := tracing.GenerateTraceID()
	ctx := tracing.WithTraceID(context.Background(), traceID)

	h, ok := command.Get(constants.ActHelp)
	require.True(t, ok)

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = h.Execute(ctx, nil)
	})

	require.NoError(t, execErr)

	var result output.Result
	err := json.Unmarshal([]byte(out), &result)
	require.NoError(t, err)

	require.NotNil(t, result.Metadata)
	assert.Equal(t, traceID, result.Metadata.TraceID, "trace_id должен совпадать с переданным в context")
	assert.Equal(t, constants.APIVersion, result.Metadata.APIVersion)
}
