// Package mssqltest предоставляет тестовые утилиты для пакета mssql:
// мок-реализации интерфейсов и вспомогательные конструкторы.
package mssqltest

import (
	"context"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
)

// Compile-time проверки реализации интерфейсов
var (
	_ mssql.Client            = (*MockMSSQLClient)(nil)
	_ mssql.DatabaseConnector = (*MockMSSQLClient)(nil)
	_ mssql.HeaderReader      = (*MockMSSQLClient)(nil)
	_ mssql.InstanceInspector = (*MockMSSQLClient)(nil)
	_ mssql.RestoreExecutor   = (*MockMSSQLClient)(nil)
)

// MockMSSQLClient — мок-реализация mssql.Client для тестирования.
// Использует функциональные поля для гибкой настройки поведения в тестах.
type MockMSSQLClient struct {
	// ConnectFunc — пользовательская реализация Connect
	ConnectFunc func(ctx context.Context) error
	// CloseFunc — пользовательская реализация Close
	CloseFunc func() error
	// PingFunc — пользовательская реализация Ping
	PingFunc func(ctx context.Context) error
	// ReadBackupHeaderFunc — пользовательская реализация ReadBackupHeader
	ReadBackupHeaderFunc func(ctx context.Context, file backup.FileRef) ([]backup.HeaderRecord, error)
	// GetContinuationStateFunc — пользовательская реализация GetContinuationState
	GetContinuationStateFunc func(ctx context.Context, database string) (*chain.Continuation, error)
	// ListMarksFunc — пользовательская реализация ListMarks
	ListMarksFunc func(ctx context.Context, database string) ([]backup.Mark, error)
	// ExecuteFunc — пользовательская реализация Execute
	ExecuteFunc func(ctx context.Context, database string, step chain.Step, opts mssql.ExecuteOptions) error
	// RenderFunc — пользовательская реализация Render
	RenderFunc func(database string, step chain.Step, opts mssql.ExecuteOptions) string

	// ExecutedSteps — шаги, переданные в Execute (для проверки порядка в тестах)
	ExecutedSteps []chain.Step
}

// Connect устанавливает соединение с сервером MSSQL.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Connect(ctx context.Context) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return nil
}

// Close закрывает соединение с сервером.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Ping проверяет доступность сервера.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// ReadBackupHeader читает заголовки файла резервной копии.
// При отсутствии пользовательской функции возвращает пустой результат.
func (m *MockMSSQLClient) ReadBackupHeader(ctx context.Context, file backup.FileRef) ([]backup.HeaderRecord, error) {
	if m.ReadBackupHeaderFunc != nil {
		return m.ReadBackupHeaderFunc(ctx, file)
	}
	return nil, nil
}

// GetContinuationState возвращает состояние незавершённого восстановления.
// При отсутствии пользовательской функции возвращает nil (база в рабочем состоянии).
func (m *MockMSSQLClient) GetContinuationState(ctx context.Context, database string) (*chain.Continuation, error) {
	if m.GetContinuationStateFunc != nil {
		return m.GetContinuationStateFunc(ctx, database)
	}
	return nil, nil
}

// ListMarks возвращает метки транзакций базы данных.
// При отсутствии пользовательской функции возвращает пустой список.
func (m *MockMSSQLClient) ListMarks(ctx context.Context, database string) ([]backup.Mark, error) {
	if m.ListMarksFunc != nil {
		return m.ListMarksFunc(ctx, database)
	}
	return nil, nil
}

// Execute выполняет шаг плана и записывает его в ExecutedSteps.
// При отсутствии пользовательской функции возвращает nil.
func (m *MockMSSQLClient) Execute(ctx context.Context, database string, step chain.Step, opts mssql.ExecuteOptions) error {
	m.ExecutedSteps = append(m.ExecutedSteps, step)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, database, step, opts)
	}
	return nil
}

// Render возвращает T-SQL текст шага.
// При отсутствии пользовательской функции возвращает пустую строку.
func (m *MockMSSQLClient) Render(database string, step chain.Step, opts mssql.ExecuteOptions) string {
	if m.RenderFunc != nil {
		return m.RenderFunc(database, step, opts)
	}
	return ""
}
