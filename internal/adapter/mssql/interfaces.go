// Package mssql определяет интерфейсы и типы данных для работы с Microsoft SQL Server.
// Пакет предоставляет абстракцию над MSSQL операциями, разделённую по принципу ISP
// (Interface Segregation Principle) на сфокусированные интерфейсы:
// DatabaseConnector, HeaderReader, InstanceInspector, RestoreExecutor.
// Композитный интерфейс Client объединяет все вышеперечисленные.
package mssql

import (
	"context"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
)

// Коды ошибок для MSSQL операций.
const (
	// ErrMSSQLConnect — ошибка подключения к серверу MSSQL
	ErrMSSQLConnect = "MSSQL.CONNECT_FAILED"
	// ErrMSSQLQuery — ошибка выполнения SQL запроса
	ErrMSSQLQuery = "MSSQL.QUERY_FAILED"
	// ErrMSSQLRestore — ошибка выполнения шага восстановления
	ErrMSSQLRestore = "MSSQL.RESTORE_FAILED"
	// ErrMSSQLTimeout — превышено время ожидания операции
	ErrMSSQLTimeout = "MSSQL.TIMEOUT"
	// ErrHeaderUnreadable — заголовок файла резервной копии не читается
	ErrHeaderUnreadable = "MSSQL.HEADER_UNREADABLE"
	// ErrUnsupportedVersion — копия снята более новой версией сервера
	ErrUnsupportedVersion = "MSSQL.UNSUPPORTED_VERSION"
)

// ExecuteOptions содержит параметры выполнения шага восстановления.
type ExecuteOptions struct {
	// Timeout — таймаут одного шага; 0 — без ограничения
	Timeout time.Duration
	// ReplaceExisting — добавить WITH REPLACE к первому шагу (перезапись
	// существующей базы без tail-log backup)
	ReplaceExisting bool
	// MoveFiles — переназначение логических файлов на новые пути (MOVE ... TO ...)
	MoveFiles map[string]string
}

// DatabaseConnector предоставляет операции для подключения к серверу MSSQL.
type DatabaseConnector interface {
	// Connect устанавливает соединение с сервером MSSQL.
	Connect(ctx context.Context) error
	// Close закрывает соединение с сервером.
	Close() error
	// Ping проверяет доступность сервера.
	Ping(ctx context.Context) error
}

// HeaderReader читает заголовки файлов резервных копий.
type HeaderReader interface {
	// ReadBackupHeader выполняет RESTORE HEADERONLY/LABELONLY для файла и
	// возвращает сырые записи заголовков (по одной на backup set в файле).
	// Слабо типизированные значения сервера маппятся в HeaderRecord здесь
	// и дальше по коду не распространяются.
	ReadBackupHeader(ctx context.Context, file backup.FileRef) ([]backup.HeaderRecord, error)
}

// InstanceInspector читает состояние баз данных на целевом сервере.
type InstanceInspector interface {
	// GetContinuationState определяет, находится ли база в незавершённом
	// восстановлении (RESTORING/STANDBY), и возвращает последний применённый LSN.
	// Возвращает nil, если база отсутствует или находится в рабочем состоянии.
	GetContinuationState(ctx context.Context, database string) (*chain.Continuation, error)
	// ListMarks возвращает именованные метки транзакций базы данных
	// из msdb.dbo.logmarkhistory.
	ListMarks(ctx context.Context, database string) ([]backup.Mark, error)
}

// RestoreExecutor выполняет шаги плана восстановления.
type RestoreExecutor interface {
	// Execute выполняет один шаг плана (RESTORE DATABASE|LOG ... WITH ...).
	Execute(ctx context.Context, database string, step chain.Step, opts ExecuteOptions) error
	// Render возвращает T-SQL текст шага — тот же, что выполнит Execute.
	// Используется режимами plan-only/dry-run и выгрузкой скрипта.
	Render(database string, step chain.Step, opts ExecuteOptions) string
}

// Client — композитный интерфейс, объединяющий все операции MSSQL.
type Client interface {
	DatabaseConnector
	HeaderReader
	InstanceInspector
	RestoreExecutor
}
