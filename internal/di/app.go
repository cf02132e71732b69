package di

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/alerting"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/apperrors"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/metrics"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
)

// Exit codes приложения.
const (
	// ExitOK — успешное выполнение.
	ExitOK = 0
	// ExitUnknownCommand — команда не зарегистрирована в registry.
	ExitUnknownCommand = 2
	// ExitConfigError — ошибка загрузки конфигурации.
	ExitConfigError = 5
	// ExitCommandError — команда завершилась с ошибкой.
	ExitCommandError = 8
)

// App содержит инициализированные зависимости приложения.
// Создаётся через Wire DI в InitializeApp().
//
// Все поля инициализируются через провайдеры в providers.go.
// При добавлении новых зависимостей:
// 1. Добавить поле в App struct
// 2. Создать провайдер в providers.go
// 3. Добавить провайдер в ProviderSet в wire.go
// 4. Перегенерировать wire_gen.go: go generate ./internal/di/...
type App struct {
	// Config содержит конфигурацию приложения.
	// Передаётся извне через InitializeApp().
	Config *config.Config

	// Logger предоставляет структурированное логирование.
	// Создаётся через ProvideLogger на основе Config.Logging.
	Logger logging.Logger

	// OutputWriter форматирует результаты команд.
	// Создаётся через ProvideOutputWriter на основе Config.OutputFormat.
	OutputWriter output.Writer

	// TraceID содержит уникальный идентификатор для корреляции логов.
	// Генерируется через ProvideTraceID.
	TraceID string

	// Alerter отправляет алерты при критических ошибках.
	// Создаётся через ProvideAlerter на основе Config.Alerting.
	// Если алертинг отключён — используется NopAlerter.
	Alerter alerting.Alerter

	// MetricsCollector собирает и отправляет метрики в Prometheus Pushgateway.
	// Создаётся через ProvideMetricsCollector на основе Config.Metrics.
	// Если метрики отключены — используется NopCollector.
	// App — единственный владелец коллектора: handlers получают его
	// через metrics.FromContext(ctx), а Push выполняется один раз в Run().
	MetricsCollector metrics.Collector

	// TracerShutdown завершает OTel TracerProvider и отправляет буферизированные span-ы.
	// Создаётся через ProvideTracerProvider на основе Config.Tracing.
	// Если трейсинг отключён — nop function (нулевой overhead).
	TracerShutdown func(context.Context) error
}

// Run выполняет команду из Config.Action через registry и возвращает exit code.
//
// Последовательность: trace_id в context → root span → RecordCommandStart →
// handler.Execute → RecordCommandEnd + Push → алерт при ошибке.
// Метрики и алерты не прерывают выполнение: их ошибки логируются внутри
// реализаций.
func (a *App) Run(ctx context.Context) int {
	action := a.Config.Action
	if action == "" {
		action = constants.ActHelp
	}
	database := a.Config.Restore.Database

	// Корреляция логов и span-ов: один trace_id на весь запуск команды
	ctx = tracing.WithTraceID(ctx, a.TraceID)
	ctx = tracing.ContextWithOTelTraceID(ctx, a.TraceID)

	tracer := otel.Tracer(constants.AppName)
	ctx, span := tracer.Start(ctx, action,
		trace.WithAttributes(
			attribute.String("command", action),
			attribute.String("database", database),
			attribute.String("trace_id", a.TraceID),
		),
	)
	defer span.End()

	// Handlers получают коллектор из context и передают его в сервисный слой.
	// Push при этом остаётся за App — иначе два PUT в Pushgateway перетирали
	// бы метрики друг друга.
	ctx = metrics.WithCollector(ctx, a.MetricsCollector)

	handler, ok := command.Get(action)
	if !ok {
		a.Logger.Error("неизвестная команда",
			slog.String(constants.EnvAction, action),
			slog.String(constants.MsgErrProcessing, constants.MsgAppExit),
		)
		return ExitUnknownCommand
	}

	a.MetricsCollector.RecordCommandStart(action, database)
	start := time.Now()

	a.Logger.Debug("Выполнение команды через registry", slog.String("command", action))
	execErr := handler.Execute(ctx, a.Config)

	a.MetricsCollector.RecordCommandEnd(action, database, time.Since(start), execErr == nil)
	_ = a.MetricsCollector.Push(ctx) // Ошибки push логируются внутри, не критичны

	if execErr != nil {
		a.Logger.Error("Ошибка выполнения команды",
			slog.String("command", action),
			slog.String("error", execErr.Error()),
			slog.String(constants.MsgErrProcessing, constants.MsgAppExit),
		)
		_ = a.Alerter.Send(ctx, alerting.Alert{
			ErrorCode: errorCode(execErr),
			Message:   execErr.Error(),
			TraceID:   a.TraceID,
			Timestamp: time.Now(),
			Command:   action,
			Database:  database,
			Severity:  alerting.SeverityCritical,
		})
		return ExitCommandError
	}
	return ExitOK
}

// errorCode извлекает код ошибки вида "CATEGORY.SPECIFIC".
// Структурированные ошибки (apperrors.AppError) отдают код напрямую,
// для остальных код извлекается из префикса "КОД: сообщение".
// Если код не распознан — используется UNKNOWN.
func errorCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	msg := err.Error()
	for i, r := range msg {
		if r == ':' {
			return msg[:i]
		}
		// Код состоит из заглавных букв, цифр, точек и подчёркиваний
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '.' && r != '_' {
			break
		}
	}
	return "UNKNOWN"
}
