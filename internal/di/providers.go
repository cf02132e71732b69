package di

import (
	"context"
	"log/slog"
	"os"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/alerting"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/metrics"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
)

// ProvideLogger создаёт Logger на основе Config.Logging.
// Использует logging.NewLogger() для создания SlogAdapter.
//
// Провайдер извлекает настройки из Config.Logging:
//   - Level: уровень логирования (debug, info, warn, error)
//   - Format: формат вывода (json, text)
//   - Output: куда выводить логи (stderr, file)
//   - FilePath, MaxSize, MaxBackups, MaxAge, Compress: параметры ротации файлов
//
// Env-default теги cleanenv гарантируют ненулевые значения,
// поэтому конвертация выполняется без проверок полей.
func ProvideLogger(cfg *config.Config) logging.Logger {
	if cfg == nil {
		return logging.NewLogger(logging.DefaultConfig())
	}
	return logging.NewLogger(cfg.Logging.ToLoggingConfig())
}

// ProvideOutputWriter создаёт OutputWriter на основе Config.OutputFormat.
//
//   - "json": возвращает JSONWriter (default)
//   - "text": возвращает TextWriter
//
// SR_OUTPUT_FORMAT из окружения имеет приоритет над конфигурационным файлом —
// формат вывода переключается без перезагрузки конфигурации.
func ProvideOutputWriter(cfg *config.Config) output.Writer {
	format := os.Getenv(constants.EnvOutputFormat)
	if format == "" && cfg != nil {
		format = cfg.OutputFormat
	}
	if format == "" {
		format = output.FormatJSON
	}
	return output.NewWriter(format)
}

// ProvideTraceID генерирует уникальный trace_id для корреляции логов.
// Использует tracing.GenerateTraceID() для криптографически безопасной генерации.
//
// Формат trace_id: 32-символьный hex string (16 байт).
// Пример: "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
//
// TraceID генерируется один раз при инициализации App
// и используется для корреляции всех логов в рамках одного запуска команды.
func ProvideTraceID() string {
	return tracing.GenerateTraceID()
}

// ProvideAlerter создаёт Alerter на основе Config.Alerting.
// Использует alerting.NewAlerter() для создания WebhookAlerter или NopAlerter.
//
// Если алертинг отключён (SR_ALERT_ENABLED=false), возвращает NopAlerter.
// При ошибке создания Alerter возвращает NopAlerter и логирует ошибку:
// сбой алертинга не должен блокировать восстановление базы.
func ProvideAlerter(cfg *config.Config, logger logging.Logger) alerting.Alerter {
	if cfg == nil {
		return alerting.NewNopAlerter()
	}

	alerter, err := alerting.NewAlerter(cfg.Alerting.ToAlertingConfig(), logger)
	if err != nil {
		logger.Error("ошибка создания Alerter, используется NopAlerter",
			slog.String("error", err.Error()),
		)
		return alerting.NewNopAlerter()
	}

	return alerter
}

// ProvideMetricsCollector создаёт Collector на основе Config.Metrics.
// Если метрики отключены (SR_METRICS_ENABLED=false), возвращает NopCollector.
//
// При ошибке создания Collector возвращает NopCollector и логирует ошибку:
// недоступный Pushgateway не должен блокировать восстановление базы.
func ProvideMetricsCollector(cfg *config.Config, logger logging.Logger) metrics.Collector {
	if cfg == nil {
		return metrics.NewNopCollector()
	}

	collector, err := metrics.NewCollector(cfg.Metrics.ToMetricsConfig(), logger)
	if err != nil {
		logger.Error("ошибка создания MetricsCollector, используется NopCollector",
			slog.String("error", err.Error()),
		)
		return metrics.NewNopCollector()
	}

	return collector
}

// ProvideTracerProvider создаёт и инициализирует OTel TracerProvider.
// Возвращает shutdown function для graceful завершения.
// Если трейсинг отключён (SR_TRACING_ENABLED=false), возвращает nop shutdown.
// При ошибке создания TracerProvider возвращает nop shutdown и логирует ошибку.
func ProvideTracerProvider(cfg *config.Config, logger logging.Logger) func(context.Context) error {
	if cfg == nil {
		return tracing.NewNopTracerProvider()
	}

	shutdown, err := tracing.NewTracerProvider(cfg.Tracing.ToTracingConfig(), logger)
	if err != nil {
		logger.Error("ошибка инициализации tracing, используется nop provider",
			slog.String("error", err.Error()),
		)
		return tracing.NewNopTracerProvider()
	}

	return shutdown
}
