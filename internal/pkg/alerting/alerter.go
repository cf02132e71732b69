// Package alerting предоставляет интерфейс и реализации для отправки алертов.
// Поддерживает webhook канал с rate limiting и retry.
package alerting

import (
	"context"
	"time"
)

// Severity определяет уровень критичности алерта.
type Severity int

const (
	// SeverityInfo — информационный алерт.
	SeverityInfo Severity = iota
	// SeverityWarning — предупреждающий алерт.
	SeverityWarning
	// SeverityCritical — критический алерт.
	SeverityCritical
)

// Имена каналов алертинга.
const (
	// ChannelWebhook — имя webhook канала.
	ChannelWebhook = "webhook"
)

// String возвращает строковое представление Severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Alert представляет данные для отправки алерта.
type Alert struct {
	// ErrorCode — код ошибки для rate limiting и идентификации.
	ErrorCode string

	// Message — человекочитаемое сообщение об ошибке.
	Message string

	// TraceID — идентификатор трассировки для корреляции логов.
	TraceID string

	// Timestamp — время возникновения ошибки.
	Timestamp time.Time

	// Command — команда, вызвавшая ошибку.
	Command string

	// Database — база данных (если применимо).
	Database string

	// Severity — уровень критичности алерта.
	Severity Severity
}

// Alerter определяет интерфейс для отправки алертов.
// Реализации: WebhookAlerter, NopAlerter.
//
// ВАЖНО: Alerter не должен прерывать работу приложения при ошибках отправки.
// Все ошибки логируются, приложение продолжает работу.
//
// Send() всегда возвращает nil для обеспечения устойчивости приложения.
// Ошибки HTTP, rate limiting и другие проблемы логируются, но не
// возвращаются caller'у. Это предотвращает каскадные ошибки когда
// alerting infrastructure недоступна.
type Alerter interface {
	// Send отправляет алерт через настроенные каналы.
	// ВСЕГДА возвращает nil (ошибки логируются, не возвращаются).
	// При частичной доставке — логирует warning, возвращает nil.
	//
	// Примеры использования:
	//   alerter.Send(ctx, Alert{ErrorCode: "MSSQL.CONNECT_FAILED", Message: "Ошибка подключения к серверу"})
	//
	// Rate limiting применяется по ErrorCode — если алерт с таким кодом
	// был отправлен недавно (в пределах RateLimitWindow), Send возвращает nil
	// без фактической отправки.
	Send(ctx context.Context, alert Alert) error
}
