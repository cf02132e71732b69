// Package alerting предоставляет конфигурацию для системы алертинга.
// Этот файл содержит структуры конфигурации и значения по умолчанию.
package alerting

import "time"

// Значения по умолчанию для конфигурации alerting.
const (
	// DefaultRateLimitWindow — интервал между алертами одного типа по умолчанию.
	DefaultRateLimitWindow = 5 * time.Minute
)

// Config содержит настройки для пакета alerting.
// Используется при создании Alerter через NewAlerter().
type Config struct {
	// Enabled — включён ли алертинг (по умолчанию false).
	Enabled bool

	// RateLimitWindow — минимальный интервал между алертами одного типа.
	// По умолчанию: 5 минут.
	RateLimitWindow time.Duration

	// Webhook — конфигурация webhook канала.
	Webhook WebhookConfig
}

// DefaultConfig возвращает конфигурацию с значениями по умолчанию.
// Alerting отключён по умолчанию.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		RateLimitWindow: DefaultRateLimitWindow,
		Webhook: WebhookConfig{
			Enabled:    false,
			Timeout:    DefaultWebhookTimeout,
			MaxRetries: DefaultMaxRetries,
		},
	}
}

// Validate проверяет корректность конфигурации.
// Возвращает ошибку если обязательные поля не заполнены.
func (c *Config) Validate() error {
	// Если alerting отключён — валидация не требуется
	if !c.Enabled {
		return nil
	}

	return c.Webhook.Validate()
}
