package config

import (
	"fmt"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/alerting"
)

// AlertingConfig содержит настройки для алертинга.
// Единственный поддерживаемый канал — webhook: восстановление запускается
// из планировщиков и CI, где webhook покрывает интеграцию с любым приёмником.
type AlertingConfig struct {
	// Enabled — включён ли алертинг (по умолчанию false).
	Enabled bool `yaml:"enabled" env:"SR_ALERTING_ENABLED" env-default:"false"`

	// RateLimitWindow — минимальный интервал между алертами одного типа.
	RateLimitWindow time.Duration `yaml:"rateLimitWindow" env:"SR_ALERTING_RATE_LIMIT_WINDOW" env-default:"5m"`

	// Webhook — конфигурация webhook канала.
	Webhook WebhookChannelConfig `yaml:"webhook"`
}

// WebhookChannelConfig содержит настройки webhook канала.
type WebhookChannelConfig struct {
	// Enabled — включён ли webhook канал.
	Enabled bool `yaml:"enabled" env:"SR_ALERTING_WEBHOOK_ENABLED" env-default:"false"`

	// URLs — список URL для отправки webhook.
	// Алерт отправляется на все указанные URL.
	URLs []string `yaml:"urls" env:"SR_ALERTING_WEBHOOK_URLS" env-separator:","`

	// Headers — дополнительные HTTP заголовки.
	// Используется для Authorization, X-Api-Key и т.д. Только YAML:
	// cleanenv не поддерживает map из переменных окружения.
	Headers map[string]string `yaml:"headers"`

	// Timeout — таймаут HTTP запросов.
	Timeout time.Duration `yaml:"timeout" env:"SR_ALERTING_WEBHOOK_TIMEOUT" env-default:"10s"`

	// MaxRetries — максимальное количество повторных попыток.
	MaxRetries int `yaml:"maxRetries" env:"SR_ALERTING_WEBHOOK_MAX_RETRIES" env-default:"3"`
}

// Validate проверяет корректность конфигурации алертинга при загрузке.
// Полная валидация (формат URL, header injection) выполняется в
// alerting.Config.Validate() при создании Alerter.
func (a *AlertingConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.Webhook.Enabled && len(a.Webhook.URLs) == 0 {
		return fmt.Errorf("%s: alerting.webhook: хотя бы один URL обязателен", ErrConfigInvalid)
	}
	return nil
}

// ToAlertingConfig преобразует конфигурацию в alerting.Config.
func (a *AlertingConfig) ToAlertingConfig() alerting.Config {
	return alerting.Config{
		Enabled:         a.Enabled,
		RateLimitWindow: a.RateLimitWindow,
		Webhook: alerting.WebhookConfig{
			Enabled:    a.Webhook.Enabled,
			URLs:       a.Webhook.URLs,
			Headers:    a.Webhook.Headers,
			Timeout:    a.Webhook.Timeout,
			MaxRetries: a.Webhook.MaxRetries,
		},
	}
}
