package config

import (
	"fmt"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/metrics"
)

// MetricsConfig содержит настройки для Prometheus метрик.
type MetricsConfig struct {
	// Enabled — включены ли метрики (по умолчанию false).
	Enabled bool `yaml:"enabled" env:"SR_METRICS_ENABLED" env-default:"false"`

	// PushgatewayURL — URL Prometheus Pushgateway.
	// Пример: "http://pushgateway:9091"
	PushgatewayURL string `yaml:"pushgatewayUrl" env:"SR_METRICS_PUSHGATEWAY_URL"`

	// JobName — имя job для группировки метрик.
	JobName string `yaml:"jobName" env:"SR_METRICS_JOB_NAME" env-default:"sql-restore"`

	// Timeout — таймаут HTTP запросов к Pushgateway.
	Timeout time.Duration `yaml:"timeout" env:"SR_METRICS_TIMEOUT" env-default:"10s"`

	// InstanceLabel — переопределение instance label.
	// Если пусто — используется hostname.
	InstanceLabel string `yaml:"instanceLabel" env:"SR_METRICS_INSTANCE"`
}

// Validate проверяет корректность конфигурации метрик при загрузке.
func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.PushgatewayURL == "" {
		return fmt.Errorf("%s: metrics.pushgatewayUrl обязателен при enabled=true", ErrConfigInvalid)
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("%s: metrics.timeout должен быть положительным", ErrConfigInvalid)
	}
	return nil
}

// ToMetricsConfig преобразует конфигурацию в metrics.Config.
func (m *MetricsConfig) ToMetricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:        m.Enabled,
		PushgatewayURL: m.PushgatewayURL,
		JobName:        m.JobName,
		Timeout:        m.Timeout,
		InstanceLabel:  m.InstanceLabel,
	}
}
