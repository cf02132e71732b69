package config

import (
	"fmt"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
)

// TracingConfig содержит настройки OpenTelemetry трейсинга.
type TracingConfig struct {
	// Enabled включает отправку трейсов в OTLP бэкенд.
	Enabled bool `yaml:"enabled" env:"SR_TRACING_ENABLED" env-default:"false"`

	// Endpoint — URL OTLP HTTP endpoint (например, http://jaeger:4318).
	Endpoint string `yaml:"endpoint" env:"SR_TRACING_ENDPOINT"`

	// ServiceName — имя сервиса для resource attributes.
	ServiceName string `yaml:"serviceName" env:"SR_TRACING_SERVICE_NAME" env-default:"sql-restore"`

	// Environment — окружение (production, staging, development).
	Environment string `yaml:"environment" env:"SR_TRACING_ENVIRONMENT" env-default:"production"`

	// Insecure — использовать HTTP вместо HTTPS для OTLP endpoint.
	// По умолчанию true (HTTP) для совместимости с внутренними сетями.
	Insecure bool `yaml:"insecure" env:"SR_TRACING_INSECURE" env-default:"true"`

	// Timeout — таймаут для экспорта трейсов.
	Timeout time.Duration `yaml:"timeout" env:"SR_TRACING_TIMEOUT" env-default:"5s"`

	// SamplingRate — доля сэмплируемых трейсов (0.0 — ни один, 1.0 — все).
	SamplingRate float64 `yaml:"samplingRate" env:"SR_TRACING_SAMPLING_RATE" env-default:"1.0"`
}

// Validate проверяет корректность конфигурации трейсинга при загрузке.
func (t *TracingConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Endpoint == "" {
		return fmt.Errorf("%s: tracing.endpoint обязателен при enabled=true", ErrConfigInvalid)
	}
	if t.ServiceName == "" {
		return fmt.Errorf("%s: tracing.serviceName обязателен при enabled=true", ErrConfigInvalid)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("%s: tracing.timeout должен быть положительным", ErrConfigInvalid)
	}
	if t.SamplingRate < 0.0 || t.SamplingRate > 1.0 {
		return fmt.Errorf("%s: tracing.samplingRate должен быть от 0.0 до 1.0, получено: %g",
			ErrConfigInvalid, t.SamplingRate)
	}
	return nil
}

// ToTracingConfig преобразует конфигурацию в tracing.Config.
func (t *TracingConfig) ToTracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:      t.Enabled,
		Endpoint:     t.Endpoint,
		ServiceName:  t.ServiceName,
		Version:      constants.Version,
		Environment:  t.Environment,
		Insecure:     t.Insecure,
		Timeout:      t.Timeout,
		SamplingRate: t.SamplingRate,
	}
}
