// Package config содержит конфигурацию приложения.
//
// Конфигурация собирается из двух источников: YAML-файл (путь в SR_CONFIG)
// и переменные окружения с префиксом SR_. Переменные окружения имеют
// приоритет над значениями из файла.
package config

import (
	"fmt"
	"os"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"

	"github.com/ilyakaznacheev/cleanenv"
)

// Коды ошибок загрузки конфигурации.
const (
	// ErrConfigLoad - ошибка чтения конфигурации из файла или окружения
	ErrConfigLoad = "CONFIG.LOAD_FAILED"
	// ErrConfigInvalid - конфигурация прочитана, но не прошла валидацию
	ErrConfigInvalid = "CONFIG.INVALID"
)

// Config хранит настройки для работы приложения.
// Разделена на логические группы: подключение к серверу, параметры
// восстановления и ambient-подсистемы (логирование, метрики, трейсинг, алертинг).
type Config struct {
	// Action — выполняемая команда (backup-scan, restore-plan, restore-run, ...)
	Action string `yaml:"action" env:"SR_ACTION"`

	// OutputFormat — формат вывода результатов: json или text
	OutputFormat string `yaml:"outputFormat" env:"SR_OUTPUT_FORMAT" env-default:"json"`

	// Server — параметры подключения к MS SQL Server
	Server ServerConfig `yaml:"server"`

	// Restore — параметры восстановления
	Restore RestoreConfig `yaml:"restore"`

	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Alerting AlertingConfig `yaml:"alerting"`
}

// Load загружает конфигурацию.
// Если задана переменная окружения SR_CONFIG — читается YAML-файл по этому
// пути, после чего значения переопределяются переменными окружения
// (семантика cleanenv.ReadConfig). Без SR_CONFIG читаются только переменные
// окружения.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv(constants.EnvConfigPath); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: не удалось прочитать конфигурацию из %s: %w", ErrConfigLoad, path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: не удалось прочитать переменные окружения: %w", ErrConfigLoad, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность конфигурации.
// Ошибки подключения к серверу проверяются при создании клиента;
// здесь отсекаются только значения, с которыми нельзя продолжать.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case constants.OutputFormatJSON, constants.OutputFormatText:
	default:
		return fmt.Errorf("%s: неизвестный формат вывода %q (допустимы: %s, %s)",
			ErrConfigInvalid, c.OutputFormat, constants.OutputFormatJSON, constants.OutputFormatText)
	}

	if err := c.Restore.Validate(); err != nil {
		return err
	}

	// Fail-fast для ambient-подсистем: невалидная конфигурация отключает
	// подсистему при загрузке, а не при первом использовании.
	if c.Metrics.Enabled {
		if err := c.Metrics.Validate(); err != nil {
			return err
		}
	}
	if c.Tracing.Enabled {
		if err := c.Tracing.Validate(); err != nil {
			return err
		}
	}
	if c.Alerting.Enabled {
		if err := c.Alerting.Validate(); err != nil {
			return err
		}
	}
	return nil
}
