package config

import (
	"fmt"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
)

// ServerConfig содержит параметры подключения к MS SQL Server.
type ServerConfig struct {
	// Host — адрес сервера MSSQL
	Host string `yaml:"host" env:"SR_MSSQL_HOST"`

	// Port — порт сервера (по умолчанию 1433)
	Port int `yaml:"port" env:"SR_MSSQL_PORT" env-default:"1433"`

	// User — имя пользователя
	User string `yaml:"user" env:"SR_MSSQL_USER"`

	// Password — пароль пользователя
	Password string `yaml:"password" env:"SR_MSSQL_PASSWORD"`

	// Database — база данных для служебного подключения (обычно master)
	Database string `yaml:"database" env:"SR_MSSQL_DATABASE" env-default:"master"`

	// Timeout — таймаут подключения
	Timeout time.Duration `yaml:"timeout" env:"SR_MSSQL_TIMEOUT" env-default:"30s"`

	// Encrypt — использовать TLS шифрование соединения.
	// По умолчанию true; для legacy-серверов без TLS установить false.
	Encrypt bool `yaml:"encrypt" env:"SR_MSSQL_ENCRYPT" env-default:"true"`
}

// Validate проверяет обязательные поля подключения.
func (s *ServerConfig) Validate() error {
	if s.Host == "" {
		return fmt.Errorf("%s: server.host обязателен", ErrConfigInvalid)
	}
	if s.User == "" {
		return fmt.Errorf("%s: server.user обязателен", ErrConfigInvalid)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%s: server.port вне диапазона: %d", ErrConfigInvalid, s.Port)
	}
	return nil
}

// ToClientOptions преобразует конфигурацию в опции MSSQL клиента.
func (s *ServerConfig) ToClientOptions() mssql.ClientOptions {
	return mssql.ClientOptions{
		Server:   s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		Database: s.Database,
		Timeout:  s.Timeout,
	}
}
