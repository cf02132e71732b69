// Package shared предоставляет общие утилиты для обработчиков команд.
package shared

import (
	"fmt"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
)

// CreateMSSQLClient создаёт MSSQL клиент из конфигурации подключения.
// Возвращает mssql.Client, готовый к Connect, без установления соединения.
func CreateMSSQLClient(cfg *config.Config) (mssql.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("конфигурация не может быть nil")
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, err
	}
	return mssql.NewClientWithEncrypt(cfg.Server.ToClientOptions(), cfg.Server.Encrypt)
}
