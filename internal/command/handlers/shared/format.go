package shared

import (
	"os"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
)

// OutputFormat возвращает эффективный формат вывода команды.
// Конфигурация имеет приоритет над переменной окружения SR_OUTPUT_FORMAT.
func OutputFormat(cfg *config.Config) string {
	if cfg != nil && cfg.OutputFormat != "" {
		return cfg.OutputFormat
	}
	return os.Getenv(constants.EnvOutputFormat)
}
