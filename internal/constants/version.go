package constants

// Константы версии приложения.
// При сборке релиза значения подменяются через -ldflags
// (-X .../internal/constants.Version=..., -X .../internal/constants.Commit=...).
var (
	// Version - версия приложения
	Version = "1.2.0"
	// Commit - хеш коммита на момент сборки
	Commit = ""
)

// AppName - имя бинарного файла
const AppName = "sql-restore"
