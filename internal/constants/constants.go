// Package constants содержит все константы, используемые в проекте sql-restore.
// Константы сгруппированы по их функциональному назначению для удобства использования и поддержки.
package constants

// Константы сообщений приложения
const (
	// MsgAppExit - сообщение о завершении работы программы
	MsgAppExit = "Завершение работы програмы"
	// MsgErrProcessing - сообщение об обработке ошибки
	MsgErrProcessing = "Обработка ошибки"
)

// Константы действий (команд)
const (
	// ActBackupScan - действие сканирования файлов резервных копий
	ActBackupScan = "backup-scan"
	// ActRestorePlan - действие построения плана восстановления
	ActRestorePlan = "restore-plan"
	// ActRestoreRun - действие выполнения восстановления
	ActRestoreRun = "restore-run"
	// ActVersion - действие вывода версии
	ActVersion = "version"
	// ActHelp - действие вывода справки
	ActHelp = "help"
)

// Имена переменных окружения.
// Все переменные проекта носят префикс SR_ (sql-restore).
const (
	// EnvAction - выбираемая команда
	EnvAction = "SR_ACTION"
	// EnvConfigPath - путь к YAML-файлу конфигурации
	EnvConfigPath = "SR_CONFIG"
	// EnvOutputFormat - формат вывода результатов: json или text
	EnvOutputFormat = "SR_OUTPUT_FORMAT"
	// EnvDryRun - режим dry-run: план без выполнения
	EnvDryRun = "SR_DRY_RUN"
	// EnvPlanOnly - режим plan-only: отобразить план и выйти
	EnvPlanOnly = "SR_PLAN_ONLY"
	// EnvVerbose - предпросмотр плана перед выполнением
	EnvVerbose = "SR_VERBOSE"
	// EnvShowProgress - отображение прогресса длительных шагов
	EnvShowProgress = "SR_SHOW_PROGRESS"
	// EnvProgressStream - потоковый JSON-вывод прогресса в stderr
	EnvProgressStream = "SR_PROGRESS_STREAM"
)

// Константы API
const (
	// APIVersion - версия API
	APIVersion = "v1"
)

// Константы форматов вывода
const (
	// OutputFormatJSON - машиночитаемый JSON-вывод
	OutputFormatJSON = "json"
	// OutputFormatText - человекочитаемый текстовый вывод
	OutputFormatText = "text"
)

// Значения по умолчанию восстановления
const (
	// DefaultTargetSpec - целевая точка по умолчанию
	DefaultTargetSpec = "latest"
	// DefaultScanWorkers - размер пула чтения заголовков по умолчанию
	DefaultScanWorkers = 4
)
