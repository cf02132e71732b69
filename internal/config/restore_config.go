package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
)

// Режимы завершения восстановления в строковом виде (значение SR_FINISH).
const (
	FinishNoRecovery = "norecovery"
	FinishRecovery   = "recovery"
	FinishStandby    = "standby"
)

// RestoreConfig содержит параметры восстановления: целевую базу, целевую
// точку, список файлов резервных копий и режим завершения.
type RestoreConfig struct {
	// Database — имя восстанавливаемой базы данных.
	// Пустое допустимо только для каталога с единственной базой.
	Database string `yaml:"database" env:"SR_DATABASE"`

	// Target — спецификация целевой точки:
	// "latest", момент времени ("2024-05-17T13:45:00"),
	// "mark:Имя" или "mark-before:Имя".
	Target string `yaml:"target" env:"SR_TARGET" env-default:"latest"`

	// MarkAfter — нижняя временная граница поиска метки (RFC3339).
	// Пустое значение — без ограничения.
	MarkAfter string `yaml:"markAfter" env:"SR_MARK_AFTER"`

	// BackupFiles — пути к файлам резервных копий (в env через ";",
	// пути Windows содержат двоеточие и запятые в именах).
	BackupFiles []string `yaml:"backupFiles" env:"SR_BACKUP_FILES" env-separator:";"`

	// Finish — режим завершения: norecovery, recovery или standby.
	Finish string `yaml:"finish" env:"SR_FINISH" env-default:"recovery"`

	// StandbyFile — путь к undo-файлу (обязателен при finish=standby).
	StandbyFile string `yaml:"standbyFile" env:"SR_STANDBY_FILE"`

	// IgnoreDifferentials — не использовать разностные копии.
	IgnoreDifferentials bool `yaml:"ignoreDifferentials" env:"SR_IGNORE_DIFFERENTIALS" env-default:"false"`

	// IgnoreLogs — не использовать журнальные копии.
	IgnoreLogs bool `yaml:"ignoreLogs" env:"SR_IGNORE_LOGS" env-default:"false"`

	// Continue — продолжить ранее начатое восстановление: состояние базы
	// на сервере запрашивается и база восстанавливается с первого
	// непримененного журнала.
	Continue bool `yaml:"continue" env:"SR_CONTINUE" env-default:"false"`

	// Replace — добавить WITH REPLACE к восстановлению полной копии.
	Replace bool `yaml:"replace" env:"SR_REPLACE" env-default:"false"`

	// CheckFiles — проверять наличие файлов копий на момент валидации плана.
	CheckFiles bool `yaml:"checkFiles" env:"SR_CHECK_FILES" env-default:"false"`

	// ScanWorkers — размер пула параллельного чтения заголовков.
	ScanWorkers int `yaml:"scanWorkers" env:"SR_SCAN_WORKERS" env-default:"4"`

	// StepTimeout — таймаут одного шага восстановления (0 — без ограничения).
	StepTimeout time.Duration `yaml:"stepTimeout" env:"SR_STEP_TIMEOUT" env-default:"0"`

	// ScriptPath — путь для выгрузки T-SQL скрипта вместо выполнения
	// (пустое значение — скрипт не выгружается).
	ScriptPath string `yaml:"scriptPath" env:"SR_SCRIPT_PATH"`

	// ScriptUTF16 — кодировать выгружаемый скрипт в UTF-16LE с BOM
	// (формат, ожидаемый SSMS и sqlcmd -i).
	ScriptUTF16 bool `yaml:"scriptUtf16" env:"SR_SCRIPT_UTF16" env-default:"false"`

	// MoveFiles — перенаправление логических файлов базы (WITH MOVE).
	// Ключ — логическое имя, значение — физический путь. Только YAML:
	// cleanenv не поддерживает map из переменных окружения.
	MoveFiles map[string]string `yaml:"moveFiles"`
}

// Validate проверяет согласованность параметров восстановления.
func (r *RestoreConfig) Validate() error {
	switch r.Finish {
	case FinishNoRecovery, FinishRecovery, FinishStandby:
	default:
		return fmt.Errorf("%s: неизвестный режим завершения %q (допустимы: %s, %s, %s)",
			ErrConfigInvalid, r.Finish, FinishNoRecovery, FinishRecovery, FinishStandby)
	}
	if r.Finish == FinishStandby && r.StandbyFile == "" {
		return fmt.Errorf("%s: restore.standbyFile обязателен при finish=standby", ErrConfigInvalid)
	}
	if r.MarkAfter != "" {
		if _, err := parseMarkAfter(r.MarkAfter); err != nil {
			return fmt.Errorf("%s: не удалось разобрать restore.markAfter %q: %w",
				ErrConfigInvalid, r.MarkAfter, err)
		}
	}
	return nil
}

// FinishMode возвращает типизированный режим завершения.
func (r *RestoreConfig) FinishMode() chain.RecoveryMode {
	switch r.Finish {
	case FinishStandby:
		return chain.RecoveryStandby
	case FinishNoRecovery:
		return chain.RecoveryNoRecovery
	default:
		return chain.RecoveryRecover
	}
}

// ToTarget разбирает спецификацию целевой точки в типизированный Target.
func (r *RestoreConfig) ToTarget() (chain.Target, error) {
	var markAfter time.Time
	if r.MarkAfter != "" {
		ts, err := parseMarkAfter(r.MarkAfter)
		if err != nil {
			return chain.Target{}, err
		}
		markAfter = ts
	}

	target, err := chain.ParseTarget(r.Database, r.Target, markAfter)
	if err != nil {
		return chain.Target{}, err
	}
	target.IgnoreDifferentials = r.IgnoreDifferentials
	target.IgnoreLogs = r.IgnoreLogs
	return target, nil
}

// ToChainOptions возвращает параметры разрешения цепочки.
func (r *RestoreConfig) ToChainOptions() chain.Options {
	opts := chain.Options{
		Finish:      r.FinishMode(),
		StandbyPath: r.StandbyFile,
	}
	if r.CheckFiles {
		opts.FileExists = func(f backup.FileRef) bool {
			_, err := os.Stat(f.Path)
			return err == nil
		}
	}
	return opts
}

// ToExecuteOptions возвращает параметры выполнения шагов RESTORE.
func (r *RestoreConfig) ToExecuteOptions() mssql.ExecuteOptions {
	return mssql.ExecuteOptions{
		Timeout:         r.StepTimeout,
		ReplaceExisting: r.Replace,
		MoveFiles:       r.MoveFiles,
	}
}

// Files возвращает список файлов резервных копий в виде FileRef.
// Пустые элементы (следствие завершающего разделителя в env) отбрасываются.
func (r *RestoreConfig) Files() []backup.FileRef {
	refs := make([]backup.FileRef, 0, len(r.BackupFiles))
	for _, p := range r.BackupFiles {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		refs = append(refs, backup.FileRef{Path: p})
	}
	return refs
}

// Workers возвращает размер пула сканирования с дефолтом.
func (r *RestoreConfig) Workers() int {
	if r.ScanWorkers <= 0 {
		return constants.DefaultScanWorkers
	}
	return r.ScanWorkers
}

func parseMarkAfter(spec string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, spec); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("неподдерживаемый формат даты: %q", spec)
}
