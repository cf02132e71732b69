package restoreplanhandler

import (
	"fmt"
	"io"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/scan"
)

// StepInfo — один шаг плана восстановления в выводе команды.
type StepInfo struct {
	// Order — порядковый номер шага (с 1)
	Order int `json:"order"`
	// Type — тип шага: Full, Differential, Log или Transition
	Type string `json:"type"`
	// BackupSetID — идентификатор набора; пуст для шага смены режима
	BackupSetID string `json:"backup_set_id,omitempty"`
	// Recovery — режим завершения шага (NORECOVERY/RECOVERY/STANDBY)
	Recovery string `json:"recovery"`
	// StopAt — точка STOPAT последнего журнального шага
	StopAt *time.Time `json:"stop_at,omitempty"`
	// StopMark — имя метки для STOPATMARK/STOPBEFOREMARK
	StopMark string `json:"stop_mark,omitempty"`
	// SQL — T-SQL текст шага, тот же что выполнит restore-run
	SQL string `json:"sql"`
}

// PlanData содержит данные ответа команды restore-plan.
type PlanData struct {
	// Database — имя базы данных
	Database string `json:"database"`
	// Verified — цепочка доказуемо непрерывна и достигает цели
	Verified bool `json:"verified"`
	// Steps — упорядоченный план шагов; пуст при Verified=false
	Steps []StepInfo `json:"steps,omitempty"`
	// Reject — типизированная причина отказа; nil при Verified=true
	Reject *chain.Reject `json:"reject,omitempty"`
	// CatalogSets — размер нормализованного каталога
	CatalogSets int `json:"catalog_sets"`
	// DroppedSets — число наборов, отброшенных нормализатором
	DroppedSets int `json:"dropped_sets,omitempty"`
	// UnreadableFiles — число файлов с нечитаемыми заголовками
	UnreadableFiles int `json:"unreadable_files,omitempty"`
	// ScriptPath — путь выгруженного T-SQL скрипта (если запрошен)
	ScriptPath string `json:"script_path,omitempty"`
}

// buildPlanData преобразует результат разрешения цепочки в данные ответа.
func buildPlanData(result chain.Result, executor mssql.RestoreExecutor, opts mssql.ExecuteOptions, report *scan.Report) *PlanData {
	data := &PlanData{
		Database:        result.Database,
		Verified:        result.Verified,
		Reject:          result.Reject,
		CatalogSets:     len(report.Catalog),
		DroppedSets:     len(report.Dropped),
		UnreadableFiles: len(report.Failures),
	}

	for i, step := range result.Plan {
		info := StepInfo{
			Order:    i + 1,
			Recovery: step.Recovery.String(),
			StopAt:   step.StopAt,
			SQL:      executor.Render(result.Database, step, opts),
		}
		switch {
		case step.Transition:
			info.Type = "Transition"
		case step.Set != nil:
			info.Type = step.Set.BackupType.String()
			info.BackupSetID = step.Set.BackupSetID
		}
		if step.StopMark != nil {
			info.StopMark = step.StopMark.Name
		}
		data.Steps = append(data.Steps, info)
	}

	return data
}

// writeText выводит план в человекочитаемом формате.
func (d *PlanData) writeText(w io.Writer) error {
	if !d.Verified {
		if _, err := fmt.Fprintf(w, "❌ Цепочка восстановления для базы %s отклонена\n", d.Database); err != nil {
			return err
		}
		if d.Reject != nil {
			if _, err := fmt.Fprintf(w, "Код: %s\n", d.Reject.Code); err != nil {
				return err
			}
			if d.Reject.Detail != "" {
				if _, err := fmt.Fprintf(w, "Причина: %s\n", d.Reject.Detail); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if _, err := fmt.Fprintf(w, "План восстановления базы %s: %d шагов\n", d.Database, len(d.Steps)); err != nil {
		return err
	}
	for _, s := range d.Steps {
		if _, err := fmt.Fprintf(w, "  %d. [%s] %s\n", s.Order, s.Type, s.SQL); err != nil {
			return err
		}
	}
	if d.ScriptPath != "" {
		if _, err := fmt.Fprintf(w, "Скрипт выгружен: %s\n", d.ScriptPath); err != nil {
			return err
		}
	}
	return nil
}
