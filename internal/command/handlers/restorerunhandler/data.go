package restorerunhandler

import (
	"fmt"
	"io"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/dryrun"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/restore"
)

// RunData содержит данные ответа команды restore-run.
type RunData struct {
	// Database — имя восстановленной базы данных
	Database string `json:"database"`
	// TotalSteps — число шагов плана
	TotalSteps int `json:"total_steps"`
	// ExecutedSteps — число успешно выполненных шагов
	ExecutedSteps int `json:"executed_steps"`
	// Finish — режим завершения (NORECOVERY/RECOVERY/STANDBY)
	Finish string `json:"finish"`
	// DurationMs — время выполнения в миллисекундах
	DurationMs int64 `json:"duration_ms"`
	// FailedStep — номер неудавшегося шага (с 1); 0 при успехе
	FailedStep int `json:"failed_step,omitempty"`
	// FailedStepError — текст ошибки неудавшегося шага
	FailedStepError string `json:"failed_step_error,omitempty"`
}

// buildRunData преобразует результат оркестратора в данные ответа.
func buildRunData(outcome restore.Outcome, finish chain.RecoveryMode, duration time.Duration) *RunData {
	data := &RunData{
		Database:      outcome.Result.Database,
		TotalSteps:    len(outcome.Result.Plan),
		ExecutedSteps: outcome.ExecutedSteps,
		Finish:        finish.String(),
		DurationMs:    duration.Milliseconds(),
	}
	if outcome.StepError != nil {
		data.FailedStep = outcome.StepError.StepIndex + 1
		data.FailedStepError = outcome.StepError.Err.Error()
	}
	return data
}

// writeText выводит результат восстановления в человекочитаемом формате.
func (d *RunData) writeText(w io.Writer) error {
	if d.FailedStep > 0 {
		_, err := fmt.Fprintf(w,
			"❌ Восстановление прервано\n"+
				"База данных: %s\n"+
				"Выполнено шагов: %d из %d\n"+
				"Ошибка на шаге %d: %s\n",
			d.Database, d.ExecutedSteps, d.TotalSteps, d.FailedStep, d.FailedStepError)
		return err
	}

	duration := time.Duration(d.DurationMs) * time.Millisecond
	_, err := fmt.Fprintf(w,
		"✅ Восстановление завершено\n"+
			"База данных: %s\n"+
			"Выполнено шагов: %d\n"+
			"Режим завершения: %s\n"+
			"Время выполнения: %v\n",
		d.Database, d.ExecutedSteps, d.Finish, duration.Round(time.Millisecond))
	return err
}

// buildExecutionPlan строит план операций для режимов предпросмотра.
// Каждый шаг несёт тот же T-SQL, что выполнит боевой запуск.
func buildExecutionPlan(result chain.Result, executor mssql.RestoreExecutor, opts mssql.ExecuteOptions, finish chain.RecoveryMode) *output.DryRunPlan {
	steps := make([]output.PlanStep, 0, len(result.Plan))
	for i, step := range result.Plan {
		params := map[string]any{
			"database": result.Database,
			"recovery": step.Recovery.String(),
			"sql":      executor.Render(result.Database, step, opts),
		}
		operation := "RESTORE DATABASE"
		switch {
		case step.Transition:
			if step.Recovery == chain.RecoveryNoRecovery {
				operation = "Перевод базы из standby в restoring"
			} else {
				operation = "Завершение восстановления базы"
			}
		case step.Set != nil:
			if step.Set.BackupType == backup.TypeLog {
				operation = "RESTORE LOG"
			}
			params["backup_set_id"] = step.Set.BackupSetID
			params["type"] = step.Set.BackupType.String()
		}
		if step.StopAt != nil {
			params["stop_at"] = step.StopAt.Format("2006-01-02T15:04:05")
		}
		if step.StopMark != nil {
			params["stop_mark"] = step.StopMark.Name
		}
		steps = append(steps, output.PlanStep{
			Order:           i + 1,
			Operation:       operation,
			Parameters:      params,
			ExpectedChanges: []string{fmt.Sprintf("база %s изменяется", result.Database)},
		})
	}

	return dryrun.BuildPlanWithSummary(
		constants.ActRestoreRun,
		steps,
		fmt.Sprintf("%d шагов, завершение %s", len(steps), finish.String()),
	)
}
