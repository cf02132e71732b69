// Package restorerunhandler реализует команду restore-run: разрешение цепочки
// восстановления и последовательное выполнение шагов плана на сервере MSSQL.
//
// Переменные SR_DRY_RUN / SR_PLAN_ONLY показывают план без выполнения,
// SR_VERBOSE — план перед выполнением. Путь разрешения общий с restore-plan.
package restorerunhandler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/shared"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/dryrun"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/metrics"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/progress"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/restore"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/scan"
)

// Коды ошибок команды restore-run.
const (
	ErrRunConfigMissing = "RESTORERUN.CONFIG_MISSING"
	ErrRunTargetInvalid = "RESTORERUN.TARGET_INVALID"
	ErrRunConnectFailed = "RESTORERUN.CONNECT_FAILED"
	ErrRunScanFailed    = "RESTORERUN.SCAN_FAILED"
	ErrRunResolveFailed = "RESTORERUN.RESOLVE_FAILED"
	ErrRunStepFailed    = "RESTORERUN.STEP_FAILED"
)

// RegisterCmd регистрирует команду restore-run в реестре.
func RegisterCmd() error {
	return command.Register(&RunHandler{})
}

// RunHandler обрабатывает команду restore-run.
type RunHandler struct {
	// mssqlClient — опциональный MSSQL клиент (nil в production, mock в тестах)
	mssqlClient mssql.Client
	// verbosePlan — план операций для verbose режима, добавляется в JSON результат
	verbosePlan *output.DryRunPlan
}

// Name возвращает имя команды.
func (h *RunHandler) Name() string {
	return constants.ActRestoreRun
}

// Description возвращает описание команды для вывода в help.
func (h *RunHandler) Description() string {
	return "Восстановление базы данных по цепочке резервных копий до целевой " +
		"точки (SR_TARGET). Переменная SR_DRY_RUN=true выводит план без выполнения"
}

// Execute выполняет команду restore-run.
func (h *RunHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := shared.OutputFormat(cfg)
	log := slog.Default().With(slog.String("trace_id", traceID), slog.String("command", constants.ActRestoreRun))

	if cfg == nil {
		log.Error("Конфигурация не загружена")
		return h.writeError(format, traceID, start,
			ErrRunConfigMissing, "Конфигурация не загружена")
	}

	files := cfg.Restore.Files()
	if len(files) == 0 {
		log.Error("Не указаны файлы резервных копий")
		return h.writeError(format, traceID, start,
			ErrRunConfigMissing,
			"Не указаны файлы резервных копий (SR_BACKUP_FILES)")
	}

	target, err := cfg.Restore.ToTarget()
	if err != nil {
		log.Error("Некорректная целевая точка", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrRunTargetInvalid,
			fmt.Sprintf("Некорректная целевая точка (SR_TARGET): %v", err))
	}

	log = log.With(slog.String("database", target.DatabaseName), slog.String("target", target.Kind.String()))
	log.Info("Запуск восстановления", slog.Int("files", len(files)), slog.String("finish", cfg.Restore.FinishMode().String()))

	client := h.mssqlClient
	if client == nil {
		client, err = shared.CreateMSSQLClient(cfg)
		if err != nil {
			log.Error("Не удалось создать MSSQL клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				ErrRunConnectFailed,
				fmt.Sprintf("Не удалось создать MSSQL клиент: %v", err))
		}
	}

	if err := client.Connect(ctx); err != nil {
		log.Error("Не удалось подключиться к MSSQL", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrRunConnectFailed,
			fmt.Sprintf("Не удалось подключиться к MSSQL серверу: %v", err))
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("Ошибка закрытия соединения MSSQL", slog.String("error", closeErr.Error()))
		}
	}()

	logger := logging.NewSlogAdapter(log)

	svc := scan.New(client, client, logger, scan.Options{Workers: cfg.Restore.Workers()})
	report, err := svc.Scan(ctx, files)
	if err != nil {
		log.Error("Сканирование не выполнено", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrRunScanFailed,
			fmt.Sprintf("Сканирование не выполнено: %v", err))
	}

	orch := restore.New(client, client, logger, metrics.FromContext(ctx))
	req := restore.Request{
		Catalog:         report.Catalog,
		Targets:         []chain.Target{target},
		ChainOptions:    cfg.Restore.ToChainOptions(),
		ExecuteOptions:  cfg.Restore.ToExecuteOptions(),
		UseContinuation: cfg.Restore.Continue,
	}

	// === РЕЖИМЫ ПРЕДПРОСМОТРА (порядок приоритетов!) ===

	// 1. Dry-run: план без выполнения (высший приоритет)
	// 2. Plan-only: показать план, не выполнять
	if dryrun.IsDryRun() || dryrun.IsPlanOnly() {
		planReq := req
		planReq.PlanOnly = true
		outcomes, resolveErr := orch.Run(ctx, planReq)
		if resolveErr != nil {
			log.Error("Разрешение цепочки не выполнено", slog.String("error", resolveErr.Error()))
			return h.writeError(format, traceID, start,
				ErrRunResolveFailed,
				fmt.Sprintf("Разрешение цепочки не выполнено: %v", resolveErr))
		}
		result := outcomes[0].Result
		if !result.Verified {
			return h.writeRejected(format, traceID, start, log, result)
		}
		plan := buildExecutionPlan(result, client, req.ExecuteOptions, cfg.Restore.FinishMode())
		if dryrun.IsDryRun() {
			log.Info("Dry-run режим: построение плана")
			return output.WriteDryRunResult(os.Stdout, format, constants.ActRestoreRun, traceID, constants.APIVersion, start, plan)
		}
		log.Info("Plan-only режим: отображение плана операций")
		return output.WritePlanOnlyResult(os.Stdout, format, constants.ActRestoreRun, traceID, constants.APIVersion, start, plan)
	}

	// 3. Verbose: показать план, ПОТОМ выполнить
	if dryrun.IsVerbose() {
		log.Info("Verbose режим: отображение плана перед выполнением")
		planReq := req
		planReq.PlanOnly = true
		outcomes, resolveErr := orch.Run(ctx, planReq)
		if resolveErr != nil {
			log.Error("Разрешение цепочки не выполнено", slog.String("error", resolveErr.Error()))
			return h.writeError(format, traceID, start,
				ErrRunResolveFailed,
				fmt.Sprintf("Разрешение цепочки не выполнено: %v", resolveErr))
		}
		result := outcomes[0].Result
		if !result.Verified {
			return h.writeRejected(format, traceID, start, log, result)
		}
		plan := buildExecutionPlan(result, client, req.ExecuteOptions, cfg.Restore.FinishMode())
		if format != output.FormatJSON {
			if writeErr := plan.WritePlanText(os.Stdout); writeErr != nil {
				log.Warn("Не удалось вывести план операций", slog.String("error", writeErr.Error()))
			}
			fmt.Fprintln(os.Stdout) //nolint:errcheck // writing to stdout
		}
		h.verbosePlan = plan
	}
	// Verbose fall-through: план отображён, продолжаем реальное выполнение

	prog := progress.NewIndeterminate()
	prog.Start("Восстановление базы данных...")

	// Горутина обновляет progress каждую секунду. Atomic flag предотвращает
	// race между close(done) и последним вызовом prog.Update().
	var wg sync.WaitGroup
	var stopped atomic.Bool
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var elapsed int64
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if stopped.Load() {
					return
				}
				elapsed++
				prog.Update(elapsed*1000, "Восстановление...")
			}
		}
	}()

	outcomes, runErr := orch.Run(ctx, req)
	stopped.Store(true) // Устанавливаем флаг ДО закрытия канала
	close(done)
	wg.Wait()
	prog.Finish()

	if runErr != nil {
		log.Error("Восстановление не выполнено", slog.String("error", runErr.Error()))
		return h.writeError(format, traceID, start,
			ErrRunResolveFailed,
			fmt.Sprintf("Восстановление не выполнено: %v", runErr))
	}

	outcome := outcomes[0]
	if !outcome.Result.Verified {
		return h.writeRejected(format, traceID, start, log, outcome.Result)
	}

	duration := time.Since(start)
	data := buildRunData(outcome, cfg.Restore.FinishMode(), duration)

	if outcome.StepError != nil {
		log.Error("Шаг восстановления не выполнен",
			slog.Int("step", outcome.StepError.StepIndex),
			slog.String("error", outcome.StepError.Err.Error()))
		return h.writeStepError(format, traceID, start, data, outcome.StepError)
	}

	log.Info("Восстановление завершено успешно",
		slog.Int("steps", outcome.ExecutedSteps),
		slog.Duration("duration", duration))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("executed_steps", fmt.Sprintf("%d", data.ExecutedSteps), "")
	summary.AddMetric("duration", duration.Round(time.Millisecond).String(), "")

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActRestoreRun,
		Data:    data,
		Plan:    h.verbosePlan, // verbose JSON включает план
		Summary: summary,
		Metadata: &output.Metadata{
			DurationMs: duration.Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}

// writeRejected выводит типизированную причину отказа цепочки.
func (h *RunHandler) writeRejected(format, traceID string, start time.Time, log *slog.Logger, result chain.Result) error {
	log.Error("Цепочка отклонена",
		slog.String("code", result.Reject.Code),
		slog.String("detail", result.Reject.Detail))

	message := result.Reject.Detail
	if message == "" {
		message = result.Reject.Code
	}
	return h.writeError(format, traceID, start, result.Reject.Code, message)
}

// writeStepError выводит частичный результат с ошибкой шага.
// База остаётся в состоянии последнего успешного шага; продолжение — SR_CONTINUE=true.
func (h *RunHandler) writeStepError(format, traceID string, start time.Time, data *RunData, stepErr *restore.StepError) error {
	message := fmt.Sprintf("Шаг %d не выполнен: %v. База в состоянии последнего успешного шага, "+
		"продолжение — SR_CONTINUE=true", stepErr.StepIndex+1, stepErr.Err)

	if format != output.FormatJSON {
		if writeErr := data.writeText(os.Stdout); writeErr != nil {
			slog.Default().Warn("Не удалось вывести результат", slog.String("error", writeErr.Error()))
		}
		return shared.HandleError(message, ErrRunStepFailed)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActRestoreRun,
		Data:    data,
		Error: &output.ErrorInfo{
			Code:    ErrRunStepFailed,
			Message: message,
		},
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	if writeErr := writer.Write(os.Stdout, result); writeErr != nil {
		slog.Default().Error("Не удалось записать JSON-ответ об ошибке",
			slog.String("trace_id", traceID),
			slog.String("error", writeErr.Error()))
	}

	return fmt.Errorf("%s: %s", ErrRunStepFailed, message)
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *RunHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return shared.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActRestoreRun,
		Error: &output.ErrorInfo{
			Code:    code,
			Message: message,
		},
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	if writeErr := writer.Write(os.Stdout, result); writeErr != nil {
		slog.Default().Error("Не удалось записать JSON-ответ об ошибке",
			slog.String("trace_id", traceID),
			slog.String("error", writeErr.Error()))
	}

	return fmt.Errorf("%s: %s", code, message)
}
