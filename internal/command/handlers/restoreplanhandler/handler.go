// Package restoreplanhandler реализует команду restore-plan: разрешение
// цепочки восстановления до целевой точки и вывод упорядоченного плана
// с T-SQL текстом шагов, без выполнения на сервере.
//
// Путь разрешения общий с командой restore-run: показанный план — это
// ровно то, что будет выполнено.
package restoreplanhandler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/shared"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/metrics"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/restore"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/scan"
)

// Коды ошибок команды restore-plan.
const (
	ErrPlanConfigMissing = "RESTOREPLAN.CONFIG_MISSING"
	ErrPlanTargetInvalid = "RESTOREPLAN.TARGET_INVALID"
	ErrPlanConnectFailed = "RESTOREPLAN.CONNECT_FAILED"
	ErrPlanScanFailed    = "RESTOREPLAN.SCAN_FAILED"
	ErrPlanResolveFailed = "RESTOREPLAN.RESOLVE_FAILED"
	ErrPlanScriptFailed  = "RESTOREPLAN.SCRIPT_WRITE_FAILED"
)

// RegisterCmd регистрирует команду restore-plan в реестре.
func RegisterCmd() error {
	return command.Register(&PlanHandler{})
}

// PlanHandler обрабатывает команду restore-plan.
type PlanHandler struct {
	// mssqlClient — опциональный MSSQL клиент (nil в production, mock в тестах)
	mssqlClient mssql.Client
}

// Name возвращает имя команды.
func (h *PlanHandler) Name() string {
	return constants.ActRestorePlan
}

// Description возвращает описание команды для вывода в help.
func (h *PlanHandler) Description() string {
	return "Разрешение цепочки восстановления до целевой точки (SR_TARGET) " +
		"и вывод плана с T-SQL шагами без выполнения. " +
		"SR_SCRIPT_PATH дополнительно выгружает план в файл скрипта"
}

// Execute выполняет команду restore-plan.
func (h *PlanHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := shared.OutputFormat(cfg)
	log := slog.Default().With(slog.String("trace_id", traceID), slog.String("command", constants.ActRestorePlan))

	if cfg == nil {
		log.Error("Конфигурация не загружена")
		return h.writeError(format, traceID, start,
			ErrPlanConfigMissing, "Конфигурация не загружена")
	}

	files := cfg.Restore.Files()
	if len(files) == 0 {
		log.Error("Не указаны файлы резервных копий")
		return h.writeError(format, traceID, start,
			ErrPlanConfigMissing,
			"Не указаны файлы резервных копий (SR_BACKUP_FILES)")
	}

	target, err := cfg.Restore.ToTarget()
	if err != nil {
		log.Error("Некорректная целевая точка", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrPlanTargetInvalid,
			fmt.Sprintf("Некорректная целевая точка (SR_TARGET): %v", err))
	}

	log = log.With(slog.String("database", target.DatabaseName), slog.String("target", target.Kind.String()))
	log.Info("Запуск построения плана восстановления", slog.Int("files", len(files)))

	client := h.mssqlClient
	if client == nil {
		client, err = shared.CreateMSSQLClient(cfg)
		if err != nil {
			log.Error("Не удалось создать MSSQL клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				ErrPlanConnectFailed,
				fmt.Sprintf("Не удалось создать MSSQL клиент: %v", err))
		}
	}

	if err := client.Connect(ctx); err != nil {
		log.Error("Не удалось подключиться к MSSQL", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrPlanConnectFailed,
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
			ErrPlanScanFailed,
			fmt.Sprintf("Сканирование не выполнено: %v", err))
	}

	orch := restore.New(client, nil, logger, metrics.FromContext(ctx))
	outcomes, err := orch.Run(ctx, restore.Request{
		Catalog:         report.Catalog,
		Targets:         []chain.Target{target},
		ChainOptions:    cfg.Restore.ToChainOptions(),
		ExecuteOptions:  cfg.Restore.ToExecuteOptions(),
		UseContinuation: cfg.Restore.Continue,
		PlanOnly:        true,
	})
	if err != nil {
		log.Error("Разрешение цепочки не выполнено", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrPlanResolveFailed,
			fmt.Sprintf("Разрешение цепочки не выполнено: %v", err))
	}

	result := outcomes[0].Result
	data := buildPlanData(result, client, cfg.Restore.ToExecuteOptions(), report)

	if result.Verified && cfg.Restore.ScriptPath != "" {
		if err := writeScript(client, cfg, result); err != nil {
			log.Error("Выгрузка скрипта не выполнена", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				ErrPlanScriptFailed,
				fmt.Sprintf("Выгрузка скрипта не выполнена: %v", err))
		}
		data.ScriptPath = cfg.Restore.ScriptPath
		log.Info("Скрипт восстановления выгружен", slog.String("path", cfg.Restore.ScriptPath))
	}

	duration := time.Since(start)

	if !result.Verified {
		log.Error("Цепочка отклонена",
			slog.String("code", result.Reject.Code),
			slog.String("detail", result.Reject.Detail))
		return h.writeRejected(format, traceID, start, data, result.Reject)
	}

	log.Info("План построен", slog.Int("steps", len(data.Steps)), slog.Duration("duration", duration))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("steps", fmt.Sprintf("%d", len(data.Steps)), "")
	for _, d := range report.Dropped {
		summary.AddWarning(fmt.Sprintf("набор отброшен (%s): %s", d.Code, d.BackupSetID))
	}

	res := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActRestorePlan,
		Data:    data,
		Summary: summary,
		Metadata: &output.Metadata{
			DurationMs: duration.Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, res)
}

// writeScript выгружает план в файл T-SQL скрипта.
// При SR_SCRIPT_UTF16 файл кодируется в UTF-16LE с BOM для открытия в SSMS.
func writeScript(executor mssql.RestoreExecutor, cfg *config.Config, result chain.Result) error {
	script := mssql.RenderScript(executor, result.Database, result.Plan, cfg.Restore.ToExecuteOptions())

	content := []byte(script)
	if cfg.Restore.ScriptUTF16 {
		encoded, err := mssql.EncodeScriptUTF16(script)
		if err != nil {
			return err
		}
		content = encoded
	}

	return os.WriteFile(cfg.Restore.ScriptPath, content, constants.FilePermReadWrite)
}

// writeRejected выводит план с типизированной причиной отказа.
// Данные включаются в ответ: вызывающая сторона видит и отказ, и контекст каталога.
func (h *PlanHandler) writeRejected(format, traceID string, start time.Time, data *PlanData, reject *chain.Reject) error {
	message := reject.Detail
	if message == "" {
		message = reject.Code
	}

	if format != output.FormatJSON {
		if writeErr := data.writeText(os.Stdout); writeErr != nil {
			slog.Default().Warn("Не удалось вывести план", slog.String("error", writeErr.Error()))
		}
		return shared.HandleError(message, reject.Code)
	}

	res := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActRestorePlan,
		Data:    data,
		Error: &output.ErrorInfo{
			Code:    reject.Code,
			Message: message,
		},
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	if writeErr := writer.Write(os.Stdout, res); writeErr != nil {
		slog.Default().Error("Не удалось записать JSON-ответ об отказе",
			slog.String("trace_id", traceID),
			slog.String("error", writeErr.Error()))
	}

	return fmt.Errorf("%s: %s", reject.Code, message)
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *PlanHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return shared.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActRestorePlan,
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
