// Package backupscanhandler реализует команду backup-scan: чтение заголовков
// файлов резервных копий через RESTORE HEADERONLY и вывод нормализованного
// каталога backup set'ов с причинами отбраковки.
package backupscanhandler

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
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/dryrun"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/scan"
)

// Коды ошибок команды backup-scan.
const (
	ErrScanConfigMissing = "BACKUPSCAN.CONFIG_MISSING"
	ErrScanConnectFailed = "BACKUPSCAN.CONNECT_FAILED"
	ErrScanFailed        = "BACKUPSCAN.SCAN_FAILED"
)

// RegisterCmd регистрирует команду backup-scan в реестре.
func RegisterCmd() error {
	return command.Register(&ScanHandler{})
}

// ScanHandler обрабатывает команду backup-scan.
type ScanHandler struct {
	// mssqlClient — опциональный MSSQL клиент (nil в production, mock в тестах)
	mssqlClient mssql.Client
}

// Name возвращает имя команды.
func (h *ScanHandler) Name() string {
	return constants.ActBackupScan
}

// Description возвращает описание команды для вывода в help.
func (h *ScanHandler) Description() string {
	return "Сканирование заголовков файлов резервных копий (SR_BACKUP_FILES) " +
		"и вывод нормализованного каталога backup set'ов"
}

// Execute выполняет команду backup-scan.
func (h *ScanHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := shared.OutputFormat(cfg)
	log := slog.Default().With(slog.String("trace_id", traceID), slog.String("command", constants.ActBackupScan))

	if cfg == nil {
		log.Error("Конфигурация не загружена")
		return h.writeError(format, traceID, start,
			ErrScanConfigMissing, "Конфигурация не загружена")
	}

	files := cfg.Restore.Files()
	if len(files) == 0 {
		log.Error("Не указаны файлы резервных копий")
		return h.writeError(format, traceID, start,
			ErrScanConfigMissing,
			"Не указаны файлы резервных копий (SR_BACKUP_FILES)")
	}

	log.Info("Запуск сканирования резервных копий", slog.Int("files", len(files)))

	// Dry-run и plan-only: показать план чтения заголовков без обращения к серверу.
	if dryrun.IsDryRun() {
		log.Info("Dry-run режим: построение плана")
		plan := h.buildPlan(files)
		return output.WriteDryRunResult(os.Stdout, format, constants.ActBackupScan, traceID, constants.APIVersion, start, plan)
	}
	if dryrun.IsPlanOnly() {
		log.Info("Plan-only режим: отображение плана операций")
		plan := h.buildPlan(files)
		return output.WritePlanOnlyResult(os.Stdout, format, constants.ActBackupScan, traceID, constants.APIVersion, start, plan)
	}

	client := h.mssqlClient
	if client == nil {
		var err error
		client, err = shared.CreateMSSQLClient(cfg)
		if err != nil {
			log.Error("Не удалось создать MSSQL клиент", slog.String("error", err.Error()))
			return h.writeError(format, traceID, start,
				ErrScanConnectFailed,
				fmt.Sprintf("Не удалось создать MSSQL клиент: %v", err))
		}
	}

	if err := client.Connect(ctx); err != nil {
		log.Error("Не удалось подключиться к MSSQL", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrScanConnectFailed,
			fmt.Sprintf("Не удалось подключиться к MSSQL серверу: %v", err))
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("Ошибка закрытия соединения MSSQL", slog.String("error", closeErr.Error()))
		}
	}()

	svc := scan.New(client, client, logging.NewSlogAdapter(log), scan.Options{Workers: cfg.Restore.Workers()})

	report, err := svc.Scan(ctx, files)
	if err != nil {
		log.Error("Сканирование не выполнено", slog.String("error", err.Error()))
		return h.writeError(format, traceID, start,
			ErrScanFailed,
			fmt.Sprintf("Сканирование не выполнено: %v", err))
	}

	duration := time.Since(start)
	data := buildScanData(report, duration)

	log.Info("Сканирование завершено",
		slog.Int("sets", len(data.Sets)),
		slog.Int("dropped", len(data.Dropped)),
		slog.Int("failures", len(data.Failures)),
		slog.Duration("duration", duration))

	if format != output.FormatJSON {
		return data.writeText(os.Stdout)
	}

	summary := output.NewSummaryInfo()
	summary.AddMetric("backup_sets", fmt.Sprintf("%d", len(data.Sets)), "")
	summary.AddMetric("databases", fmt.Sprintf("%d", len(data.Databases)), "")
	for _, f := range data.Failures {
		summary.AddWarning(fmt.Sprintf("файл не прочитан: %s", f.Path))
	}
	for _, d := range data.Dropped {
		summary.AddWarning(fmt.Sprintf("набор отброшен (%s): %s", d.Code, d.BackupSetID))
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActBackupScan,
		Data:    data,
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

// buildPlan строит план чтения заголовков для режимов предпросмотра.
func (h *ScanHandler) buildPlan(files []backup.FileRef) *output.DryRunPlan {
	steps := make([]output.PlanStep, 0, len(files))
	for i, f := range files {
		steps = append(steps, output.PlanStep{
			Order:     i + 1,
			Operation: "RESTORE HEADERONLY",
			Parameters: map[string]any{
				"file":   f.Path,
				"device": f.Device.String(),
			},
			ExpectedChanges: []string{"только чтение заголовка, данные не изменяются"},
		})
	}
	return dryrun.BuildPlanWithSummary(constants.ActBackupScan, steps,
		fmt.Sprintf("чтение заголовков %d файлов", len(files)))
}

// writeError выводит структурированную ошибку и возвращает error.
func (h *ScanHandler) writeError(format, traceID string, start time.Time, code, message string) error {
	if format != output.FormatJSON {
		return shared.HandleError(message, code)
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: constants.ActBackupScan,
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
