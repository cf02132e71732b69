// Package help реализует команду help для вывода списка всех доступных команд.
// Список собирается из Registry, поэтому help не требует обновления
// при добавлении новых команд.
package help

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/dryrun"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/tracing"
)

// RegisterCmd регистрирует команду help в реестре.
func RegisterCmd() error {
	return command.Register(&Handler{})
}

// Data содержит информацию обо всех доступных командах.
type Data struct {
	// Commands — команды, зарегистрированные в Registry.
	Commands []CommandInfo `json:"commands"`
}

// CommandInfo описывает одну команду.
type CommandInfo struct {
	// Name — имя команды.
	Name string `json:"name"`
	// Description — описание команды.
	Description string `json:"description"`
}

// Handler обрабатывает команду help.
type Handler struct{}

// Name возвращает имя команды.
func (h *Handler) Name() string {
	return constants.ActHelp
}

// Description возвращает описание команды для вывода в help.
func (h *Handler) Description() string {
	return "Вывод списка доступных команд"
}

// Execute выполняет команду help: собирает список команд и выводит результат.
func (h *Handler) Execute(ctx context.Context, _ *config.Config) error {
	// plan-only для команд без поддержки плана: warning и нулевой exit code.
	// dry-run имеет приоритет над plan-only.
	if !dryrun.IsDryRun() && dryrun.IsPlanOnly() {
		return dryrun.WritePlanOnlyUnsupported(os.Stdout, constants.ActHelp)
	}

	start := time.Now()

	helpData := buildData()

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = tracing.GenerateTraceID()
	}

	format := os.Getenv(constants.EnvOutputFormat)

	// Текстовый формат — специализированный вывод без metadata (trace_id, duration_ms).
	// Metadata доступна только в JSON формате (аналогично version).
	if format != output.FormatJSON {
		return helpData.writeText(os.Stdout)
	}

	// JSON формат — стандартный Result.
	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActHelp,
		Data:    helpData,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: constants.APIVersion,
		},
	}

	writer := output.NewWriter(format)
	return writer.Write(os.Stdout, result)
}

// buildData собирает информацию обо всех зарегистрированных командах.
func buildData() *Data {
	data := &Data{}

	for name, handler := range command.All() {
		data.Commands = append(data.Commands, CommandInfo{
			Name:        name,
			Description: handler.Description(),
		})
	}
	sort.Slice(data.Commands, func(i, j int) bool {
		return data.Commands[i].Name < data.Commands[j].Name
	})

	return data
}

// writeText выводит информацию о командах в человекочитаемом формате.
func (d *Data) writeText(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(constants.AppName + " — восстановление баз SQL Server из цепочек резервных копий\n")
	sb.WriteString("\nКоманды:\n")

	// Определяем максимальную длину имени для выравнивания
	maxLen := 0
	for _, cmd := range d.Commands {
		if len(cmd.Name) > maxLen {
			maxLen = len(cmd.Name)
		}
	}

	for _, cmd := range d.Commands {
		fmt.Fprintf(&sb, "  %-*s  %s\n", maxLen, cmd.Name, cmd.Description)
	}

	sb.WriteString("\nОпции:\n")
	sb.WriteString("  SR_OUTPUT_FORMAT=json    Машиночитаемый вывод\n")
	sb.WriteString("  SR_DRY_RUN=true          Dry-run: план + выполнение пропускается\n")
	sb.WriteString("  SR_PLAN_ONLY=true        Только план операций без выполнения\n")
	sb.WriteString("  SR_VERBOSE=true          Подробный вывод с планом операций\n")
	sb.WriteString("  SR_CONTINUE=true         Продолжение прерванного восстановления\n")

	_, err := fmt.Fprint(w, sb.String())
	return err
}
