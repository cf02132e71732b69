// Package dryrun предоставляет функции для работы с dry-run режимом.
// В dry-run режиме команды возвращают план действий без реального выполнения.
package dryrun

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/output"
)

// IsDryRun проверяет включён ли dry-run режим.
// Возвращает true если переменная окружения SR_DRY_RUN равна "true" или "1".
// При SR_DRY_RUN=true команды возвращают план действий БЕЗ выполнения.
// Проверка значения case-insensitive через strings.EqualFold.
func IsDryRun() bool {
	val := os.Getenv(constants.EnvDryRun)
	return strings.EqualFold(val, "true") || val == "1"
}

// IsPlanOnly проверяет включён ли plan-only режим.
// Возвращает true если переменная окружения SR_PLAN_ONLY равна "true" или "1".
// SR_PLAN_ONLY=true активирует отображение плана без выполнения.
func IsPlanOnly() bool {
	val := os.Getenv(constants.EnvPlanOnly)
	return strings.EqualFold(val, "true") || val == "1"
}

// IsVerbose проверяет включён ли verbose режим.
// Возвращает true если переменная окружения SR_VERBOSE равна "true" или "1".
// SR_VERBOSE=true активирует предпросмотр плана перед выполнением.
func IsVerbose() bool {
	val := os.Getenv(constants.EnvVerbose)
	return strings.EqualFold(val, "true") || val == "1"
}

// EffectiveMode возвращает текущий приоритетный режим выполнения.
// Приоритет: "dry-run" > "plan-only" > "verbose" > "normal".
// SR_DRY_RUN перекрывает SR_PLAN_ONLY и SR_VERBOSE.
func EffectiveMode() string {
	if IsDryRun() {
		return "dry-run"
	}
	if IsPlanOnly() {
		return "plan-only"
	}
	if IsVerbose() {
		return "verbose"
	}
	return "normal"
}

// WritePlanOnlyUnsupported выводит предупреждение для команд без поддержки плана.
// Plan-only для таких команд завершается предупреждением и exit code = 0.
// Всегда возвращает nil — ошибка записи в stdout не должна приводить
// к ненулевому exit code для информационного сообщения.
func WritePlanOnlyUnsupported(w io.Writer, command string) error {
	fmt.Fprintf(w, "Команда %s не поддерживает отображение плана операций\n", command) //nolint:errcheck // best-effort output
	return nil
}

// BuildPlan создаёт план операций для dry-run режима.
// Plan содержит операции, параметры, ожидаемые изменения.
func BuildPlan(command string, steps []output.PlanStep) *output.DryRunPlan {
	return &output.DryRunPlan{
		Command:          command,
		Steps:            steps,
		ValidationPassed: true,
	}
}

// BuildPlanWithSummary создаёт план операций с кратким описанием.
func BuildPlanWithSummary(command string, steps []output.PlanStep, summary string) *output.DryRunPlan {
	return &output.DryRunPlan{
		Command:          command,
		Steps:            steps,
		Summary:          summary,
		ValidationPassed: true,
	}
}

// passwordRegexes — скомпилированные регулярные выражения для поиска паролей.
// поддерживаем несколько форматов паролей для полного покрытия.
// /P и -P работают и в начале строки (опциональный пробел перед ними).
// passwordRegexes is effectively constant (compiled once, never modified).
// Cannot be const because Go does not support const slices.
var passwordRegexes = []*regexp.Regexp{
	// Формат: /P password или /P "password" или /P 'password' (может быть в начале строки)
	regexp.MustCompile(`(?i)(^|[ ])(/P )("[^"]*"|'[^']*'|[^\s]+)`),
	// Формат: /P=password (без пробела, может быть в начале строки)
	regexp.MustCompile(`(?i)(^|[ ])(/P=)("[^"]*"|'[^']*'|[^\s]+)`),
	// Формат: -P password или -P "password" (может быть в начале строки)
	regexp.MustCompile(`(?i)(^|[ ])(-P )("[^"]*"|'[^']*'|[^\s]+)`),
	// Формат: -P=password (может быть в начале строки)
	regexp.MustCompile(`(?i)(^|[ ])(-P=)("[^"]*"|'[^']*'|[^\s]+)`),
	// Формат: password= (generic для connection strings)
	regexp.MustCompile(`(?i)(password=)([^;]+)`),
	// pwd= формат (сокращённый вариант в connection strings)
	regexp.MustCompile(`(?i)(pwd=)([^;]+)`),
}

// MaskPassword маскирует пароль в connect string.
// SECURITY: пароли НЕ должны появляться в dry-run плане.
// обрабатывает расширенный набор форматов:
// - /P password, /P "password", /P 'password'
// - /P=password (без пробела)
// - -P password, -P=password (дефис вместо слэша)
// - password=value (generic connection string формат)
// работает и когда /P или -P в начале строки.
// Формат: /S server\base /N user /P password → /S server\base /N user /P ***
func MaskPassword(connectString string) string {
	result := connectString
	// Для первых 4 regex: группа 1 = prefix (пробел или начало), группа 2 = /P или -P, группа 3 = пароль
	// Заменяем на $1$2*** (сохраняем prefix и флаг, маскируем пароль)
	for i, regex := range passwordRegexes {
		if i < 4 {
			// /P и -P форматы: 3 группы
			result = regex.ReplaceAllString(result, "$1$2***")
		} else {
			// password= формат: 2 группы
			result = regex.ReplaceAllString(result, "$1***")
		}
	}
	return result
}
