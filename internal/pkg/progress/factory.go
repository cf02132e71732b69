package progress

import (
	"os"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
)

// DefaultThrottleInterval — интервал throttling по умолчанию (1 секунда).
const DefaultThrottleInterval = time.Second

// New создаёт подходящую реализацию Progress на основе окружения и Options.
// Логика выбора:
// 1. SR_SHOW_PROGRESS=false → NoopProgress
// 2. SR_OUTPUT_FORMAT=json && SR_PROGRESS_STREAM=true → JSONProgress
// 3. Total=0 (indeterminate) → SpinnerProgress
// 4. TTY → TTYProgress
// 5. Иначе → NonTTYProgress
func New(opts Options) Progress {
	// Устанавливаем дефолтный throttle если не задан
	if opts.ThrottleInterval == 0 {
		opts.ThrottleInterval = DefaultThrottleInterval
	}

	// Устанавливаем дефолтный output если не задан
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	// Проверяем явное отключение
	if os.Getenv(constants.EnvShowProgress) == "false" {
		return &NoopProgress{}
	}

	// JSON output режим
	if os.Getenv(constants.EnvOutputFormat) == "json" {
		// Если явно запрошен JSON progress streaming — используем JSONProgress
		if os.Getenv(constants.EnvProgressStream) == "true" {
			return NewJSONProgress(opts)
		}
		// Без PROGRESS_STREAM progress отключается, чтобы текстовые
		// сообщения в stderr не мешали парсингу JSON.
		return &NoopProgress{}
	}

	// Indeterminate — spinner
	if opts.Total == 0 {
		return NewSpinnerProgress(opts)
	}

	// Determinate — progress bar или log
	if IsTTY(opts.Output) {
		return NewTTYProgress(opts)
	}
	return NewNonTTYProgress(opts)
}

// NewIndeterminate создаёт progress для операций с неизвестной длительностью.
// Используется когда время операции непредсказуемо — показывает spinner.
func NewIndeterminate() Progress {
	// SR_SHOW_PROGRESS=false отключает progress bar
	if os.Getenv(constants.EnvShowProgress) == "false" {
		return NewNoOp()
	}

	// Время операции непредсказуемо — используем SpinnerProgress (Total=0)
	opts := Options{
		Total:            0,         // indeterminate → SpinnerProgress
		Output:           os.Stderr, // важно: stderr, чтобы не ломать JSON output в stdout
		ShowETA:          false,     // нет ETA для неизвестной длительности
		ThrottleInterval: time.Second,
	}

	return New(opts)
}
