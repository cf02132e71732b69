// Package restore оркестрирует восстановление: разрешение цепочек по базам,
// опциональный учёт незавершённых восстановлений на сервере и выполнение
// планов шаг за шагом.
package restore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
)

// Коды ошибок оркестратора.
const (
	// ErrRestoreFailed — шаг плана восстановления не выполнен.
	ErrRestoreFailed = "RESTORE.STEP_FAILED"
	// ErrContinuationProbe — не удалось опросить состояние незавершённого
	// восстановления на сервере.
	ErrContinuationProbe = "RESTORE.CONTINUATION_PROBE_FAILED"
)

// resolvePoolSize — предел параллельных разрешений цепочек.
// Само разрешение чистое и однопоточное; параллелизм только между базами.
const resolvePoolSize = 4

// Recorder принимает метрики восстановления. Nop-реализация допустима.
type Recorder interface {
	// ObserveResolveDuration фиксирует длительность разрешения цепочки.
	ObserveResolveDuration(database string, d time.Duration)
	// ChainVerified увеличивает счётчик верифицированных цепочек.
	ChainVerified(database string)
	// ChainRejected увеличивает счётчик отказов с кодом причины.
	ChainRejected(database, code string)
}

// NopRecorder — Recorder, отбрасывающий метрики.
type NopRecorder struct{}

// ObserveResolveDuration ничего не делает.
func (NopRecorder) ObserveResolveDuration(string, time.Duration) {}

// ChainVerified ничего не делает.
func (NopRecorder) ChainVerified(string) {}

// ChainRejected ничего не делает.
func (NopRecorder) ChainRejected(string, string) {}

// Request описывает один запуск оркестратора.
type Request struct {
	// Catalog — нормализованный каталог backup set'ов
	Catalog []backup.SetDescriptor
	// Targets — цели восстановления, по одной на базу
	Targets []chain.Target
	// ChainOptions — режим завершения, standby-файл, проверка наличия файлов
	ChainOptions chain.Options
	// ExecuteOptions — таймаут шага, REPLACE, MOVE
	ExecuteOptions mssql.ExecuteOptions
	// UseContinuation — учитывать незавершённые восстановления на сервере
	UseContinuation bool
	// PlanOnly — разрешить и вернуть планы, ничего не выполняя.
	// Путь разрешения общий с боевым запуском: что показано, то и выполнится.
	PlanOnly bool
}

// StepError — ошибка выполнения одного шага плана.
type StepError struct {
	// Database — база данных шага
	Database string
	// StepIndex — индекс шага в плане (с нуля)
	StepIndex int
	// Err — причина
	Err error
}

// Error реализует интерфейс error.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: база %s, шаг %d: %v", ErrRestoreFailed, e.Database, e.StepIndex, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *StepError) Unwrap() error { return e.Err }

// Outcome — результат обработки одной базы данных.
type Outcome struct {
	// Result — результат разрешения цепочки
	Result chain.Result
	// ExecutedSteps — число успешно выполненных шагов
	ExecutedSteps int
	// StepError — ошибка первого неудавшегося шага; nil при успехе.
	// Повторных попыток нет: база остаётся в состоянии последнего
	// успешного шага, продолжение — через UseContinuation.
	StepError *StepError
}

// Orchestrator управляет полным циклом восстановления.
type Orchestrator struct {
	inspector mssql.InstanceInspector
	executor  mssql.RestoreExecutor
	logger    logging.Logger
	recorder  Recorder
}

// New создаёт оркестратор. inspector нужен только при UseContinuation,
// executor — только для боевого выполнения; recorder=nil заменяется на Nop.
func New(inspector mssql.InstanceInspector, executor mssql.RestoreExecutor, logger logging.Logger, recorder Recorder) *Orchestrator {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Orchestrator{
		inspector: inspector,
		executor:  executor,
		logger:    logger,
		recorder:  recorder,
	}
}

// Run разрешает цепочки для всех целей и, если не задан PlanOnly,
// выполняет полученные планы.
//
// Разрешения независимых баз идут параллельно небольшим пулом; выполнение
// планов — строго последовательно, в порядке имён баз, шаг за шагом.
// Отказ разрешения, опроса состояния сервера или шага одной базы не мешает
// остальным (частичный успех). Возвращает ошибку только при отмене контекста.
func (o *Orchestrator) Run(ctx context.Context, req Request) ([]Outcome, error) {
	outcomes := make([]Outcome, len(req.Targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolvePoolSize)
	for i, target := range req.Targets {
		g.Go(func() error {
			outcomes[i] = o.resolveOne(gctx, req, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}

	if req.PlanOnly {
		return outcomes, nil
	}

	// Детерминированный порядок выполнения при любом порядке целей.
	order := make([]int, len(outcomes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return outcomes[order[a]].Result.Database < outcomes[order[b]].Result.Database
	})

	for _, idx := range order {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o.executeOne(ctx, req, &outcomes[idx])
	}

	return outcomes, nil
}

// resolveOne разрешает цепочку одной цели. Сбой опроса состояния сервера
// выражается отказом этой базы, а не ошибкой всего запуска.
func (o *Orchestrator) resolveOne(ctx context.Context, req Request, target chain.Target) Outcome {
	var cont *chain.Continuation
	if req.UseContinuation && o.inspector != nil && target.DatabaseName != "" {
		var err error
		cont, err = o.inspector.GetContinuationState(ctx, target.DatabaseName)
		if err != nil {
			o.recorder.ChainRejected(target.DatabaseName, ErrContinuationProbe)
			o.logger.Error("не удалось опросить состояние восстановления",
				"database", target.DatabaseName, "error", err)
			return Outcome{Result: chain.Result{
				Database: target.DatabaseName,
				Reject: &chain.Reject{
					Code:   ErrContinuationProbe,
					Detail: fmt.Sprintf("опрос состояния восстановления: %v", err),
				},
			}}
		}
		if cont != nil {
			o.logger.Info("обнаружено незавершённое восстановление",
				"database", target.DatabaseName,
				"applied_lsn", uint64(cont.AlreadyAppliedLastLSN),
				"standby", cont.Mode == chain.StateStandby)
		}
	}

	started := time.Now()
	result := chain.Resolve(req.Catalog, target, cont, req.ChainOptions)
	o.recorder.ObserveResolveDuration(result.Database, time.Since(started))

	if result.Verified {
		o.recorder.ChainVerified(result.Database)
		o.logger.Info("цепочка верифицирована",
			"database", result.Database, "steps", len(result.Plan), "target", target.Kind.String())
	} else {
		o.recorder.ChainRejected(result.Database, result.Reject.Code)
		o.logger.Error("цепочка отклонена",
			"database", result.Database, "code", result.Reject.Code, "detail", result.Reject.Detail)
	}

	return Outcome{Result: result}
}

// executeOne выполняет план одной базы шаг за шагом.
// Первый неудавшийся шаг останавливает выполнение этой базы.
func (o *Orchestrator) executeOne(ctx context.Context, req Request, outcome *Outcome) {
	if !outcome.Result.Verified || o.executor == nil {
		return
	}
	database := outcome.Result.Database

	for i, step := range outcome.Result.Plan {
		o.logger.Debug("выполнение шага восстановления",
			"database", database, "step", i, "sql", o.executor.Render(database, step, req.ExecuteOptions))
		if err := o.executor.Execute(ctx, database, step, req.ExecuteOptions); err != nil {
			outcome.StepError = &StepError{Database: database, StepIndex: i, Err: err}
			o.logger.Error("шаг восстановления не выполнен",
				"database", database, "step", i, "error", err)
			return
		}
		outcome.ExecutedSteps++
	}

	o.logger.Info("восстановление выполнено", "database", database, "steps", outcome.ExecutedSteps)
}
