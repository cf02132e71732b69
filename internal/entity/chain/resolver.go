package chain

import (
	"fmt"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// Resolve разрешает цепочку восстановления для одной базы данных.
//
// Вход: нормализованный каталог (см. backup.Normalize), целевая точка и
// опциональное состояние продолжения. Выход — Result с верифицированным
// планом либо типизированной причиной отказа; функция чистая, без побочных
// эффектов и обращений к серверу.
//
// Поток данных: выбор базы → подбор журналов → валидация → план.
// При continuation базовые копии не выбираются вовсе, а стартовый LSN
// секвенсора — уже применённый на сервере LSN.
func Resolve(catalog []backup.SetDescriptor, target Target, cont *Continuation, opts Options) Result {
	database, reject := resolveDatabase(catalog, target)
	if reject != nil {
		return rejected(target.DatabaseName, reject)
	}
	sets := backup.ForDatabase(catalog, database)

	var (
		full, diff *backup.SetDescriptor
		seq        sequence
	)

	if cont != nil {
		logs, applied, rej := adjustForContinuation(sets, *cont)
		if rej != nil {
			return rejected(database, rej)
		}
		seq, rej = sequenceLogs(logs, applied, time.Time{}, target)
		if rej != nil {
			return rejected(database, rej)
		}
	} else {
		var rej *Reject
		full, diff, rej = selectBase(sets, target)
		if rej != nil {
			return rejected(database, rej)
		}
		start := full.LastLSN
		baseFinish := full.FinishTime
		if diff != nil {
			start = diff.LastLSN
			baseFinish = diff.FinishTime
		}
		seq, rej = sequenceLogs(sets, start, baseFinish, target)
		if rej != nil {
			return rejected(database, rej)
		}
	}

	if rej := validateChain(full, diff, seq, target, opts); rej != nil {
		return rejected(database, rej)
	}

	plan := buildPlan(full, diff, seq, cont, opts)
	return Result{
		Database: database,
		Verified: true,
		Plan:     plan,
	}
}

// resolveDatabase определяет базу данных, к которой относится разрешение.
// Пустое имя в цели допустимо только для каталога с единственной базой.
func resolveDatabase(catalog []backup.SetDescriptor, target Target) (string, *Reject) {
	if target.DatabaseName != "" {
		return target.DatabaseName, nil
	}
	names := backup.Databases(catalog)
	switch len(names) {
	case 0:
		return "", &Reject{
			Code:   RejectNoUsableFull,
			Detail: "каталог пуст",
		}
	case 1:
		return names[0], nil
	default:
		return "", &Reject{
			Code:   RejectAmbiguousMultiDatabase,
			Detail: fmt.Sprintf("каталог содержит %d баз данных, а цель не называет ни одну", len(names)),
		}
	}
}

// buildPlan превращает верифицированную цепочку в упорядоченный список шагов.
//
// Все шаги выполняются с NORECOVERY, кроме последнего, чей режим задаёт
// вызывающая сторона. Продолжение из standby получает ведущий шаг перевода
// базы из read-only (смена режима, не накат данных); продолжение, в котором
// все журналы уже применены, сводится к единственному шагу завершения.
// Ссылки STOPAT/STOPBEFOREMARK привязываются к последнему журнальному шагу.
func buildPlan(full, diff *backup.SetDescriptor, seq sequence, cont *Continuation, opts Options) []Step {
	var steps []Step

	if cont != nil && cont.Mode == StateStandby {
		steps = append(steps, Step{
			Recovery:   RecoveryNoRecovery,
			Transition: true,
		})
	}

	if full != nil {
		steps = append(steps, Step{Set: full, Recovery: RecoveryNoRecovery})
	}
	if diff != nil {
		steps = append(steps, Step{Set: diff, Recovery: RecoveryNoRecovery})
	}
	for _, l := range seq.logs {
		steps = append(steps, Step{Set: l, Recovery: RecoveryNoRecovery})
	}

	if len(steps) == 0 {
		if opts.Finish == RecoveryNoRecovery {
			return steps
		}
		// Все журналы уже применены предыдущим запуском: данных цепочка
		// не добавляет, но запрошенный режим завершения должен быть
		// выражен, иначе база останется в RESTORING.
		steps = append(steps, Step{Transition: true})
	}

	last := &steps[len(steps)-1]
	last.Recovery = opts.Finish
	if opts.Finish == RecoveryStandby {
		last.StandbyPath = opts.StandbyPath
	}
	if last.Set != nil && last.Set.BackupType == backup.TypeLog {
		last.StopAt = seq.stopAt
		last.StopMark = seq.stopMark
	}

	return steps
}

// ResolveBatch разрешает цепочки для нескольких целей над общим каталогом.
//
// Каждая цель разрешается независимо: отказ одной базы не мешает остальным
// (частичный успех — штатный исход). Результаты возвращаются в порядке целей.
// continuations — состояние незавершённых восстановлений по именам баз;
// отсутствие записи означает восстановление с нуля.
func ResolveBatch(catalog []backup.SetDescriptor, targets []Target, continuations map[string]*Continuation, opts Options) []Result {
	results := make([]Result, len(targets))
	for i, target := range targets {
		results[i] = Resolve(catalog, target, continuations[target.DatabaseName], opts)
	}
	return results
}

// rejected собирает неуспешный Result.
func rejected(database string, rej *Reject) Result {
	return Result{
		Database: database,
		Verified: false,
		Reject:   rej,
	}
}
