package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// at возвращает момент времени в день тестового сценария.
func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 17, hour, minute, 0, 0, time.UTC)
}

func fullSet(id string, first, last, ckpt backup.LSN, finish time.Time) backup.SetDescriptor {
	return backup.SetDescriptor{
		DatabaseName:  "shop",
		BackupSetID:   id,
		BackupType:    backup.TypeFull,
		FirstLSN:      first,
		LastLSN:       last,
		CheckpointLSN: ckpt,
		StartTime:     finish.Add(-5 * time.Minute),
		FinishTime:    finish,
		Files:         []backup.FileRef{{Path: `D:\bak\` + id + `.bak`, FamilySequence: 1, FamilyCount: 1}},
	}
}

func diffSet(id string, first, last, baseCkpt backup.LSN, finish time.Time) backup.SetDescriptor {
	s := fullSet(id, first, last, 0, finish)
	s.BackupType = backup.TypeDifferential
	s.DatabaseBackupLSN = baseCkpt
	return s
}

func logSet(id string, first, last backup.LSN, start, finish time.Time) backup.SetDescriptor {
	return backup.SetDescriptor{
		DatabaseName: "shop",
		BackupSetID:  id,
		BackupType:   backup.TypeLog,
		FirstLSN:     first,
		LastLSN:      last,
		StartTime:    start,
		FinishTime:   finish,
		Files:        []backup.FileRef{{Path: `D:\bak\` + id + `.trn`, FamilySequence: 1, FamilyCount: 1}},
	}
}

// Сценарный каталог: Full 100-200 (08:00), журналы 200-210 (08:05),
// 210-230 (08:15), 230-250 (08:30).
func scenarioCatalog() []backup.SetDescriptor {
	return []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		logSet("log1", 200, 210, at(8, 4), at(8, 5)),
		logSet("log2", 210, 230, at(8, 14), at(8, 15)),
		logSet("log3", 230, 250, at(8, 30), at(8, 30)),
	}
}

func planIDs(t *testing.T, res Result) []string {
	t.Helper()
	require.True(t, res.Verified, "expected verified chain, got reject: %+v", res.Reject)
	ids := make([]string, 0, len(res.Plan))
	for _, step := range res.Plan {
		if step.Set != nil {
			ids = append(ids, step.Set.BackupSetID)
		} else {
			ids = append(ids, "<transition>")
		}
	}
	return ids
}

func TestResolve_PointInTime(t *testing.T) {
	target := Target{DatabaseName: "shop", Kind: TargetPointInTime, PointInTime: at(8, 20)}
	res := Resolve(scenarioCatalog(), target, nil, Options{Finish: RecoveryRecover})

	// Журнал 08:30 целиком позже цели и в план не входит.
	assert.Equal(t, []string{"full", "log1", "log2"}, planIDs(t, res))
	for _, step := range res.Plan[:len(res.Plan)-1] {
		assert.Equal(t, RecoveryNoRecovery, step.Recovery)
	}
	last := res.Plan[len(res.Plan)-1]
	assert.Equal(t, RecoveryRecover, last.Recovery)
	assert.Nil(t, last.StopAt)
	assert.Nil(t, last.StopMark)
}

func TestResolve_PointInTimeInsideLog(t *testing.T) {
	// Последний журнал перекрывает целевую точку: он включается со STOPAT.
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		logSet("log1", 200, 210, at(8, 4), at(8, 5)),
		logSet("log2", 210, 230, at(8, 10), at(8, 25)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetPointInTime, PointInTime: at(8, 20)}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full", "log1", "log2"}, planIDs(t, res))
	last := res.Plan[len(res.Plan)-1]
	require.NotNil(t, last.StopAt)
	assert.Equal(t, at(8, 20), *last.StopAt)
}

func TestResolve_Latest(t *testing.T) {
	target := Target{DatabaseName: "shop", Kind: TargetLatest}
	res := Resolve(scenarioCatalog(), target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full", "log1", "log2", "log3"}, planIDs(t, res))
	assert.Equal(t, RecoveryRecover, res.Plan[len(res.Plan)-1].Recovery)
}

func TestResolve_ChainGap(t *testing.T) {
	catalog := scenarioCatalog()
	// Удаляем журнал 210-230: цепочка рвётся на LSN 210.
	catalog = append(catalog[:2], catalog[3])

	for _, target := range []Target{
		{DatabaseName: "shop", Kind: TargetPointInTime, PointInTime: at(8, 20)},
		{DatabaseName: "shop", Kind: TargetLatest},
	} {
		res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})
		assert.False(t, res.Verified)
		require.NotNil(t, res.Reject)
		assert.Equal(t, RejectChainGap, res.Reject.Code)
		assert.Equal(t, backup.LSN(210), res.Reject.AtLSN)
		assert.Empty(t, res.Plan)
	}
}

func TestResolve_PointInTimeBeyondChain(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		logSet("log1", 200, 210, at(8, 4), at(8, 5)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetPointInTime, PointInTime: at(9, 0)}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectChainGap, res.Reject.Code)
	assert.Equal(t, backup.LSN(210), res.Reject.AtLSN)
}

func TestResolve_Deterministic(t *testing.T) {
	target := Target{DatabaseName: "shop", Kind: TargetLatest}
	opts := Options{Finish: RecoveryRecover}

	first := Resolve(scenarioCatalog(), target, nil, opts)
	second := Resolve(scenarioCatalog(), target, nil, opts)
	assert.Equal(t, first, second)
}

func TestResolve_WithDifferential(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		diffSet("diff", 180, 260, 150, at(9, 0)),
		logSet("log1", 200, 210, at(8, 4), at(8, 5)),
		logSet("log4", 260, 300, at(9, 30), at(9, 30)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetLatest}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	// Разностная копия поглощает журналы до своего LastLSN: log1 избыточен.
	assert.Equal(t, []string{"full", "diff", "log4"}, planIDs(t, res))
}

func TestResolve_IncompatibleDifferentialSkipped(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		// Снята относительно другой полной копии (base checkpoint 999).
		diffSet("diff-alien", 180, 260, 999, at(9, 0)),
		logSet("log1", 200, 210, at(8, 4), at(8, 5)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetLatest}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full", "log1"}, planIDs(t, res))
}

func TestResolve_IgnoreDifferentials(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		diffSet("diff", 180, 260, 150, at(9, 0)),
		logSet("log1", 200, 210, at(8, 4), at(8, 5)),
		logSet("log2", 210, 230, at(8, 14), at(8, 15)),
		logSet("log4", 230, 300, at(9, 30), at(9, 30)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetLatest, IgnoreDifferentials: true}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full", "log1", "log2", "log4"}, planIDs(t, res))
}

func TestResolve_IgnoreLogs(t *testing.T) {
	target := Target{DatabaseName: "shop", Kind: TargetLatest, IgnoreLogs: true}
	res := Resolve(scenarioCatalog(), target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full"}, planIDs(t, res))
	assert.Equal(t, RecoveryRecover, res.Plan[0].Recovery)
}

func TestResolve_CopyOnlyFullExcluded(t *testing.T) {
	co := fullSet("full-co", 100, 200, 150, at(8, 0))
	co.IsCopyOnly = true
	target := Target{DatabaseName: "shop", Kind: TargetLatest}

	res := Resolve([]backup.SetDescriptor{co}, target, nil, Options{Finish: RecoveryRecover})
	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectNoUsableFull, res.Reject.Code)
}

func TestResolve_TargetUnreachable(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(10, 0)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetPointInTime, PointInTime: at(8, 20)}

	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})
	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectTargetUnreachable, res.Reject.Code)
}

func TestResolve_NewestFullWins(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full-old", 100, 200, 150, at(6, 0)),
		fullSet("full-new", 300, 400, 350, at(7, 0)),
		logSet("log", 400, 450, at(7, 30), at(7, 30)),
	}
	target := Target{DatabaseName: "shop", Kind: TargetLatest}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full-new", "log"}, planIDs(t, res))
}

func TestResolve_AmbiguousMultiDatabase(t *testing.T) {
	other := fullSet("crm-full", 100, 200, 150, at(8, 0))
	other.DatabaseName = "crm"
	catalog := append(scenarioCatalog(), other)

	res := Resolve(catalog, Target{Kind: TargetLatest}, nil, Options{Finish: RecoveryRecover})
	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectAmbiguousMultiDatabase, res.Reject.Code)
}

func TestResolve_SingleDatabaseWithoutName(t *testing.T) {
	res := Resolve(scenarioCatalog(), Target{Kind: TargetLatest}, nil, Options{Finish: RecoveryRecover})
	require.True(t, res.Verified)
	assert.Equal(t, "shop", res.Database)
}

func TestResolve_DuplicateSet(t *testing.T) {
	dup := logSet("full", 200, 210, at(8, 4), at(8, 5)) // тот же BackupSetID, что у полной
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		dup,
	}
	res := Resolve(catalog, Target{DatabaseName: "shop", Kind: TargetLatest}, nil, Options{Finish: RecoveryRecover})

	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectDuplicateSet, res.Reject.Code)
}

func TestResolve_FileMissing(t *testing.T) {
	opts := Options{
		Finish: RecoveryRecover,
		FileExists: func(f backup.FileRef) bool {
			return f.Path != `D:\bak\log2.trn`
		},
	}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, nil, opts)

	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectFileMissing, res.Reject.Code)
}

func TestResolve_StandbyFinish(t *testing.T) {
	opts := Options{Finish: RecoveryStandby, StandbyPath: `D:\bak\undo.dat`}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, nil, opts)

	require.True(t, res.Verified)
	last := res.Plan[len(res.Plan)-1]
	assert.Equal(t, RecoveryStandby, last.Recovery)
	assert.Equal(t, `D:\bak\undo.dat`, last.StandbyPath)
}

func TestResolve_Continuation(t *testing.T) {
	cont := &Continuation{AlreadyAppliedLastLSN: 230, Mode: StateRestoring}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, cont, Options{Finish: RecoveryRecover})

	// Базовые копии не перенакатываются, уже применённые журналы исключены.
	assert.Equal(t, []string{"log3"}, planIDs(t, res))
	for _, step := range res.Plan {
		if step.Set != nil {
			assert.NotEqual(t, backup.TypeFull, step.Set.BackupType)
			assert.NotEqual(t, backup.TypeDifferential, step.Set.BackupType)
			assert.Greater(t, uint64(step.Set.LastLSN), uint64(230))
		}
	}
}

func TestResolve_ContinuationFromStandby(t *testing.T) {
	cont := &Continuation{AlreadyAppliedLastLSN: 230, Mode: StateStandby}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, cont, Options{Finish: RecoveryRecover})

	ids := planIDs(t, res)
	require.Equal(t, []string{"<transition>", "log3"}, ids)
	assert.True(t, res.Plan[0].Transition)
	assert.Nil(t, res.Plan[0].Set)
}

func TestResolve_ContinuationAllApplied(t *testing.T) {
	// Все журналы каталога уже применены: цепочка не добавляет данных,
	// но запрошенное завершение выражается отдельным шагом смены режима.
	cont := &Continuation{AlreadyAppliedLastLSN: 250, Mode: StateRestoring}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, cont, Options{Finish: RecoveryRecover})

	require.Equal(t, []string{"<transition>"}, planIDs(t, res))
	assert.True(t, res.Plan[0].Transition)
	assert.Equal(t, RecoveryRecover, res.Plan[0].Recovery)
}

func TestResolve_ContinuationAllAppliedStandbyFinish(t *testing.T) {
	cont := &Continuation{AlreadyAppliedLastLSN: 250, Mode: StateRestoring}
	opts := Options{Finish: RecoveryStandby, StandbyPath: `D:\bak\undo.dat`}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, cont, opts)

	require.Equal(t, []string{"<transition>"}, planIDs(t, res))
	assert.Equal(t, RecoveryStandby, res.Plan[0].Recovery)
	assert.Equal(t, `D:\bak\undo.dat`, res.Plan[0].StandbyPath)
}

func TestResolve_ContinuationAllAppliedFromStandby(t *testing.T) {
	// Из standby при полностью применённых журналах остаётся единственный
	// шаг, и он несёт режим завершения вызывающей стороны, а не NORECOVERY.
	cont := &Continuation{AlreadyAppliedLastLSN: 250, Mode: StateStandby}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, cont, Options{Finish: RecoveryRecover})

	require.Equal(t, []string{"<transition>"}, planIDs(t, res))
	assert.Equal(t, RecoveryRecover, res.Plan[0].Recovery)
}

func TestResolve_ContinuationAllAppliedNoRecoveryFinish(t *testing.T) {
	// При Finish=NORECOVERY завершать нечего: пустой план корректен.
	cont := &Continuation{AlreadyAppliedLastLSN: 250, Mode: StateRestoring}
	res := Resolve(scenarioCatalog(), Target{DatabaseName: "shop", Kind: TargetLatest}, cont, Options{Finish: RecoveryNoRecovery})

	require.True(t, res.Verified)
	assert.Empty(t, res.Plan)
}

func TestResolve_ContinuationGap(t *testing.T) {
	catalog := []backup.SetDescriptor{
		fullSet("full", 100, 200, 150, at(8, 0)),
		logSet("log3", 230, 250, at(8, 30), at(8, 30)),
	}
	cont := &Continuation{AlreadyAppliedLastLSN: 210, Mode: StateRestoring}
	res := Resolve(catalog, Target{DatabaseName: "shop", Kind: TargetLatest}, cont, Options{Finish: RecoveryRecover})

	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectContinuationGap, res.Reject.Code)
	assert.Equal(t, backup.LSN(210), res.Reject.AtLSN)
}

func TestResolve_Mark(t *testing.T) {
	catalog := scenarioCatalog()
	catalog[2].Marks = []backup.Mark{{Name: "before_migration", LSN: 220, Time: at(8, 12)}}

	target := Target{DatabaseName: "shop", Kind: TargetMark, MarkName: "before_migration"}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full", "log1", "log2"}, planIDs(t, res))
	last := res.Plan[len(res.Plan)-1]
	require.NotNil(t, last.StopMark)
	assert.Equal(t, "before_migration", last.StopMark.Name)
	assert.Equal(t, backup.LSN(220), last.StopMark.LSN)
	assert.False(t, last.StopMark.StopBefore)
}

func TestResolve_MarkBefore(t *testing.T) {
	catalog := scenarioCatalog()
	catalog[2].Marks = []backup.Mark{{Name: "before_migration", LSN: 220, Time: at(8, 12)}}

	target := Target{DatabaseName: "shop", Kind: TargetMark, MarkName: "before_migration", StopBefore: true}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	last := res.Plan[len(res.Plan)-1]
	require.NotNil(t, last.StopMark)
	assert.True(t, last.StopMark.StopBefore)
}

func TestResolve_MarkAfterFilter(t *testing.T) {
	catalog := scenarioCatalog()
	catalog[1].Marks = []backup.Mark{{Name: "deploy", LSN: 205, Time: at(8, 3)}}
	catalog[3].Marks = []backup.Mark{{Name: "deploy", LSN: 240, Time: at(8, 28)}}

	// Нижняя граница отсекает раннюю метку: побеждает метка в log3.
	target := Target{DatabaseName: "shop", Kind: TargetMark, MarkName: "deploy", MarkAfter: at(8, 10)}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	assert.Equal(t, []string{"full", "log1", "log2", "log3"}, planIDs(t, res))
	last := res.Plan[len(res.Plan)-1]
	require.NotNil(t, last.StopMark)
	assert.Equal(t, backup.LSN(240), last.StopMark.LSN)
}

func TestResolve_MarkAmbiguous(t *testing.T) {
	catalog := scenarioCatalog()
	catalog[2].Marks = []backup.Mark{
		{Name: "deploy", LSN: 215, Time: at(8, 11)},
		{Name: "deploy", LSN: 225, Time: at(8, 13)},
	}

	target := Target{DatabaseName: "shop", Kind: TargetMark, MarkName: "deploy"}
	res := Resolve(catalog, target, nil, Options{Finish: RecoveryRecover})

	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectMarkNotFound, res.Reject.Code)
	assert.Contains(t, res.Reject.Detail, "более одного раза")
}

func TestResolve_MarkNotFound(t *testing.T) {
	target := Target{DatabaseName: "shop", Kind: TargetMark, MarkName: "nonexistent"}
	res := Resolve(scenarioCatalog(), target, nil, Options{Finish: RecoveryRecover})

	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectMarkNotFound, res.Reject.Code)
}

func TestResolve_EmptyCatalog(t *testing.T) {
	res := Resolve(nil, Target{Kind: TargetLatest}, nil, Options{Finish: RecoveryRecover})
	require.NotNil(t, res.Reject)
	assert.Equal(t, RejectNoUsableFull, res.Reject.Code)
}
