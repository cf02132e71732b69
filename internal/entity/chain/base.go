package chain

import (
	"fmt"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// selectBase выбирает якорную полную копию и, опционально, самую свежую
// совместимую разностную поверх неё.
//
// Отбор полной копии: BackupType=Full, не COPY_ONLY, FinishTime не позже
// временной границы цели (для point-in-time); побеждает наибольший FinishTime,
// при равенстве — наибольший LastLSN, затем лексикографически меньший
// BackupSetID (детерминизм при полностью идентичных метаданных).
//
// Разностная копия совместима, если её DatabaseBackupLSN равен CheckpointLSN
// выбранной полной; выбирается по тем же правилам. Цепочка валидна и без
// разностной копии.
func selectBase(sets []backup.SetDescriptor, target Target) (full *backup.SetDescriptor, diff *backup.SetDescriptor, reject *Reject) {
	bound, bounded := target.timeBound()

	var earliest *backup.SetDescriptor
	for i := range sets {
		s := &sets[i]
		if s.BackupType != backup.TypeFull || s.IsCopyOnly {
			continue
		}
		if earliest == nil || s.FinishTime.Before(earliest.FinishTime) {
			earliest = s
		}
		if bounded && s.FinishTime.After(bound) {
			continue
		}
		if newerBase(s, full) {
			full = s
		}
	}

	if full == nil {
		if earliest != nil && bounded {
			// Полные копии есть, но все позже запрошенной точки.
			return nil, nil, &Reject{
				Code: RejectTargetUnreachable,
				Detail: fmt.Sprintf("самая ранняя полная копия завершена %s — позже запрошенной точки %s",
					earliest.FinishTime.Format("2006-01-02 15:04:05"), bound.Format("2006-01-02 15:04:05")),
			}
		}
		return nil, nil, &Reject{
			Code:   RejectNoUsableFull,
			Detail: "в каталоге нет ни одной подходящей полной копии",
		}
	}

	if target.IgnoreDifferentials {
		return full, nil, nil
	}

	for i := range sets {
		s := &sets[i]
		if s.BackupType != backup.TypeDifferential {
			continue
		}
		if s.DatabaseBackupLSN != full.CheckpointLSN {
			continue
		}
		if bounded && s.FinishTime.After(bound) {
			continue
		}
		if newerBase(s, diff) {
			diff = s
		}
	}

	return full, diff, nil
}

// newerBase сравнивает кандидатов базовой копии по правилу
// (FinishTime desc, LastLSN desc, BackupSetID asc).
func newerBase(candidate, current *backup.SetDescriptor) bool {
	if current == nil {
		return true
	}
	if !candidate.FinishTime.Equal(current.FinishTime) {
		return candidate.FinishTime.After(current.FinishTime)
	}
	if candidate.LastLSN != current.LastLSN {
		return candidate.LastLSN > current.LastLSN
	}
	return candidate.BackupSetID < current.BackupSetID
}
