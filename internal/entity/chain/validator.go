package chain

import (
	"fmt"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// validateChain повторно проходит собранную цепочку (full?, diff?, logs...)
// из конца в конец и доказывает её пригодность:
//   - строго неубывающее LSN-покрытие без разрывов за пределами общих границ;
//   - ни один BackupSetID не используется дважды;
//   - совместимость разностной копии с якорной полной;
//   - все файлы цепочки всё ещё доступны (защита от удаления между
//     сканированием и использованием);
//   - финальный LSN достигает требования цели, установленного секвенсором.
//
// Функция чистая и однопоточная: при одинаковых входах результат идентичен.
func validateChain(full, diff *backup.SetDescriptor, seq sequence, target Target, opts Options) *Reject {
	seen := make(map[string]bool)
	ordered := make([]*backup.SetDescriptor, 0, len(seq.logs)+2)
	if full != nil {
		ordered = append(ordered, full)
	}
	if diff != nil {
		ordered = append(ordered, diff)
	}
	ordered = append(ordered, seq.logs...)

	for _, s := range ordered {
		if seen[s.BackupSetID] {
			return &Reject{
				Code:   RejectDuplicateSet,
				Detail: fmt.Sprintf("backup set %s используется в цепочке дважды", s.BackupSetID),
			}
		}
		seen[s.BackupSetID] = true

		if opts.FileExists != nil {
			for _, f := range s.Files {
				if !opts.FileExists(f) {
					return &Reject{
						Code:   RejectFileMissing,
						Detail: fmt.Sprintf("файл %s набора %s недоступен", f.Path, s.BackupSetID),
					}
				}
			}
		}
	}

	if diff != nil && full != nil && diff.DatabaseBackupLSN != full.CheckpointLSN {
		return &Reject{
			Code:   RejectChainGap,
			AtLSN:  full.CheckpointLSN,
			Detail: fmt.Sprintf("разностная копия снята относительно LSN %d, а не checkpoint LSN %d полной копии", diff.DatabaseBackupLSN, full.CheckpointLSN),
		}
	}

	// Непрерывность журнальной части: каждый следующий журнал стыкуется
	// с достигнутым LSN и продвигает его.
	cur := chainStartLSN(full, diff, seq)
	for _, l := range seq.logs {
		if l.FirstLSN > cur+1 {
			return &Reject{
				Code:   RejectChainGap,
				AtLSN:  cur,
				Detail: fmt.Sprintf("разрыв между LSN %d и журналом, начинающимся с %d", cur, l.FirstLSN),
			}
		}
		if l.LastLSN <= cur {
			return &Reject{
				Code:   RejectChainGap,
				AtLSN:  cur,
				Detail: fmt.Sprintf("журнал %s не продвигает цепочку за LSN %d", l.BackupSetID, cur),
			}
		}
		cur = l.LastLSN
	}

	// Требование цели, установленное секвенсором.
	switch target.Kind {
	case TargetPointInTime:
		// Инвариант секвенсора: последний журнал либо завершён до цели,
		// либо перекрывает её и несёт STOPAT.
		if n := len(seq.logs); n > 0 {
			last := seq.logs[n-1]
			if !last.FinishTime.Before(target.PointInTime) && seq.stopAt == nil {
				return &Reject{
					Code:   RejectChainGap,
					AtLSN:  cur,
					Detail: "последний журнал выходит за целевую точку без STOPAT",
				}
			}
		}
	case TargetMark:
		if seq.stopMark == nil {
			return &Reject{
				Code:   RejectMarkNotFound,
				Detail: fmt.Sprintf("цепочка не содержит метку %q", target.MarkName),
			}
		}
	}

	return nil
}

// chainStartLSN возвращает LSN, с которого начинается журнальная часть цепочки.
func chainStartLSN(full, diff *backup.SetDescriptor, seq sequence) backup.LSN {
	if diff != nil {
		return diff.LastLSN
	}
	if full != nil {
		return full.LastLSN
	}
	// Продолжение без базы: секвенсор стартовал с уже применённого LSN,
	// стыковка первого журнала проверена в adjustForContinuation.
	if len(seq.logs) > 0 {
		first := seq.logs[0].FirstLSN
		if first == 0 {
			return 0
		}
		return first - 1
	}
	return seq.finalLSN
}
