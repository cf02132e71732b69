package chain

import (
	"fmt"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// adjustForContinuation урезает каталог для продолжения ранее начатого
// восстановления.
//
// Продолжение никогда не перенакатывает базовые копии: все Full/Differential
// кандидаты отбрасываются целиком, эффективный стартовый LSN секвенсора —
// AlreadyAppliedLastLSN с сервера, а журналы с LastLSN <= X уже применены
// и исключаются. Первый оставшийся журнал обязан стыковаться:
// FirstLSN <= X+1, иначе продолжение невозможно.
func adjustForContinuation(sets []backup.SetDescriptor, cont Continuation) ([]backup.SetDescriptor, backup.LSN, *Reject) {
	applied := cont.AlreadyAppliedLastLSN

	logs := make([]backup.SetDescriptor, 0, len(sets))
	for i := range sets {
		s := sets[i]
		if s.BackupType != backup.TypeLog {
			continue
		}
		if s.LastLSN <= applied {
			continue // уже применён
		}
		logs = append(logs, s)
	}

	// Стыковку первого журнала проверяем здесь, чтобы отличить разрыв
	// продолжения (CONTINUATION_GAP) от разрыва внутри цепочки (GAP).
	var first *backup.SetDescriptor
	for i := range logs {
		if first == nil || logs[i].FirstLSN < first.FirstLSN {
			first = &logs[i]
		}
	}
	if first != nil && first.FirstLSN > applied+1 {
		return nil, 0, &Reject{
			Code:   RejectContinuationGap,
			AtLSN:  applied,
			Detail: fmt.Sprintf("первый доступный журнал начинается с LSN %d и не стыкуется с уже применённым LSN %d", first.FirstLSN, applied),
		}
	}

	return logs, applied, nil
}
