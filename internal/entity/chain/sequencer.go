package chain

import (
	"fmt"
	"sort"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// sequence — результат подбора журнальной последовательности.
type sequence struct {
	// logs — принятые журнальные копии в порядке наката
	logs []*backup.SetDescriptor
	// finalLSN — LSN, достигнутый концом последовательности
	finalLSN backup.LSN
	// stopAt — момент STOPAT для последнего шага (point-in-time цель,
	// когда последний журнал перекрывает целевую точку)
	stopAt *time.Time
	// stopMark — ссылка на метку для последнего шага (цель-метка)
	stopMark *MarkReference
}

// sequenceLogs подбирает упорядоченную непрерывную последовательность журнальных
// копий от startLSN до целевой точки.
//
// Правила принятия журнала L при текущем LSN cur:
//   - L.LastLSN <= cur  — журнал избыточен (уже покрыт), пропускается без ошибки;
//   - L.FirstLSN > cur+1 — разрыв; поскольку кандидаты отсортированы по FirstLSN,
//     разрыв не может быть закрыт последующими журналами — цепочка отклоняется
//     с RejectChainGap, а не «тихо» укорачивается;
//   - иначе журнал принимается и cur = L.LastLSN.
//
// Остановка: Latest потребляет все пригодные журналы; point-in-time
// принимает журналы, завершённые до целевой точки t, и завершается на первом
// журнале, чей диапазон перекрывает t (он включается с STOPAT) либо который
// целиком позже t (он исключается, цепочка останавливается на предыдущем);
// цель-метка сканирует принятые журналы до первого, содержащего подходящую
// метку. baseFinish — время завершения базовой копии (нулевое для continuation).
func sequenceLogs(sets []backup.SetDescriptor, startLSN backup.LSN, baseFinish time.Time, target Target) (sequence, *Reject) {
	seq := sequence{finalLSN: startLSN}

	if target.IgnoreLogs {
		// Цель — конец базовой копии; журналы не подбираются.
		return seq, nil
	}

	// Точка во времени может быть достигнута самой базовой копией.
	if target.Kind == TargetPointInTime && !baseFinish.IsZero() && !baseFinish.Before(target.PointInTime) {
		return seq, nil
	}

	candidates := make([]*backup.SetDescriptor, 0, len(sets))
	for i := range sets {
		if sets[i].BackupType == backup.TypeLog {
			candidates = append(candidates, &sets[i])
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FirstLSN != b.FirstLSN {
			return a.FirstLSN < b.FirstLSN
		}
		if a.LastLSN != b.LastLSN {
			return a.LastLSN > b.LastLSN
		}
		return a.BackupSetID < b.BackupSetID
	})

	cur := startLSN
	for _, l := range candidates {
		if l.LastLSN <= cur {
			continue // избыточный журнал, уже покрыт
		}
		// Разрыв проверяется до временного отсечения: отсутствующий журнал —
		// это отказ, даже если следующий доступный лежит целиком позже цели.
		if l.FirstLSN > cur+1 {
			return sequence{}, &Reject{
				Code:   RejectChainGap,
				AtLSN:  cur,
				Detail: fmt.Sprintf("отсутствует журнал, начинающийся не позже LSN %d (следующий доступный стартует с %d)", cur+1, l.FirstLSN),
			}
		}

		if target.Kind == TargetPointInTime && !l.FinishTime.Before(target.PointInTime) {
			// Журнал заканчивается не раньше цели. Если его диапазон
			// перекрывает цель — он становится терминальным шагом со STOPAT,
			// иначе целиком позже цели и исключается.
			if !l.StartTime.IsZero() && l.StartTime.Before(target.PointInTime) {
				seq.logs = append(seq.logs, l)
				cur = l.LastLSN
				seq.finalLSN = cur
				stopAt := target.PointInTime
				seq.stopAt = &stopAt
			}
			return seq, nil
		}

		seq.logs = append(seq.logs, l)
		cur = l.LastLSN
		seq.finalLSN = cur

		switch target.Kind {
		case TargetMark:
			mark, ambiguous := findMark(l, target)
			if ambiguous {
				return sequence{}, &Reject{
					Code:   RejectMarkNotFound,
					Detail: fmt.Sprintf("метка %q встречается в журнале %s более одного раза после %s — требуется уточнение даты", target.MarkName, l.BackupSetID, target.MarkAfter.Format("2006-01-02 15:04:05")),
				}
			}
			if mark != nil {
				seq.stopMark = &MarkReference{
					Name:       mark.Name,
					LSN:        mark.LSN,
					StopBefore: target.StopBefore,
				}
				return seq, nil
			}
		}
	}

	// Кандидаты исчерпаны. Для Latest это штатное завершение,
	// для остальных целей — недостижимость.
	switch target.Kind {
	case TargetLatest:
		return seq, nil
	case TargetPointInTime:
		return sequence{}, &Reject{
			Code:   RejectChainGap,
			AtLSN:  cur,
			Detail: fmt.Sprintf("журнальная цепочка заканчивается на LSN %d раньше целевой точки %s", cur, target.PointInTime.Format("2006-01-02 15:04:05")),
		}
	default:
		return sequence{}, &Reject{
			Code:   RejectMarkNotFound,
			Detail: fmt.Sprintf("метка %q не найдена ни в одном доступном журнале", target.MarkName),
		}
	}
}

// findMark ищет в журнале первую подходящую метку цели.
// Возвращает ambiguous=true, если подходящих меток с одним именем несколько:
// семантика «какая из одноимённых меток» в этом случае не определена,
// и молча угадывать резолвер не имеет права.
func findMark(l *backup.SetDescriptor, target Target) (found *backup.Mark, ambiguous bool) {
	for i := range l.Marks {
		m := &l.Marks[i]
		if m.Name != target.MarkName {
			continue
		}
		if !target.MarkAfter.IsZero() && !m.Time.After(target.MarkAfter) {
			continue
		}
		if found != nil {
			return nil, true
		}
		found = m
	}
	return found, false
}
