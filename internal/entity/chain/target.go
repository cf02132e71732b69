// Package chain реализует разрешение цепочки восстановления MS SQL Server:
// выбор базовой полной/разностной копии, подбор непрерывной последовательности
// журнальных копий до целевой точки, проверку LSN-непрерывности и построение
// упорядоченного плана восстановления.
//
// Вся логика пакета чистая и однопоточная: одинаковые входы всегда дают
// одинаковый результат, что делает планирование восстановления аудируемым
// и тестируемым.
package chain

import (
	"fmt"
	"strings"
	"time"
)

// TargetKind определяет вид целевой точки восстановления.
type TargetKind int

const (
	// TargetLatest — восстановление до конца последней доступной журнальной копии.
	TargetLatest TargetKind = iota
	// TargetPointInTime — восстановление на произвольный момент времени (STOPAT).
	TargetPointInTime
	// TargetMark — восстановление до именованной метки транзакции
	// (STOPATMARK / STOPBEFOREMARK).
	TargetMark
)

// String возвращает строковое представление вида целевой точки.
func (k TargetKind) String() string {
	switch k {
	case TargetPointInTime:
		return "point-in-time"
	case TargetMark:
		return "mark"
	default:
		return "latest"
	}
}

// Target описывает цель восстановления, заданную вызывающей стороной.
// Строковые спецификации («до метки», «до момента») разбираются один раз
// на границе (ParseTarget) и внутри секвенсора не переинтерпретируются.
type Target struct {
	// DatabaseName — имя базы данных; пустое допустимо только для каталога
	// с единственной базой
	DatabaseName string

	// Kind — вид целевой точки
	Kind TargetKind
	// PointInTime — момент восстановления (для TargetPointInTime)
	PointInTime time.Time
	// MarkName — имя метки транзакции (для TargetMark)
	MarkName string
	// StopBefore — исключить саму помеченную транзакцию (STOPBEFOREMARK)
	StopBefore bool
	// MarkAfter — метка учитывается только если её время строго позже этой даты
	MarkAfter time.Time

	// IgnoreDifferentials — не использовать разностные копии даже при наличии
	IgnoreDifferentials bool
	// IgnoreLogs — не использовать журнальные копии; цель — конец базовой копии
	IgnoreLogs bool
}

// Код ошибки разбора целевой спецификации.
const ErrTargetParse = "CHAIN.TARGET_PARSE_FAILED"

// ParseTarget разбирает строковую спецификацию цели в типизированный Target.
//
// Поддерживаемые формы spec-строки:
//   - "" или "latest"                — до конца доступных журналов;
//   - "2024-05-17T13:45:00"          — point-in-time (RFC3339 без зоны, локальное время);
//   - "mark:ИмяМетки"                — до метки включительно;
//   - "mark-before:ИмяМетки"        — до метки, исключая помеченную транзакцию.
//
// markAfter ограничивает поиск метки снизу по времени (нулевое значение — без ограничения).
func ParseTarget(database, spec string, markAfter time.Time) (Target, error) {
	t := Target{DatabaseName: database, Kind: TargetLatest}

	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || strings.EqualFold(spec, "latest"):
		return t, nil

	case strings.HasPrefix(spec, "mark-before:"):
		name := strings.TrimPrefix(spec, "mark-before:")
		if name == "" {
			return Target{}, fmt.Errorf("%s: пустое имя метки в %q", ErrTargetParse, spec)
		}
		t.Kind = TargetMark
		t.MarkName = name
		t.StopBefore = true
		t.MarkAfter = markAfter
		return t, nil

	case strings.HasPrefix(spec, "mark:"):
		name := strings.TrimPrefix(spec, "mark:")
		if name == "" {
			return Target{}, fmt.Errorf("%s: пустое имя метки в %q", ErrTargetParse, spec)
		}
		t.Kind = TargetMark
		t.MarkName = name
		t.MarkAfter = markAfter
		return t, nil

	default:
		// Точка во времени. Принимаем RFC3339 и SQL-совместимый формат без зоны.
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, spec); err == nil {
				t.Kind = TargetPointInTime
				t.PointInTime = ts
				return t, nil
			}
		}
		return Target{}, fmt.Errorf("%s: не удалось разобрать целевую точку %q", ErrTargetParse, spec)
	}
}

// timeBound возвращает верхнюю временную границу отбора базовых копий
// и признак её наличия. Для Latest и Mark отбор по времени не ограничен.
func (t Target) timeBound() (time.Time, bool) {
	if t.Kind == TargetPointInTime {
		return t.PointInTime, true
	}
	return time.Time{}, false
}
