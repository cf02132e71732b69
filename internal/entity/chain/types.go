package chain

import (
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
)

// RecoveryMode определяет режим завершения шага восстановления.
type RecoveryMode int

const (
	// RecoveryNoRecovery — база остаётся в состоянии Restoring, ожидая следующих шагов.
	RecoveryNoRecovery RecoveryMode = iota
	// RecoveryRecover — база переводится в рабочее состояние (финальный шаг).
	RecoveryRecover
	// RecoveryStandby — база доступна на чтение между шагами (STANDBY с undo-файлом).
	RecoveryStandby
)

// String возвращает строковое представление режима восстановления.
func (m RecoveryMode) String() string {
	switch m {
	case RecoveryRecover:
		return "RECOVERY"
	case RecoveryStandby:
		return "STANDBY"
	default:
		return "NORECOVERY"
	}
}

// RestoreState описывает состояние базы на целевом сервере для продолжения
// ранее начатого восстановления.
type RestoreState int

const (
	// StateRestoring — база в состоянии RESTORING (NORECOVERY).
	StateRestoring RestoreState = iota
	// StateStandby — база в read-only standby; перед наложением новых журналов
	// требуется шаг перевода из standby.
	StateStandby
)

// Continuation — опциональное состояние уже начатого восстановления.
// Поставляется внешним инспектором сервера, используется только на чтение;
// никакие неявные кэши «уже применённого» в пакете не хранятся.
type Continuation struct {
	// AlreadyAppliedLastLSN — последний LSN, применённый к базе на сервере
	AlreadyAppliedLastLSN backup.LSN
	// Mode — текущее состояние базы (Restoring/Standby)
	Mode RestoreState
}

// MarkReference — ссылка на метку транзакции в финальном шаге плана.
// Исполнитель кодирует её в STOPATMARK/STOPBEFOREMARK.
type MarkReference struct {
	// Name — имя метки
	Name string
	// LSN — позиция метки в журнале
	LSN backup.LSN
	// StopBefore — исключить помеченную транзакцию
	StopBefore bool
}

// Step — один упорядоченный шаг плана восстановления.
type Step struct {
	// Set — восстанавливаемый backup set; nil только для шага смены
	// режима (Transition)
	Set *backup.SetDescriptor

	// Recovery — режим завершения шага; Recover/Standby допустимы
	// только на последнем шаге
	Recovery RecoveryMode
	// StandbyPath — путь к undo-файлу для RecoveryStandby
	StandbyPath string

	// StopAt — момент STOPAT для последнего журнального шага point-in-time цели
	StopAt *time.Time
	// StopMark — ссылка на метку для последнего шага цели-метки
	StopMark *MarkReference

	// Transition — шаг не накатывает данные, а меняет режим базы:
	// с NORECOVERY выводит её из read-only standby обратно в Restoring,
	// с RECOVERY/STANDBY завершает восстановление, когда все журналы
	// цепочки уже применены
	Transition bool
}

// Коды отказа верификации цепочки. Формат CATEGORY.SPECIFIC, как и остальные
// коды ошибок проекта; никакого «тихого» укорачивания цепочки не существует —
// любой невыполнимый таргет выражается одним из этих кодов.
const (
	// RejectNoUsableFull — нет ни одной подходящей полной копии
	RejectNoUsableFull = "CHAIN.NO_USABLE_FULL"
	// RejectChainGap — разрыв LSN-последовательности до достижения цели
	RejectChainGap = "CHAIN.GAP"
	// RejectAmbiguousMultiDatabase — каталог содержит несколько баз, а цель не называет ни одну
	RejectAmbiguousMultiDatabase = "CHAIN.AMBIGUOUS_MULTI_DATABASE"
	// RejectTargetUnreachable — самая ранняя полная копия позже запрошенной точки
	RejectTargetUnreachable = "CHAIN.TARGET_UNREACHABLE"
	// RejectMarkNotFound — метка не найдена (или найдена неоднозначно)
	RejectMarkNotFound = "CHAIN.MARK_NOT_FOUND"
	// RejectDuplicateSet — один BackupSetID встретился в цепочке дважды
	RejectDuplicateSet = "CHAIN.DUPLICATE_SET"
	// RejectFileMissing — файл цепочки исчез между сканированием и использованием
	RejectFileMissing = "CHAIN.FILE_MISSING"
	// RejectContinuationGap — первый доступный журнал не стыкуется с уже применённым LSN
	RejectContinuationGap = "CHAIN.CONTINUATION_GAP"
)

// Reject описывает типизированную причину отказа верификации цепочки.
type Reject struct {
	// Code — машиночитаемый код (Reject* константы)
	Code string `json:"code"`
	// AtLSN — LSN, на котором обнаружен разрыв (для RejectChainGap/RejectContinuationGap)
	AtLSN backup.LSN `json:"at_lsn,omitempty"`
	// Detail — человекочитаемое описание
	Detail string `json:"detail,omitempty"`
}

// Result — результат разрешения цепочки для одной базы данных.
type Result struct {
	// Database — имя базы данных
	Database string
	// Verified — цепочка доказуемо непрерывна и достигает цели
	Verified bool
	// Plan — упорядоченный план шагов; пуст при Verified=false
	Plan []Step
	// Reject — причина отказа; nil при Verified=true
	Reject *Reject
}

// Options — параметры разрешения, не входящие в целевую точку.
type Options struct {
	// Finish — режим завершения последнего шага (NoRecovery — продолжить
	// восстановление позже, Recover — рабочая база, Standby — read-only доступ)
	Finish RecoveryMode
	// StandbyPath — путь к undo-файлу при Finish=RecoveryStandby
	StandbyPath string

	// FileExists — опциональная проверка наличия файла на момент валидации
	// (защита от файлов, удалённых между сканированием и использованием).
	// nil отключает проверку; инъекция сохраняет детерминизм валидатора.
	FileExists func(backup.FileRef) bool
}
