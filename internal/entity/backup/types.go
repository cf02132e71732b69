// Package backup содержит типизированную модель каталога резервных копий MS SQL Server
// и нормализатор, собирающий сырые записи заголовков в логические backup set'ы.
//
// Основные возможности:
// - Строго типизированные дескрипторы backup set'ов (Full/Differential/Log)
// - Сборка striped (multi-family) наборов из отдельных файлов
// - Дедупликация повторных сканирований одного и того же набора
// - Отбраковка наборов с отсутствующими stripe-членами
package backup

import (
	"time"
)

// LSN — монотонно возрастающий номер записи журнала транзакций (Log Sequence Number).
// Значения numeric(25,0) из заголовков бэкапов маппятся в uint64 на границе адаптера.
type LSN uint64

// Type определяет тип резервной копии.
type Type int

const (
	// TypeFull — полная резервная копия, корень цепочки восстановления.
	TypeFull Type = iota
	// TypeDifferential — разностная копия относительно checkpoint LSN полной копии.
	TypeDifferential
	// TypeLog — непрерывный фрагмент журнала транзакций между двумя LSN.
	TypeLog
)

// String возвращает строковое представление типа резервной копии.
func (t Type) String() string {
	switch t {
	case TypeFull:
		return "Full"
	case TypeDifferential:
		return "Differential"
	case TypeLog:
		return "Log"
	default:
		return "Unknown"
	}
}

// DeviceKind определяет тип устройства, на котором лежит файл резервной копии.
type DeviceKind int

const (
	// DeviceDisk — файл на локальном или сетевом диске.
	DeviceDisk DeviceKind = iota
	// DeviceURL — объект в хранилище, доступный по URL (Azure blob и т.п.).
	DeviceURL
)

// String возвращает строковое представление типа устройства.
func (d DeviceKind) String() string {
	if d == DeviceURL {
		return "URL"
	}
	return "DISK"
}

// FileRef описывает один физический файл (stripe-член) backup set'а.
// Неизменяем после чтения заголовка.
type FileRef struct {
	// Path — путь к файлу или URI объекта
	Path string
	// Device — тип устройства (диск/URL)
	Device DeviceKind
	// FamilySequence — порядковый номер файла внутри media family (с 1)
	FamilySequence int
	// FamilyCount — общее число файлов в наборе, заявленное заголовком
	FamilyCount int
}

// SetDescriptor описывает одну логическую операцию резервного копирования.
// Дескрипторы создаются нормализатором один раз на сканирование и далее
// используются только на чтение.
type SetDescriptor struct {
	// DatabaseName — имя базы данных, с которой снята копия
	DatabaseName string
	// BackupSetID — уникальный идентификатор backup set'а (GUID из заголовка)
	BackupSetID string
	// BackupType — тип копии: Full, Differential или Log
	BackupType Type

	// FirstLSN — первый LSN, покрытый копией
	FirstLSN LSN
	// LastLSN — последний LSN, покрытый копией
	LastLSN LSN
	// CheckpointLSN — LSN контрольной точки на момент начала копирования
	CheckpointLSN LSN
	// DatabaseBackupLSN — checkpoint LSN полной копии, относительно которой
	// снята разностная (для Full/Log — информационное поле)
	DatabaseBackupLSN LSN

	// StartTime — время начала операции копирования
	StartTime time.Time
	// FinishTime — время завершения операции копирования
	FinishTime time.Time

	// IsCopyOnly — копия снята с COPY_ONLY и не участвует в разностной базе
	IsCopyOnly bool
	// SoftwareVersionTag — версия сервера, создавшего копию (например "16.0.4095")
	SoftwareVersionTag string

	// Files — упорядоченный набор stripe-членов; для использования set'а
	// должны присутствовать все FamilyCount членов
	Files []FileRef

	// Marks — именованные метки транзакций, попавшие в диапазон копии
	// (только для Log; заполняется из msdb.dbo.logmarkhistory)
	Marks []Mark
}

// Mark — именованная метка транзакции (BEGIN TRAN ... WITH MARK) внутри журнала.
type Mark struct {
	// Name — имя метки
	Name string
	// LSN — позиция метки в журнале
	LSN LSN
	// Time — время помеченной транзакции
	Time time.Time
}

// HeaderRecord — сырая запись заголовка одного файла, как её возвращает
// header reader (RESTORE HEADERONLY + FILELISTONLY). Слабо типизированные
// данные маппятся в SetDescriptor на границе нормализатора и дальше
// по коду не распространяются.
type HeaderRecord struct {
	// File — физический файл, из которого прочитан заголовок
	File FileRef
	// DatabaseName — имя базы из заголовка
	DatabaseName string
	// BackupSetID — идентификатор набора из заголовка
	BackupSetID string
	// BackupType — тип копии из заголовка
	BackupType Type
	// FirstLSN, LastLSN, CheckpointLSN, DatabaseBackupLSN — LSN-границы из заголовка
	FirstLSN          LSN
	LastLSN           LSN
	CheckpointLSN     LSN
	DatabaseBackupLSN LSN
	// StartTime, FinishTime — временные границы операции
	StartTime  time.Time
	FinishTime time.Time
	// IsCopyOnly — флаг COPY_ONLY из заголовка
	IsCopyOnly bool
	// SoftwareVersionTag — версия сервера из заголовка
	SoftwareVersionTag string
	// Marks — метки транзакций для Log-копий
	Marks []Mark
}

// Covers сообщает, покрывает ли набор указанный LSN.
func (s *SetDescriptor) Covers(lsn LSN) bool {
	return s.FirstLSN <= lsn && lsn <= s.LastLSN
}
