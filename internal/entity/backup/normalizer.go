package backup

import (
	"fmt"
	"sort"
)

// Коды ошибок нормализации каталога.
const (
	// ErrIncompleteStripe — в наборе отсутствует хотя бы один stripe-член
	ErrIncompleteStripe = "CATALOG.INCOMPLETE_STRIPE"
	// ErrInvalidHeader — заголовок нарушает инвариант FirstLSN <= LastLSN
	ErrInvalidHeader = "CATALOG.INVALID_HEADER"
)

// DroppedSet описывает набор, отброшенный нормализатором, с машиночитаемой причиной.
type DroppedSet struct {
	// DatabaseName — имя базы отброшенного набора
	DatabaseName string
	// BackupSetID — идентификатор отброшенного набора
	BackupSetID string
	// Code — код причины (ErrIncompleteStripe, ErrInvalidHeader)
	Code string
	// Detail — человекочитаемое описание
	Detail string
}

// setKey — ключ группировки записей заголовков.
// Один и тот же логический бэкап, найденный по разным путям, попадает в одну группу.
type setKey struct {
	database string
	setID    string
}

// Normalize собирает сырые записи заголовков в дедуплицированный каталог backup set'ов.
//
// Правила (неизменны при любом порядке входных записей):
//   - группировка по (DatabaseName, BackupSetID);
//   - повторные записи одного и того же пути схлопываются;
//   - группа становится дескриптором только при наличии всех FamilyCount членов,
//     иначе отбрасывается с причиной IncompleteStripe;
//   - заголовки с FirstLSN > LastLSN отбраковываются как повреждённые;
//   - результат стабильно отсортирован по (DatabaseName, BackupType, FirstLSN).
func Normalize(records []HeaderRecord) ([]SetDescriptor, []DroppedSet) {
	groups := make(map[setKey][]HeaderRecord)
	order := make([]setKey, 0, len(records))

	for _, rec := range records {
		key := setKey{database: rec.DatabaseName, setID: rec.BackupSetID}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	descriptors := make([]SetDescriptor, 0, len(groups))
	var dropped []DroppedSet

	for _, key := range order {
		recs := groups[key]

		desc, drop := assembleSet(key, recs)
		if drop != nil {
			dropped = append(dropped, *drop)
			continue
		}
		descriptors = append(descriptors, desc)
	}

	sort.SliceStable(descriptors, func(i, j int) bool {
		a, b := descriptors[i], descriptors[j]
		if a.DatabaseName != b.DatabaseName {
			return a.DatabaseName < b.DatabaseName
		}
		if a.BackupType != b.BackupType {
			return a.BackupType < b.BackupType
		}
		return a.FirstLSN < b.FirstLSN
	})

	return descriptors, dropped
}

// assembleSet собирает одну группу записей в дескриптор либо возвращает причину отказа.
func assembleSet(key setKey, recs []HeaderRecord) (SetDescriptor, *DroppedSet) {
	head := recs[0]

	if head.FirstLSN > head.LastLSN {
		return SetDescriptor{}, &DroppedSet{
			DatabaseName: key.database,
			BackupSetID:  key.setID,
			Code:         ErrInvalidHeader,
			Detail:       fmt.Sprintf("first_lsn %d больше last_lsn %d", head.FirstLSN, head.LastLSN),
		}
	}

	// Схлопываем повторные сканирования одного пути: последний заголовок побеждает,
	// содержимое у идентичного BackupSetID по определению одинаково.
	byPath := make(map[string]FileRef, len(recs))
	for _, rec := range recs {
		byPath[rec.File.Path] = rec.File
	}

	// Полнота media family: ожидаем члены 1..FamilyCount без пропусков.
	familyCount := head.File.FamilyCount
	if familyCount <= 0 {
		familyCount = 1
	}
	present := make(map[int]bool, len(byPath))
	files := make([]FileRef, 0, len(byPath))
	for _, f := range byPath {
		present[f.FamilySequence] = true
		files = append(files, f)
	}
	for seq := 1; seq <= familyCount; seq++ {
		if !present[seq] {
			return SetDescriptor{}, &DroppedSet{
				DatabaseName: key.database,
				BackupSetID:  key.setID,
				Code:         ErrIncompleteStripe,
				Detail:       fmt.Sprintf("отсутствует stripe-член %d из %d", seq, familyCount),
			}
		}
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].FamilySequence != files[j].FamilySequence {
			return files[i].FamilySequence < files[j].FamilySequence
		}
		return files[i].Path < files[j].Path
	})

	return SetDescriptor{
		DatabaseName:       head.DatabaseName,
		BackupSetID:        head.BackupSetID,
		BackupType:         head.BackupType,
		FirstLSN:           head.FirstLSN,
		LastLSN:            head.LastLSN,
		CheckpointLSN:      head.CheckpointLSN,
		DatabaseBackupLSN:  head.DatabaseBackupLSN,
		StartTime:          head.StartTime,
		FinishTime:         head.FinishTime,
		IsCopyOnly:         head.IsCopyOnly,
		SoftwareVersionTag: head.SoftwareVersionTag,
		Files:              files,
		Marks:              head.Marks,
	}, nil
}

// Databases возвращает отсортированный список имён баз, встречающихся в каталоге.
func Databases(catalog []SetDescriptor) []string {
	seen := make(map[string]bool)
	var names []string
	for i := range catalog {
		name := catalog[i].DatabaseName
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ForDatabase возвращает подмножество каталога для одной базы данных.
func ForDatabase(catalog []SetDescriptor, database string) []SetDescriptor {
	var out []SetDescriptor
	for i := range catalog {
		if catalog[i].DatabaseName == database {
			out = append(out, catalog[i])
		}
	}
	return out
}
