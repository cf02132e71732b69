package backupscanhandler

import (
	"fmt"
	"io"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/service/scan"
)

// SetInfo — один backup set каталога в выводе команды.
type SetInfo struct {
	// Database — имя базы данных
	Database string `json:"database"`
	// BackupSetID — идентификатор набора
	BackupSetID string `json:"backup_set_id"`
	// Type — тип копии: Full, Differential или Log
	Type string `json:"type"`
	// FirstLSN и LastLSN — LSN-границы набора
	FirstLSN uint64 `json:"first_lsn"`
	LastLSN  uint64 `json:"last_lsn"`
	// FinishTime — время завершения операции копирования
	FinishTime time.Time `json:"finish_time"`
	// CopyOnly — копия снята с COPY_ONLY
	CopyOnly bool `json:"copy_only,omitempty"`
	// Files — пути stripe-членов набора
	Files []string `json:"files"`
	// Marks — имена меток транзакций, попавших в диапазон (только Log)
	Marks []string `json:"marks,omitempty"`
}

// DroppedInfo — набор, отброшенный нормализатором.
type DroppedInfo struct {
	Database    string `json:"database"`
	BackupSetID string `json:"backup_set_id"`
	Code        string `json:"code"`
	Detail      string `json:"detail,omitempty"`
}

// FailureInfo — файл, заголовок которого прочитать не удалось.
type FailureInfo struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanData содержит данные ответа команды backup-scan.
type ScanData struct {
	// Databases — имена баз, встреченных в каталоге
	Databases []string `json:"databases"`
	// Sets — нормализованный каталог backup set'ов
	Sets []SetInfo `json:"sets"`
	// Dropped — отброшенные наборы с причинами
	Dropped []DroppedInfo `json:"dropped,omitempty"`
	// Failures — нечитаемые файлы
	Failures []FailureInfo `json:"failures,omitempty"`
	// DurationMs — время сканирования в миллисекундах
	DurationMs int64 `json:"duration_ms"`
}

// buildScanData преобразует отчёт сканирования в данные ответа.
func buildScanData(report *scan.Report, duration time.Duration) *ScanData {
	data := &ScanData{
		Databases:  make([]string, 0, 1),
		Sets:       make([]SetInfo, 0, len(report.Catalog)),
		DurationMs: duration.Milliseconds(),
	}

	seen := make(map[string]bool)
	for i := range report.Catalog {
		set := &report.Catalog[i]
		if !seen[set.DatabaseName] {
			seen[set.DatabaseName] = true
			data.Databases = append(data.Databases, set.DatabaseName)
		}

		info := SetInfo{
			Database:    set.DatabaseName,
			BackupSetID: set.BackupSetID,
			Type:        set.BackupType.String(),
			FirstLSN:    uint64(set.FirstLSN),
			LastLSN:     uint64(set.LastLSN),
			FinishTime:  set.FinishTime,
			CopyOnly:    set.IsCopyOnly,
			Files:       make([]string, 0, len(set.Files)),
		}
		for _, f := range set.Files {
			info.Files = append(info.Files, f.Path)
		}
		for _, m := range set.Marks {
			info.Marks = append(info.Marks, m.Name)
		}
		data.Sets = append(data.Sets, info)
	}

	for _, d := range report.Dropped {
		data.Dropped = append(data.Dropped, DroppedInfo{
			Database:    d.DatabaseName,
			BackupSetID: d.BackupSetID,
			Code:        d.Code,
			Detail:      d.Detail,
		})
	}
	for _, f := range report.Failures {
		data.Failures = append(data.Failures, FailureInfo{Path: f.Path, Error: f.Err.Error()})
	}

	return data
}

// writeText выводит каталог в человекочитаемом формате.
func (d *ScanData) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Каталог резервных копий: %d set'ов, %d баз\n",
		len(d.Sets), len(d.Databases)); err != nil {
		return err
	}

	for _, s := range d.Sets {
		copyOnly := ""
		if s.CopyOnly {
			copyOnly = " [COPY_ONLY]"
		}
		if _, err := fmt.Fprintf(w, "  %s  %-12s%s  LSN %d..%d  %s\n",
			s.Database, s.Type, copyOnly, s.FirstLSN, s.LastLSN,
			s.FinishTime.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
		for _, path := range s.Files {
			if _, err := fmt.Fprintf(w, "      %s\n", path); err != nil {
				return err
			}
		}
		for _, mark := range s.Marks {
			if _, err := fmt.Fprintf(w, "      метка: %s\n", mark); err != nil {
				return err
			}
		}
	}

	if len(d.Dropped) > 0 {
		if _, err := fmt.Fprintf(w, "Отброшено нормализатором: %d\n", len(d.Dropped)); err != nil {
			return err
		}
		for _, dr := range d.Dropped {
			if _, err := fmt.Fprintf(w, "  %s %s (%s): %s\n",
				dr.Database, dr.BackupSetID, dr.Code, dr.Detail); err != nil {
				return err
			}
		}
	}

	if len(d.Failures) > 0 {
		if _, err := fmt.Fprintf(w, "Нечитаемые файлы: %d\n", len(d.Failures)); err != nil {
			return err
		}
		for _, f := range d.Failures {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Error); err != nil {
				return err
			}
		}
	}

	return nil
}
