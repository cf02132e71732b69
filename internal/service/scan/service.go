// Package scan реализует сканирование файлов резервных копий: параллельное
// чтение заголовков ограниченным пулом воркеров, сборку нормализованного
// каталога и привязку меток транзакций к журнальным копиям.
package scan

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/adapter/mssql"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
)

// Границы пула воркеров чтения заголовков.
const (
	// MinWorkers — минимальное число параллельных чтений
	MinWorkers = 1
	// MaxWorkers — максимальное число параллельных чтений
	MaxWorkers = 10
	// DefaultWorkers — значение по умолчанию
	DefaultWorkers = 4
)

// Код ошибки сканирования.
const ErrScanFailed = "SCAN.READ_FAILED"

// FileFailure — ошибка чтения заголовка одного файла.
// Ошибки отдельных файлов не прерывают сканирование остальных.
type FileFailure struct {
	// Path — путь файла, чтение которого не удалось
	Path string
	// Err — причина
	Err error
}

// Report — результат сканирования набора файлов.
type Report struct {
	// Catalog — нормализованный каталог backup set'ов
	Catalog []backup.SetDescriptor
	// Dropped — наборы, отброшенные нормализатором, с причинами
	Dropped []backup.DroppedSet
	// Failures — файлы, заголовки которых прочитать не удалось
	Failures []FileFailure
}

// Options содержит параметры сервиса сканирования.
type Options struct {
	// Workers — размер пула воркеров; вне диапазона [MinWorkers, MaxWorkers]
	// значение приводится к границе
	Workers int
}

// Service читает заголовки файлов резервных копий и собирает каталог.
type Service struct {
	reader    mssql.HeaderReader
	inspector mssql.InstanceInspector
	logger    logging.Logger
	workers   int
}

// New создаёт сервис сканирования. inspector может быть nil —
// тогда метки транзакций к журнальным копиям не привязываются.
func New(reader mssql.HeaderReader, inspector mssql.InstanceInspector, logger logging.Logger, opts Options) *Service {
	workers := opts.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	if workers < MinWorkers {
		workers = MinWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	return &Service{
		reader:    reader,
		inspector: inspector,
		logger:    logger,
		workers:   workers,
	}
}

// Scan читает заголовки всех файлов и возвращает нормализованный каталог.
//
// Чтения выполняются параллельно пулом воркеров; результат детерминирован,
// потому что записи собираются по индексу входного файла, а нормализатор
// не зависит от порядка записей. Повторное появление одного набора по разным
// путям схлопывается нормализатором. Возвращает ошибку только при отмене
// контекста: ошибки отдельных файлов копятся в Report.Failures.
func (s *Service) Scan(ctx context.Context, files []backup.FileRef) (*Report, error) {
	perFile := make([][]backup.HeaderRecord, len(files))

	var (
		mu       sync.Mutex
		failures []FileFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := s.reader.ReadBackupHeader(gctx, file)
			if err != nil {
				s.logger.Warn("заголовок файла не прочитан", "path", file.Path, "error", err)
				mu.Lock()
				failures = append(failures, FileFailure{Path: file.Path, Err: err})
				mu.Unlock()
				return nil
			}
			perFile[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrScanFailed, err)
	}

	var records []backup.HeaderRecord
	for _, recs := range perFile {
		records = append(records, recs...)
	}

	catalog, dropped := backup.Normalize(records)
	for _, d := range dropped {
		s.logger.Warn("набор отброшен нормализатором",
			"database", d.DatabaseName, "backup_set_id", d.BackupSetID, "code", d.Code, "detail", d.Detail)
	}

	if s.inspector != nil {
		if err := s.attachMarks(ctx, catalog); err != nil {
			return nil, err
		}
	}

	s.logger.Info("сканирование завершено",
		"files", len(files), "sets", len(catalog), "dropped", len(dropped), "failures", len(failures))

	return &Report{
		Catalog:  catalog,
		Dropped:  dropped,
		Failures: failures,
	}, nil
}

// attachMarks привязывает метки транзакций к журнальным копиям по диапазону LSN.
func (s *Service) attachMarks(ctx context.Context, catalog []backup.SetDescriptor) error {
	for _, database := range backup.Databases(catalog) {
		marks, err := s.inspector.ListMarks(ctx, database)
		if err != nil {
			return fmt.Errorf("%s: метки базы %s: %w", ErrScanFailed, database, err)
		}
		if len(marks) == 0 {
			continue
		}
		for i := range catalog {
			set := &catalog[i]
			if set.DatabaseName != database || set.BackupType != backup.TypeLog {
				continue
			}
			for _, m := range marks {
				if set.Covers(m.LSN) {
					set.Marks = append(set.Marks, m)
				}
			}
		}
	}
	return nil
}
