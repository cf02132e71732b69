// Package mssql предоставляет реализацию клиента для работы с Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	// blank import для драйвера SQL Server
	_ "github.com/denisenkom/go-mssqldb"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
)

// Compile-time проверка реализации интерфейса
var _ Client = (*client)(nil)

// ClientOptions содержит параметры для создания MSSQL клиента.
type ClientOptions struct {
	// Server — адрес сервера MSSQL
	Server string
	// Port — порт сервера (по умолчанию 1433)
	Port int
	// User — имя пользователя
	User string
	// Password — пароль пользователя
	Password string
	// Database — имя базы данных для подключения (обычно "master")
	Database string
	// Timeout — таймаут подключения
	Timeout time.Duration
	// Encrypt — использовать TLS шифрование (по умолчанию true для безопасности).
	// Для явного отключения шифрования используйте NewClientWithEncrypt(opts, false).
	Encrypt bool
	// encryptSet — внутренний флаг, указывающий что Encrypt был явно задан
	encryptSet bool
}

// client — реализация интерфейса Client для MSSQL.
type client struct {
	db   *sql.DB
	opts ClientOptions
	// serverMajor — мажорная версия подключённого сервера; заполняется в Connect
	// и используется для отбраковки копий, снятых более новой версией
	serverMajor int
}

// NewClient создаёт новый MSSQL клиент с указанными параметрами.
// Примечание: подключение устанавливается отложенно при первом запросе или через Connect().
func NewClient(opts ClientOptions) (Client, error) {
	if opts.Server == "" {
		return nil, fmt.Errorf("%s: server is required", ErrMSSQLConnect)
	}
	if opts.Port == 0 {
		opts.Port = 1433
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, fmt.Errorf("%s: invalid port %d, must be between 1 and 65535", ErrMSSQLConnect, opts.Port)
	}
	if opts.Database == "" {
		opts.Database = "master"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	// По умолчанию включаем шифрование; отключение — только явным конструктором.
	if !opts.encryptSet {
		opts.Encrypt = true
	}

	return &client{
		opts: opts,
	}, nil
}

// NewClientWithEncrypt создаёт MSSQL клиент с явным указанием режима шифрования.
// Используйте этот конструктор для явного контроля над TLS.
func NewClientWithEncrypt(opts ClientOptions, encrypt bool) (Client, error) {
	opts.Encrypt = encrypt
	opts.encryptSet = true
	return NewClient(opts)
}

// Connect устанавливает соединение с сервером MSSQL.
func (c *client) Connect(ctx context.Context) error {
	encryptMode := "true"
	if !c.opts.Encrypt {
		encryptMode = "disable"
	}

	// Экранируем параметры для защиты от инъекций в connection string:
	// go-mssqldb использует URL-подобный формат, где ; и = имеют особое значение.
	connString := fmt.Sprintf(
		"server=%s;user id=%s;password=%s;port=%d;database=%s;encrypt=%s;connection timeout=%d",
		escapeConnStringParam(c.opts.Server),
		escapeConnStringParam(c.opts.User),
		escapeConnStringParam(c.opts.Password),
		c.opts.Port,
		escapeConnStringParam(c.opts.Database),
		encryptMode,
		int(c.opts.Timeout.Seconds()),
	)

	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			// best-effort close; original error is more important
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: context cancelled during ping: %w", ErrMSSQLConnect, ctx.Err())
		}
		return fmt.Errorf("%s: ping failed: %w", ErrMSSQLConnect, err)
	}

	c.db = db

	// Версия сервера нужна для проверки совместимости заголовков;
	// недоступность SERVERPROPERTY не считается фатальной.
	var major sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT CAST(SERVERPROPERTY('ProductMajorVersion') AS int)").Scan(&major); err == nil && major.Valid {
		c.serverMajor = int(major.Int64)
	}

	return nil
}

// escapeConnStringParam экранирует параметр для безопасного использования в connection string.
func escapeConnStringParam(s string) string {
	return url.QueryEscape(s)
}

// Close закрывает соединение с сервером.
func (c *client) Close() error {
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// Ping проверяет доступность сервера.
func (c *client) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLConnect)
	}
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMSSQLConnect, err)
	}
	return nil
}

// ReadBackupHeader читает заголовки всех backup set'ов в файле.
//
// RESTORE HEADERONLY возвращает по строке на каждый set в файле,
// RESTORE LABELONLY — сведения о media family (номер и количество stripe-членов).
// Значения numeric(25,0) приходят строками и маппятся в LSN здесь,
// на границе адаптера.
func (c *client) ReadBackupHeader(ctx context.Context, file backup.FileRef) ([]backup.HeaderRecord, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	familySeq, familyCount, err := c.readLabel(ctx, file)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("RESTORE HEADERONLY FROM %s = %s", file.Device, quoteString(file.Path))
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", ErrHeaderUnreadable, file.Path, err)
	}
	defer rows.Close() //nolint:errcheck

	raw, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", ErrHeaderUnreadable, file.Path, err)
	}

	fileRef := file
	fileRef.FamilySequence = familySeq
	fileRef.FamilyCount = familyCount

	records := make([]backup.HeaderRecord, 0, len(raw))
	for _, row := range raw {
		rec, err := mapHeaderRow(row, fileRef)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", ErrHeaderUnreadable, file.Path, err)
		}
		if c.serverMajor > 0 {
			if major := fieldInt(row, "SoftwareVersionMajor"); major > c.serverMajor {
				return nil, fmt.Errorf("%s: копия %s снята сервером версии %d, подключённый сервер — версии %d",
					ErrUnsupportedVersion, file.Path, major, c.serverMajor)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// readLabel извлекает номер и количество stripe-членов из метки носителя.
func (c *client) readLabel(ctx context.Context, file backup.FileRef) (seq, count int, err error) {
	query := fmt.Sprintf("RESTORE LABELONLY FROM %s = %s", file.Device, quoteString(file.Path))
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %s: %w", ErrHeaderUnreadable, file.Path, err)
	}
	defer rows.Close() //nolint:errcheck

	raw, err := scanAll(rows)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %s: %w", ErrHeaderUnreadable, file.Path, err)
	}
	if len(raw) == 0 {
		return 0, 0, fmt.Errorf("%s: %s: RESTORE LABELONLY не вернул ни одной строки", ErrHeaderUnreadable, file.Path)
	}

	seq = fieldInt(raw[0], "FamilySequenceNumber")
	count = fieldInt(raw[0], "FamilyCount")
	if seq <= 0 {
		seq = 1
	}
	if count <= 0 {
		count = 1
	}
	return seq, count, nil
}

// mapHeaderRow маппит одну строку RESTORE HEADERONLY в типизированную запись.
func mapHeaderRow(row map[string]any, file backup.FileRef) (backup.HeaderRecord, error) {
	rec := backup.HeaderRecord{
		File:         file,
		DatabaseName: fieldString(row, "DatabaseName"),
		BackupSetID:  fieldString(row, "BackupSetGUID"),
		IsCopyOnly:   fieldBool(row, "IsCopyOnly"),
		StartTime:    fieldTime(row, "BackupStartDate"),
		FinishTime:   fieldTime(row, "BackupFinishDate"),
	}

	switch fieldInt(row, "BackupType") {
	case 1:
		rec.BackupType = backup.TypeFull
	case 5:
		rec.BackupType = backup.TypeDifferential
	case 2:
		rec.BackupType = backup.TypeLog
	default:
		return backup.HeaderRecord{}, fmt.Errorf("неподдерживаемый BackupType %d", fieldInt(row, "BackupType"))
	}

	var err error
	if rec.FirstLSN, err = fieldLSN(row, "FirstLSN"); err != nil {
		return backup.HeaderRecord{}, err
	}
	if rec.LastLSN, err = fieldLSN(row, "LastLSN"); err != nil {
		return backup.HeaderRecord{}, err
	}
	if rec.CheckpointLSN, err = fieldLSN(row, "CheckpointLSN"); err != nil {
		return backup.HeaderRecord{}, err
	}
	if rec.DatabaseBackupLSN, err = fieldLSN(row, "DatabaseBackupLSN"); err != nil {
		return backup.HeaderRecord{}, err
	}

	rec.SoftwareVersionTag = fmt.Sprintf("%d.%d.%d",
		fieldInt(row, "SoftwareVersionMajor"),
		fieldInt(row, "SoftwareVersionMinor"),
		fieldInt(row, "SoftwareVersionBuild"),
	)

	return rec, nil
}

// GetContinuationState определяет состояние незавершённого восстановления базы.
//
// База в state_desc=RESTORING продолжается с NORECOVERY; is_in_standby означает
// read-only standby и требует шага перевода перед новыми журналами. Последний
// применённый LSN берётся из msdb-истории восстановлений.
func (c *client) GetContinuationState(ctx context.Context, database string) (*chain.Continuation, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	var (
		stateDesc   string
		isInStandby bool
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT state_desc, is_in_standby FROM sys.databases WHERE name = @p1",
		database,
	).Scan(&stateDesc, &isInStandby)
	if err != nil {
		if err == sql.ErrNoRows {
			// Базы нет на сервере — восстановление начнётся с нуля.
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	if stateDesc != "RESTORING" && !isInStandby {
		return nil, nil
	}

	var lastLSN sql.NullString
	err = c.db.QueryRowContext(ctx, `
	SELECT TOP 1 CAST(bs.last_lsn AS varchar(32))
	FROM msdb.dbo.restorehistory rh
	JOIN msdb.dbo.backupset bs ON bs.backup_set_id = rh.backup_set_id
	WHERE rh.destination_database_name = @p1
	ORDER BY rh.restore_date DESC, rh.restore_history_id DESC;
	`, database).Scan(&lastLSN)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	cont := &chain.Continuation{Mode: chain.StateRestoring}
	if isInStandby {
		cont.Mode = chain.StateStandby
	}
	if lastLSN.Valid {
		lsn, err := parseLSN(lastLSN.String)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
		}
		cont.AlreadyAppliedLastLSN = lsn
	}

	return cont, nil
}

// ListMarks возвращает именованные метки транзакций базы данных.
func (c *client) ListMarks(ctx context.Context, database string) ([]backup.Mark, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%s: connection not established", ErrMSSQLQuery)
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT mark_name, CAST(lsn AS varchar(32)), mark_time
	FROM msdb.dbo.logmarkhistory
	WHERE database_name = @p1
	ORDER BY mark_time, mark_name;
	`, database)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}
	defer rows.Close() //nolint:errcheck

	var marks []backup.Mark
	for rows.Next() {
		var (
			name     string
			lsnText  string
			markTime time.Time
		)
		if err := rows.Scan(&name, &lsnText, &markTime); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
		}
		lsn, err := parseLSN(lsnText)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
		}
		marks = append(marks, backup.Mark{Name: name, LSN: lsn, Time: markTime})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMSSQLQuery, err)
	}

	return marks, nil
}

// Execute выполняет один шаг плана восстановления.
// Текст команды идентичен выводу Render: что показывает dry-run, то и выполняется.
func (c *client) Execute(ctx context.Context, database string, step chain.Step, opts ExecuteOptions) error {
	if c.db == nil {
		return fmt.Errorf("%s: connection not established", ErrMSSQLRestore)
	}

	execCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	query := c.Render(database, step, opts)
	if _, err := c.db.ExecContext(execCtx, query); err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s: operation timed out after %v", ErrMSSQLTimeout, opts.Timeout)
		}
		return fmt.Errorf("%s: %w", ErrMSSQLRestore, err)
	}

	return nil
}

// scanAll вычитывает все строки результата в слабо типизированные словари.
// Набор колонок RESTORE HEADERONLY/LABELONLY различается между версиями сервера,
// поэтому адаптер читает по именам, а не по позициям.
func scanAll(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// parseLSN разбирает значение numeric(25,0) из заголовка в LSN.
// Значения, не помещающиеся в uint64, в реальных цепочках не встречаются
// и трактуются как повреждённый заголовок.
func parseLSN(s string) (backup.LSN, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный LSN %q: %w", s, err)
	}
	return backup.LSN(v), nil
}

func fieldString(row map[string]any, name string) string {
	switch v := row[name].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func fieldInt(row map[string]any, name string) int {
	switch v := row[name].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func fieldBool(row map[string]any, name string) bool {
	switch v := row[name].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	default:
		return false
	}
}

func fieldTime(row map[string]any, name string) time.Time {
	if v, ok := row[name].(time.Time); ok {
		return v
	}
	return time.Time{}
}

func fieldLSN(row map[string]any, name string) (backup.LSN, error) {
	s := fieldString(row, name)
	if s == "" {
		if n, ok := row[name].(int64); ok {
			return backup.LSN(n), nil
		}
		return 0, fmt.Errorf("отсутствует колонка %s", name)
	}
	return parseLSN(s)
}
