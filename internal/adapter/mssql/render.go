package mssql

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/backup"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/entity/chain"
)

// Render возвращает T-SQL текст одного шага плана восстановления.
//
// Шаг смены режима (Transition) не накатывает данные и выражается как
// RESTORE DATABASE без устройства, с режимом самого шага: NORECOVERY выводит
// базу из standby, RECOVERY/STANDBY завершает восстановление. Для остальных
// шагов полные и разностные копии дают RESTORE DATABASE, журнальные —
// RESTORE LOG; STOPAT/STOPATMARK/STOPBEFOREMARK кодируют целевую точку
// последнего шага.
func (c *client) Render(database string, step chain.Step, opts ExecuteOptions) string {
	var b strings.Builder
	verb := "DATABASE"
	if step.Set != nil && step.Set.BackupType == backup.TypeLog {
		verb = "LOG"
	}
	fmt.Fprintf(&b, "RESTORE %s %s", verb, quoteName(database))

	if step.Set != nil {
		b.WriteString(" FROM ")
		for i, f := range step.Set.Files {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s = %s", f.Device, quoteString(f.Path))
		}
	}

	with := make([]string, 0, 4)
	switch step.Recovery {
	case chain.RecoveryStandby:
		with = append(with, fmt.Sprintf("STANDBY = %s", quoteString(step.StandbyPath)))
	case chain.RecoveryRecover:
		with = append(with, "RECOVERY")
	default:
		with = append(with, "NORECOVERY")
	}

	if step.StopAt != nil {
		with = append(with, fmt.Sprintf("STOPAT = %s", quoteString(step.StopAt.Format("2006-01-02T15:04:05"))))
	}
	if step.StopMark != nil {
		option := "STOPATMARK"
		if step.StopMark.StopBefore {
			option = "STOPBEFOREMARK"
		}
		with = append(with, fmt.Sprintf("%s = %s", option, quoteString("mark_name:"+step.StopMark.Name)))
	}

	if step.Set != nil && step.Set.BackupType != backup.TypeLog {
		if opts.ReplaceExisting {
			with = append(with, "REPLACE")
		}
		// Детерминированный порядок MOVE-опций при любом содержимом map.
		logical := make([]string, 0, len(opts.MoveFiles))
		for name := range opts.MoveFiles {
			logical = append(logical, name)
		}
		sort.Strings(logical)
		for _, name := range logical {
			with = append(with, fmt.Sprintf("MOVE %s TO %s", quoteString(name), quoteString(opts.MoveFiles[name])))
		}
	}

	fmt.Fprintf(&b, " WITH %s;", strings.Join(with, ", "))
	return b.String()
}

// RenderScript собирает весь план в один T-SQL скрипт.
func RenderScript(executor RestoreExecutor, database string, plan []chain.Step, opts ExecuteOptions) string {
	var b strings.Builder
	for i, step := range plan {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(executor.Render(database, step, opts))
		b.WriteString("\n")
	}
	return b.String()
}

// EncodeScriptUTF16 перекодирует скрипт в UTF-16LE с BOM — формат, который
// SQL Server Management Studio открывает без потери национальных символов.
func EncodeScriptUTF16(script string) ([]byte, error) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	out, _, err := transform.Bytes(encoder, []byte(script))
	if err != nil {
		return nil, fmt.Errorf("%s: кодирование скрипта: %w", ErrMSSQLQuery, err)
	}
	return out, nil
}

// quoteName квотирует идентификатор в квадратные скобки.
func quoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteString квотирует строковый литерал T-SQL (N'...').
func quoteString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}
