package constants

import "os"

// Права доступа для создаваемых файлов.
const (
	// FilePermReadWrite - стандартные права файла (owner rw, group r, other r).
	// Используется для выгружаемых T-SQL скриптов.
	FilePermReadWrite os.FileMode = 0644

	// FilePermPrivate - права для чувствительных файлов (только owner rw).
	FilePermPrivate os.FileMode = 0600
)
