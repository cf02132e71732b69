package shared

import (
	"fmt"
	"os"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/apperrors"
)

// HandleError выводит стандартизированное сообщение об ошибке в stdout
// и возвращает структурированную ошибку с кодом CATEGORY.SPECIFIC.
// Используется обработчиками для единообразного формата ошибок.
func HandleError(message, code string) error {
	_, _ = fmt.Fprintf(os.Stdout, "Ошибка: %s\nКод: %s\n", message, code)
	return apperrors.NewAppError(code, message, nil)
}
