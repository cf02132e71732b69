// Package handlers выполняет явную регистрацию всех обработчиков команд.
// Явная регистрация вместо init()-паттерна делает граф зависимостей
// видимым и свободным от side effects при импорте.
package handlers

import (
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/backupscanhandler"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/help"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/restoreplanhandler"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/restorerunhandler"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers/version"
)

// RegisterAll регистрирует все обработчики команд в глобальном реестре.
// Вызывается один раз из main() до выполнения команд.
// Возвращает ошибку при сбое регистрации любого обработчика.
func RegisterAll() error {
	if err := backupscanhandler.RegisterCmd(); err != nil {
		return err
	}
	if err := restoreplanhandler.RegisterCmd(); err != nil {
		return err
	}
	if err := restorerunhandler.RegisterCmd(); err != nil {
		return err
	}
	if err := help.RegisterCmd(); err != nil {
		return err
	}
	return version.RegisterCmd()
}
