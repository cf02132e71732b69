// Package main содержит точку входа приложения sql-restore.
// Приложение восстанавливает базы MS SQL Server из цепочек резервных копий:
// сканирование заголовков, построение плана восстановления, выполнение restore.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/command/handlers"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/config"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/constants"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/di"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
)

func main() {
	os.Exit(run())
}

// registerOnce гарантирует однократную регистрацию команд:
// registry возвращает ошибку при повторной регистрации имени.
var (
	registerOnce sync.Once
	registerErr  error
)

// run содержит основную логику приложения и возвращает exit code.
// Вынесена из main() чтобы os.Exit() вызывался ПОСЛЕ отработки всех
// defer-ов (tracerShutdown, span.End). Без этого трейсы ошибочных
// выполнений терялись, потому что os.Exit() не выполняет defer.
func run() int {
	registerOnce.Do(func() {
		registerErr = handlers.RegisterAll()
	})
	if registerErr != nil {
		fmt.Fprintf(os.Stderr, "Не удалось зарегистрировать команды: %v\n", registerErr)
		return di.ExitCommandError
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Не удалось загрузить конфигурацию приложения: %v\n", err)
		return di.ExitConfigError
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Не удалось инициализировать приложение: %v\n", err)
		return di.ExitConfigError
	}

	// Handlers логируют через slog.Default() — устанавливаем
	// сконфигурированный логгер как default.
	if adapter, ok := app.Logger.(*logging.SlogAdapter); ok {
		slog.SetDefault(adapter.Slog())
	}

	l := app.Logger.With(slog.String("trace_id", app.TraceID))
	l.Debug("Информация о сборке",
		slog.String("version", constants.Version),
		slog.String("commit", constants.Commit),
	)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.TracerShutdown(shutdownCtx); err != nil {
			l.Error("ошибка завершения tracing",
				slog.String("error", err.Error()),
				slog.String("command", cfg.Action),
			)
		}
	}()

	return app.Run(context.Background())
}
