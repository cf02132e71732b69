// Package metrics предоставляет интерфейсы и реализации для сбора и отправки метрик
// в Prometheus Pushgateway.
//
// Пакет следует общим паттернам проекта:
//   - Interface Segregation: Collector interface для абстракции
//   - Factory pattern: NewCollector выбирает реализацию на основе конфигурации
//   - Graceful degradation: NopCollector при отключённых метриках
package metrics

import (
	"context"
	"time"
)

// Collector определяет интерфейс для сбора метрик.
// Реализации: PrometheusCollector (активный) и NopCollector (no-op).
type Collector interface {
	// RecordCommandStart записывает начало выполнения команды.
	// Для CLI не требуется отслеживать "in-flight" — метод может быть no-op.
	RecordCommandStart(command, database string)

	// RecordCommandEnd записывает завершение команды с результатом.
	// duration — время выполнения команды.
	// success — успешно ли завершилась команда.
	RecordCommandEnd(command, database string, duration time.Duration, success bool)

	// ObserveResolveDuration записывает длительность разрешения цепочки
	// восстановления одной базы данных.
	ObserveResolveDuration(database string, d time.Duration)

	// ChainVerified увеличивает счётчик верифицированных цепочек.
	ChainVerified(database string)

	// ChainRejected увеличивает счётчик отклонённых цепочек с кодом причины.
	ChainRejected(database, code string)

	// Push отправляет метрики в Pushgateway.
	// Возвращает nil даже при ошибке — ошибки логируются внутри реализации.
	Push(ctx context.Context) error
}
