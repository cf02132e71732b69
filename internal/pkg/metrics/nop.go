package metrics

import (
	"context"
	"time"
)

// NopCollector — no-op реализация Collector.
// Используется когда метрики отключены (Config.Enabled = false).
type NopCollector struct{}

// NewNopCollector создаёт NopCollector.
func NewNopCollector() *NopCollector {
	return &NopCollector{}
}

// RecordCommandStart — no-op, ничего не делает.
func (c *NopCollector) RecordCommandStart(command, database string) {}

// RecordCommandEnd — no-op, ничего не делает.
func (c *NopCollector) RecordCommandEnd(command, database string, duration time.Duration, success bool) {
}

// ObserveResolveDuration — no-op, ничего не делает.
func (c *NopCollector) ObserveResolveDuration(database string, d time.Duration) {}

// ChainVerified — no-op, ничего не делает.
func (c *NopCollector) ChainVerified(database string) {}

// ChainRejected — no-op, ничего не делает.
func (c *NopCollector) ChainRejected(database, code string) {}

// Push — no-op, всегда возвращает nil.
func (c *NopCollector) Push(ctx context.Context) error {
	return nil
}
