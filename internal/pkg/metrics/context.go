package metrics

import "context"

// collectorKey — приватный тип ключа контекста для Collector.
type collectorKey struct{}

// WithCollector возвращает контекст с привязанным Collector.
// Используется точкой входа приложения, чтобы обработчики команд
// писали метрики в общий registry и Push выполнялся один раз.
func WithCollector(ctx context.Context, c Collector) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, collectorKey{}, c)
}

// FromContext возвращает Collector из контекста.
// Если Collector не привязан — возвращает NopCollector,
// вызывающий код не обязан проверять наличие.
func FromContext(ctx context.Context) Collector {
	if c, ok := ctx.Value(collectorKey{}).(Collector); ok {
		return c
	}
	return NewNopCollector()
}
