package metrics

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/logging"
	"github.com/andydeangelis/SQL-Analysis-sub003/internal/pkg/urlutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PrometheusCollector реализует Collector с Prometheus метриками.
// Отправляет метрики в Pushgateway при вызове Push().
type PrometheusCollector struct {
	config   Config
	logger   logging.Logger
	registry *prometheus.Registry

	// Метрики команд
	commandDuration *prometheus.HistogramVec
	commandSuccess  *prometheus.CounterVec
	commandError    *prometheus.CounterVec

	// Метрики разрешения цепочек
	resolveDuration *prometheus.HistogramVec
	chainsVerified  *prometheus.CounterVec
	chainsRejected  *prometheus.CounterVec

	// Instance label (hostname)
	instance string
}

// NewPrometheusCollector создаёт PrometheusCollector с указанной конфигурацией.
// Регистрирует метрики:
//   - sql_restore_command_duration_seconds (histogram)
//   - sql_restore_command_success_total (counter)
//   - sql_restore_command_error_total (counter)
//   - sql_restore_chain_resolve_duration_seconds (histogram)
//   - sql_restore_chains_verified_total (counter)
//   - sql_restore_chains_rejected_total (counter)
func NewPrometheusCollector(config Config, logger logging.Logger) (*PrometheusCollector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	instance := config.InstanceLabel
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logger.Warn("не удалось получить hostname для metrics instance label, используется 'unknown'",
				"error", err.Error())
			hostname = "unknown"
		}
		instance = hostname
	}

	registry := prometheus.NewRegistry()

	// Buckets покрывают диапазон от быстрых команд (0.1s) до многочасовых восстановлений
	commandDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sql_restore",
			Name:      "command_duration_seconds",
			Help:      "Duration of command execution in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 1800, 7200},
		},
		[]string{"command", "database", "status"},
	)

	// Counter для успешных команд.
	// Примечание: success/error counters дублируют histogram counts, но оставлены
	// для простых PromQL запросов без агрегации по histogram.
	commandSuccess := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sql_restore",
			Name:      "command_success_total",
			Help:      "Total number of successful command executions",
		},
		[]string{"command", "database"},
	)

	commandError := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sql_restore",
			Name:      "command_error_total",
			Help:      "Total number of failed command executions",
		},
		[]string{"command", "database"},
	)

	// Разрешение цепочки — чистое вычисление, buckets субсекундные
	resolveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sql_restore",
			Name:      "chain_resolve_duration_seconds",
			Help:      "Duration of restore chain resolution in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"database"},
	)

	chainsVerified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sql_restore",
			Name:      "chains_verified_total",
			Help:      "Total number of verified restore chains",
		},
		[]string{"database"},
	)

	chainsRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sql_restore",
			Name:      "chains_rejected_total",
			Help:      "Total number of rejected restore chains by reject code",
		},
		[]string{"database", "code"},
	)

	// Регистрируем все метрики атомарно.
	// Используем Register вместо MustRegister для избежания panic.
	collectors := []prometheus.Collector{
		commandDuration, commandSuccess, commandError,
		resolveDuration, chainsVerified, chainsRejected,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("ошибка регистрации метрики: %w", err)
		}
	}

	return &PrometheusCollector{
		config:          config,
		logger:          logger,
		registry:        registry,
		commandDuration: commandDuration,
		commandSuccess:  commandSuccess,
		commandError:    commandError,
		resolveDuration: resolveDuration,
		chainsVerified:  chainsVerified,
		chainsRejected:  chainsRejected,
		instance:        instance,
	}, nil
}

// RecordCommandStart записывает начало выполнения команды.
// Для CLI не требуется отслеживать "in-flight" — записываем только при завершении.
func (c *PrometheusCollector) RecordCommandStart(command, database string) {
	c.logger.Debug("metrics: command started",
		"command", command,
		"database", database,
	)
}

// maxLabelLength — максимальная длина значения label для защиты от cardinality explosion.
const maxLabelLength = 128

// sanitizeLabel обрезает значение label до допустимой длины и удаляет
// контрольные символы (\n, \r, \0), которые могут нарушить Prometheus text format.
// Обрезка выполняется по рунам (не по байтам) для корректной работы с UTF-8.
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, value)

	runes := []rune(clean)
	if len(runes) > maxLabelLength {
		return string(runes[:maxLabelLength])
	}
	return clean
}

// RecordCommandEnd записывает завершение команды.
// Обновляет histogram duration и counter success/error.
func (c *PrometheusCollector) RecordCommandEnd(command, database string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}

	command = sanitizeLabel(command)
	database = sanitizeLabel(database)

	c.commandDuration.WithLabelValues(command, database, status).Observe(duration.Seconds())

	if success {
		c.commandSuccess.WithLabelValues(command, database).Inc()
	} else {
		c.commandError.WithLabelValues(command, database).Inc()
	}

	c.logger.Debug("metrics: command ended",
		"command", command,
		"database", database,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// ObserveResolveDuration записывает длительность разрешения цепочки.
func (c *PrometheusCollector) ObserveResolveDuration(database string, d time.Duration) {
	c.resolveDuration.WithLabelValues(sanitizeLabel(database)).Observe(d.Seconds())
}

// ChainVerified увеличивает счётчик верифицированных цепочек.
func (c *PrometheusCollector) ChainVerified(database string) {
	c.chainsVerified.WithLabelValues(sanitizeLabel(database)).Inc()
}

// ChainRejected увеличивает счётчик отклонённых цепочек.
func (c *PrometheusCollector) ChainRejected(database, code string) {
	c.chainsRejected.WithLabelValues(sanitizeLabel(database), sanitizeLabel(code)).Inc()
}

// Push отправляет метрики в Pushgateway.
// Возвращает nil даже при ошибке — ошибки метрик не критичны и логируются.
func (c *PrometheusCollector) Push(ctx context.Context) error {
	if c.config.PushgatewayURL == "" {
		c.logger.Debug("metrics: pushgateway URL not configured, skipping push")
		return nil
	}

	select {
	case <-ctx.Done():
		c.logger.Debug("metrics push отменён")
		return nil
	default:
	}

	pusher := push.New(c.config.PushgatewayURL, c.config.JobName).
		Gatherer(c.registry).
		Grouping("instance", c.instance)

	pushCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if err := pusher.PushContext(pushCtx); err != nil {
		c.logger.Error("ошибка отправки метрик в Pushgateway",
			"error", err.Error(),
			"url", urlutil.MaskURL(c.config.PushgatewayURL),
			"job", c.config.JobName,
		)
		return nil
	}

	c.logger.Info("метрики отправлены в Pushgateway",
		"url", urlutil.MaskURL(c.config.PushgatewayURL),
		"job", c.config.JobName,
		"instance", c.instance,
	)
	return nil
}

// GetRegistry возвращает внутренний registry для тестирования.
// Примечание: экспортируется только для unit-тестов.
func (c *PrometheusCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}
