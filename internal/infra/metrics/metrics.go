package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ResyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_resync_total",
		Help: "Количество полных перечитываний очереди",
	}, []string{"status"})
	ResyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "queue_resync_duration_seconds",
		Help:    "Длительность перечитывания очереди",
		Buckets: prometheus.DefBuckets,
	})
	QuarantinedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_quarantined_rows_total",
		Help: "Строки очереди, отброшенные при проверке формы",
	})
	QueueItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_items",
		Help: "Количество задач в кэше",
	})
	RealtimeEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_events_total",
		Help: "Полученные уведомления об изменениях очереди",
	})
	ProjectedEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_projected_entries",
		Help: "Количество прогнозных записей в последней ленте",
	})
	WorkerOnline = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worker_online",
		Help: "Доступность внешнего воркера (1: онлайн)",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ResyncTotal,
		ResyncDuration,
		QuarantinedRows,
		QueueItems,
		RealtimeEvents,
		ProjectedEntries,
		WorkerOnline,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveResync записывает результат перечитывания очереди.
func ObserveResync(start time.Time, items, quarantined int, err error) {
	ResyncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ResyncTotal.WithLabelValues("error").Inc()
		return
	}
	ResyncTotal.WithLabelValues("success").Inc()
	QueueItems.Set(float64(items))
	if quarantined > 0 {
		QuarantinedRows.Add(float64(quarantined))
	}
}

// SetWorkerOnline отражает состояние воркера в метрике.
func SetWorkerOnline(online bool) {
	if online {
		WorkerOnline.Set(1)
		return
	}
	WorkerOnline.Set(0)
}
