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
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	MoviesAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movies_added_total",
		Help: "Количество фильмов, добавленных через админ-флоу",
	})

	WatchLaterSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watch_later_saves_total",
		Help: "Сохранения в «Смотреть позже» по результату",
	}, []string{"result"})

	BroadcastDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_deliveries_total",
		Help: "Доставки рассылки по статусу",
	}, []string{"status"})

	BroadcastDispatchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "broadcast_dispatch_seconds",
		Help:    "Время полной рассылки одного объявления",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		MoviesAddedTotal,
		WatchLaterSavesTotal,
		BroadcastDeliveriesTotal,
		BroadcastDispatchSeconds,
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

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
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

// IncWatchLaterSave увеличивает счётчик сохранений по результату.
func IncWatchLaterSave(added bool) {
	result := "added"
	if !added {
		result = "duplicate"
	}
	WatchLaterSavesTotal.WithLabelValues(result).Inc()
}

// IncBroadcastDelivery увеличивает счётчик доставок рассылки.
func IncBroadcastDelivery(err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	BroadcastDeliveriesTotal.WithLabelValues(status).Inc()
}
