// Package main: точка входа сервиса Drum.
// Загружает конфигурацию, собирает приложение, запускает фоновые задачи
// и отдаёт метрики Prometheus. Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/drum/internal/app"
	"serotonyl.ru/drum/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== Drum запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	// Контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Не удалось запустить планировщик")
	}
	// первые страницы лент сразу, не дожидаясь cron
	application.Scheduler.WarmListings(ctx)

	metrics := startMetrics(cfg.MetricsAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("=== Drum готов к работе ===")

	sig := <-quit
	log.Infof("Получен сигнал %s, останавливаемся...", sig)

	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Сервер метрик остановлен с ошибкой")
	}

	log.Info("=== Drum остановлен ===")
}

// startMetrics поднимает /metrics в отдельной горутине.
func startMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", addr).Info("Метрики Prometheus доступны на /metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Сервер метрик упал")
		}
	}()
	return srv
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
