// Запуск бота магазина звёзд: конфиг из окружения, миграции и
// пул Postgres, планировщик фоновых задач, цикл обновлений Telegram.
// SIGINT/SIGTERM завершают всё через отмену общего контекста.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"starbazar.ru/stars-bot/internal/app"
	"starbazar.ru/stars-bot/internal/config"
)

func main() {
	setupLogging()

	log.Info("Запуск бота")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	// Уровень из конфига применяем поверх дефолтного: до этой точки
	// логируем на DebugLevel, чтобы видеть ошибки самой загрузки.
	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.DB.Close()

	application.Scheduler.Start(ctx)
	defer application.Scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go application.Bot.Start(ctx)

	log.Info("Бот готов к работе")

	sig := <-quit
	log.Infof("Получен сигнал %s, останавливаемся", sig)

	// Отмена контекста останавливает цикл обновлений и планировщик.
	cancel()

	log.Info("Бот остановлен")
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
