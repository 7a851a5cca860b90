package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"telegram-quizbot/internal/app"
	"telegram-quizbot/internal/infra/config"
	"telegram-quizbot/internal/infra/logger"
)

func main() {
	// envPath определяет расположение .env с токеном бота и настройками.
	envPath := flag.String("env", ".env", "path to .env file")
	flag.Parse()

	// config.Load читает .env и фиксирует конфигурацию в singleton.
	if err := config.Load(*envPath); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger.Init(config.Env().LogLevel)
	if path := config.Env().LogFile; path != "" {
		logger.EnableFile(logger.FileConfig{
			Path:       path,
			Level:      config.Env().LogFileLevel,
			MaxSizeMB:  config.Env().LogFileMaxSize,
			MaxBackups: config.Env().LogFileMaxBackups,
			MaxAgeDays: config.Env().LogFileMaxAge,
			Compress:   config.Env().LogFileCompress,
		})
	}
	defer logger.Sync()

	for _, msg := range config.Warnings() {
		logger.Warn(msg)
	}

	// Контекст с обработкой системных сигналов (Ctrl+C/SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(config.Env())
	if err != nil {
		stop()
		logger.Fatal("app init failed", zap.Error(err))
	}

	// Основной цикл; блокируется до shutdown.
	if err := a.Run(ctx); err != nil {
		stop()
		logger.Fatal("app run failed", zap.Error(err))
	}
	logger.Info("Graceful shutdown complete")
}
