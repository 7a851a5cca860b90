// Package app — верхний уровень сборки и запуска квиз-бота.
// Здесь связываются конфигурация, клиент Bot API, хранилище пользователей,
// кулдаун загрузок и коллектор пересланных квизов. Отсюда стартует цикл
// long polling и обеспечивается корректный shutdown.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-quizbot/internal/adapters/botapi"
	"telegram-quizbot/internal/domain/collect"
	"telegram-quizbot/internal/domain/users"
	"telegram-quizbot/internal/infra/concurrency"
	"telegram-quizbot/internal/infra/config"
	"telegram-quizbot/internal/infra/logger"
	"telegram-quizbot/internal/infra/storage"
)

// App агрегирует зависимости бота и управляет их жизненным циклом.
// Отвечает за:
//   - клиент Bot API и троттлинг исходящих запросов,
//   - хранилище пользователей и списка допущенных,
//   - кулдаун между файлами и сессии сбора пересланных квизов,
//   - маршрутизацию входящих апдейтов на обработчики сценариев.
type App struct {
	cfg       config.EnvConfig
	api       *tgbotapi.BotAPI
	sender    *botapi.Sender
	store     users.Store
	cooldown  *concurrency.Cooldown
	collector *collect.Collector
	sessions  *sessions
}

// New собирает приложение по конфигурации: авторизует бота, открывает
// хранилище пользователей и готовит инфраструктуру сценариев.
func New(cfg config.EnvConfig) (*App, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "авторизация бота")
	}
	logger.Infof("Авторизован как @%s", api.Self.UserName)

	// Каталог для скачиваемых файлов должен существовать до первого upload.
	if err := storage.EnsureDir(filepath.Join(cfg.TempDir, "upload.tmp")); err != nil {
		return nil, errors.Wrap(err, "каталог временных файлов")
	}

	store, err := users.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "хранилище пользователей")
	}

	return &App{
		cfg:       cfg,
		api:       api,
		sender:    botapi.NewSender(api, cfg.SendRPS, cfg.TempDir),
		store:     store,
		cooldown:  concurrency.NewCooldown(cfg.MinFileIntervalSec),
		collector: collect.NewCollector(cfg.BatchTTL()),
		sessions:  newSessions(),
	}, nil
}

// Run запускает фоновые службы и цикл long polling. Блокируется до отмены
// ctx, после чего останавливает приём апдейтов и закрывает хранилище.
func (a *App) Run(ctx context.Context) error {
	a.cooldown.Start(ctx)
	a.collector.Start(ctx)
	defer a.cooldown.Stop()
	defer a.collector.Stop()
	defer func() {
		if err := a.store.Close(); err != nil {
			logger.Errorf("Закрытие хранилища: %v", err)
		}
	}()

	a.notifyLogChannel(ctx, "🚀 Bot has started successfully!")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = a.cfg.PollTimeoutSec
	updates := a.api.GetUpdatesChan(u)

	logger.Info("Бот запущен, принимаю апдейты")
	for {
		select {
		case <-ctx.Done():
			a.api.StopReceivingUpdates()
			logger.Info("Приём апдейтов остановлен")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("канал апдейтов закрыт")
			}
			a.handleUpdate(ctx, update)
		}
	}
}

// notifyLogChannel шлёт служебное сообщение в лог-канал, если тот настроен.
// Недоставка не считается фатальной.
func (a *App) notifyLogChannel(ctx context.Context, text string) {
	if a.cfg.LogChannelID == 0 {
		return
	}
	if err := a.sender.SendText(ctx, a.cfg.LogChannelID, text, nil); err != nil {
		logger.Errorf("Лог-канал недоступен: %v", err)
	}
}

// reportError уведомляет лог-канал о сбое обработчика и логирует его.
func (a *App) reportError(ctx context.Context, where string, err error) {
	logger.Errorf("Ошибка в %s: %v", where, err)
	a.notifyLogChannel(ctx, fmt.Sprintf("❌ Exception in handler %s:\n%v", where, err))
}
