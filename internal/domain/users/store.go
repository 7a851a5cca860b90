// Package users — хранилище пользователей бота и allow-list доступа.
//
// Назначение:
//   Бот запоминает каждого, кто прислал /start (таблица «users»), а доступ к
//   функциональности выдаётся администраторами отдельно (таблица «allowed»).
//   Пакет предоставляет единый интерфейс Store и два бэкенда: bbolt-база и
//   пара JSON-файлов с атомарной записью. Бэкенд выбирается конфигурацией.
//
// Ядро извлечения вопросов это хранилище не трогает: доступ проверяет только
// слой обработчиков.
package users

import (
	"fmt"
	"sort"
	"time"

	"telegram-quizbot/internal/infra/config"
)

// User — запись о пользователе Telegram. JoinedAt фиксируется при первом /start.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	JoinedAt  time.Time `json:"date_joined"`
}

// Store — контракт хранилища пользователей. Реализации потокобезопасны.
type Store interface {
	// Upsert регистрирует пользователя; повторный вызов обновляет username и
	// имя, сохраняя исходный JoinedAt.
	Upsert(u User) error
	// Get возвращает пользователя по ID; второй результат — признак наличия.
	Get(id int64) (User, bool, error)
	// List возвращает всех известных пользователей в порядке регистрации.
	List() ([]User, error)
	// Allow включает пользователя в allow-list. Идемпотентно.
	Allow(u User) error
	// Disallow исключает пользователя из allow-list; false — его там не было.
	Disallow(id int64) (bool, error)
	// IsAllowed сообщает, есть ли пользователь в allow-list.
	IsAllowed(id int64) (bool, error)
	// ListAllowed возвращает allow-list в порядке добавления.
	ListAllowed() ([]User, error)
	// Close освобождает ресурсы бэкенда.
	Close() error
}

// Open создаёт хранилище согласно выбранному в конфигурации бэкенду.
func Open(env config.EnvConfig) (Store, error) {
	switch env.StorageBackend {
	case config.BackendBolt:
		return OpenBolt(env.BoltFile)
	case config.BackendJSON:
		return OpenFiles(env.UsersFile, env.AllowedUsersFile)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", env.StorageBackend)
	}
}

// sortByJoined упорядочивает список по времени регистрации, при равенстве — по ID.
// Общий помощник обоих бэкендов, чтобы выдача была детерминированной.
func sortByJoined(list []User) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].JoinedAt.Before(list[j].JoinedAt)
	})
}
