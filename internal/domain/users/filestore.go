// Файл filestore.go — бэкенд Store поверх пары JSON-файлов (users.json и
// allowed_users.json). Файлы читаются при открытии и целиком переписываются
// атомарно при каждом изменении; отсутствующий или битый файл трактуется как
// пустой список с предупреждением в лог.
package users

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"telegram-quizbot/internal/infra/logger"
	"telegram-quizbot/internal/infra/storage"
)

// FileStore реализует Store поверх двух JSON-файлов. Всё состояние держится в
// памяти под мьютексом; диск — только точка долговременности.
type FileStore struct {
	mu          sync.Mutex
	usersPath   string
	allowedPath string
	users       map[int64]User
	allowed     map[int64]User
}

// OpenFiles загружает оба файла (создавая пустые списки при их отсутствии).
func OpenFiles(usersPath, allowedPath string) (*FileStore, error) {
	usersList, err := loadUserFile(usersPath)
	if err != nil {
		return nil, err
	}
	allowedList, err := loadUserFile(allowedPath)
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		usersPath:   usersPath,
		allowedPath: allowedPath,
		users:       indexByID(usersList),
		allowed:     indexByID(allowedList),
	}
	return s, nil
}

// Close у файлового бэкенда ничего не освобождает.
func (s *FileStore) Close() error {
	return nil
}

// Upsert регистрирует пользователя, сохраняя исходный JoinedAt при обновлении.
func (s *FileStore) Upsert(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.users[u.ID]; ok && !prev.JoinedAt.IsZero() {
		u.JoinedAt = prev.JoinedAt
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return s.persistLocked(s.usersPath, s.users)
}

// Get возвращает пользователя по ID.
func (s *FileStore) Get(id int64) (User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok, nil
}

// List возвращает всех пользователей в порядке регистрации.
func (s *FileStore) List() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.users), nil
}

// Allow включает пользователя в allow-list. Идемпотентно.
func (s *FileStore) Allow(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.allowed[u.ID]; ok {
		return nil
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	s.allowed[u.ID] = u
	return s.persistLocked(s.allowedPath, s.allowed)
}

// Disallow исключает пользователя из allow-list.
func (s *FileStore) Disallow(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.allowed[id]; !ok {
		return false, nil
	}
	delete(s.allowed, id)
	return true, s.persistLocked(s.allowedPath, s.allowed)
}

// IsAllowed проверяет наличие пользователя в allow-list.
func (s *FileStore) IsAllowed(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.allowed[id]
	return ok, nil
}

// ListAllowed возвращает allow-list в порядке добавления.
func (s *FileStore) ListAllowed() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.allowed), nil
}

// persistLocked атомарно переписывает файл списком из карты.
// Вызывающий уже удерживает mu.
func (s *FileStore) persistLocked(path string, m map[int64]User) error {
	raw, err := json.MarshalIndent(sortedValues(m), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode user list")
	}
	return storage.AtomicWriteFile(path, raw)
}

// loadUserFile читает JSON-список пользователей. Отсутствующий файл — пустой
// список; битый JSON — пустой список с предупреждением (данные перепишутся при
// первом изменении).
func loadUserFile(path string) ([]User, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) || (err == nil && len(raw) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var list []User
	if errJSON := json.Unmarshal(raw, &list); errJSON != nil {
		logger.Warnf("FileStore: failed to decode %s: %v; starting with empty list", path, errJSON)
		return nil, nil
	}
	return list, nil
}

// indexByID строит карту ID → User из списка.
func indexByID(list []User) map[int64]User {
	m := make(map[int64]User, len(list))
	for _, u := range list {
		m[u.ID] = u
	}
	return m
}

// sortedValues возвращает значения карты в порядке регистрации.
func sortedValues(m map[int64]User) []User {
	list := make([]User, 0, len(m))
	for _, u := range m {
		list = append(list, u)
	}
	sortByJoined(list)
	return list
}
