// Файл boltstore.go — бэкенд Store поверх bbolt.
// Две корзины: bucketUsers (все, кто прислал /start) и bucketAllowed
// (allow-list). Записи хранятся как JSON, ключ — big-endian представление ID,
// что даёт стабильный порядок обхода курсором.
package users

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"go.etcd.io/bbolt"

	"telegram-quizbot/internal/infra/storage"
)

var (
	bucketUsers   = []byte("users")
	bucketAllowed = []byte("allowed")
)

// openTimeout ограничивает ожидание файловой блокировки базы: второй процесс
// поверх той же базы должен падать быстро и внятно, а не висеть.
const openTimeout = time.Second

// BoltStore реализует Store поверх одной bbolt-базы.
// Потокобезопасность обеспечивается транзакциями bbolt.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt открывает (при необходимости создавая) базу и обе корзины.
func OpenBolt(path string) (*BoltStore, error) {
	if err := storage.EnsureDir(path); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt db")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists(bucketUsers); errB != nil {
			return errB
		}
		_, errB := tx.CreateBucketIfNotExists(bucketAllowed)
		return errB
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}
	return &BoltStore{db: db}, nil
}

// Close закрывает базу.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Upsert регистрирует пользователя, сохраняя исходный JoinedAt при обновлении.
func (s *BoltStore) Upsert(u User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if raw := b.Get(idKey(u.ID)); raw != nil {
			var prev User
			if err := json.Unmarshal(raw, &prev); err == nil && !prev.JoinedAt.IsZero() {
				u.JoinedAt = prev.JoinedAt
			}
		}
		if u.JoinedAt.IsZero() {
			u.JoinedAt = time.Now().UTC()
		}
		return putUser(b, u)
	})
}

// Get возвращает пользователя по ID.
func (s *BoltStore) Get(id int64) (User, bool, error) {
	var (
		u     User
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketUsers).Get(idKey(id))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &u); err != nil {
			return errors.Wrap(err, "decode user")
		}
		found = true
		return nil
	})
	return u, found, err
}

// List возвращает всех пользователей в порядке регистрации.
func (s *BoltStore) List() ([]User, error) {
	return s.collect(bucketUsers)
}

// Allow включает пользователя в allow-list. Идемпотентно.
func (s *BoltStore) Allow(u User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAllowed)
		if b.Get(idKey(u.ID)) != nil {
			return nil
		}
		if u.JoinedAt.IsZero() {
			u.JoinedAt = time.Now().UTC()
		}
		return putUser(b, u)
	})
}

// Disallow исключает пользователя из allow-list.
func (s *BoltStore) Disallow(id int64) (bool, error) {
	var removed bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAllowed)
		if b.Get(idKey(id)) == nil {
			return nil
		}
		removed = true
		return b.Delete(idKey(id))
	})
	return removed, err
}

// IsAllowed проверяет наличие пользователя в allow-list.
func (s *BoltStore) IsAllowed(id int64) (bool, error) {
	var allowed bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		allowed = tx.Bucket(bucketAllowed).Get(idKey(id)) != nil
		return nil
	})
	return allowed, err
}

// ListAllowed возвращает allow-list в порядке добавления.
func (s *BoltStore) ListAllowed() ([]User, error) {
	return s.collect(bucketAllowed)
}

// collect вычитывает корзину целиком и сортирует по времени регистрации.
func (s *BoltStore) collect(bucket []byte) ([]User, error) {
	var list []User
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, raw []byte) error {
			var u User
			if err := json.Unmarshal(raw, &u); err != nil {
				return errors.Wrap(err, "decode user")
			}
			list = append(list, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByJoined(list)
	return list, nil
}

// putUser сериализует запись и кладёт её в корзину.
func putUser(b *bbolt.Bucket, u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}
	return b.Put(idKey(u.ID), raw)
}

// idKey кодирует ID ключом фиксированной длины для стабильного порядка курсора.
func idKey(id int64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key[:]
}
