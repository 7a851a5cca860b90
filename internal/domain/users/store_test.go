package users_test

import (
	"path/filepath"
	"testing"
	"time"

	"telegram-quizbot/internal/domain/users"
)

// openBackends возвращает по одному экземпляру каждого бэкенда на временных файлах.
func openBackends(t *testing.T) map[string]users.Store {
	t.Helper()
	dir := t.TempDir()

	bolt, err := users.OpenBolt(filepath.Join(dir, "quizbot.bbolt"))
	if err != nil {
		t.Fatalf("OpenBolt() error: %v", err)
	}
	t.Cleanup(func() { _ = bolt.Close() })

	files, err := users.OpenFiles(filepath.Join(dir, "users.json"), filepath.Join(dir, "allowed.json"))
	if err != nil {
		t.Fatalf("OpenFiles() error: %v", err)
	}
	t.Cleanup(func() { _ = files.Close() })

	return map[string]users.Store{"bolt": bolt, "json": files}
}

func TestStoreUpsertAndGet(t *testing.T) {
	t.Parallel()

	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			joined := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			u := users.User{ID: 42, Username: "alice", FirstName: "Alice", JoinedAt: joined}
			if err := store.Upsert(u); err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}

			// Повторный Upsert меняет username, но не время регистрации.
			if err := store.Upsert(users.User{ID: 42, Username: "alice2", FirstName: "Alice"}); err != nil {
				t.Fatalf("second Upsert() error: %v", err)
			}

			got, found, err := store.Get(42)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if !found {
				t.Fatal("Get() found = false, want true")
			}
			if got.Username != "alice2" {
				t.Fatalf("Username = %q, want %q", got.Username, "alice2")
			}
			if !got.JoinedAt.Equal(joined) {
				t.Fatalf("JoinedAt = %v, want %v", got.JoinedAt, joined)
			}

			if _, found, _ := store.Get(99); found {
				t.Fatal("Get(99) found unknown user")
			}
		})
	}
}

func TestStoreListOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			// Регистрируем в обратном хронологическом порядке.
			for i := 3; i >= 1; i-- {
				u := users.User{ID: int64(i), Username: "u", JoinedAt: base.Add(time.Duration(i) * time.Hour)}
				if err := store.Upsert(u); err != nil {
					t.Fatalf("Upsert() error: %v", err)
				}
			}

			list, err := store.List()
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			if len(list) != 3 {
				t.Fatalf("List() = %d users, want 3", len(list))
			}
			for i, u := range list {
				if u.ID != int64(i+1) {
					t.Fatalf("List()[%d].ID = %d, want %d", i, u.ID, i+1)
				}
			}
		})
	}
}

func TestStoreAllowList(t *testing.T) {
	t.Parallel()

	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			u := users.User{ID: 7, Username: "bob", JoinedAt: time.Now().UTC()}

			if allowed, _ := store.IsAllowed(7); allowed {
				t.Fatal("IsAllowed() = true before Allow")
			}
			if err := store.Allow(u); err != nil {
				t.Fatalf("Allow() error: %v", err)
			}
			// Повторный Allow идемпотентен.
			if err := store.Allow(u); err != nil {
				t.Fatalf("repeated Allow() error: %v", err)
			}

			allowed, err := store.IsAllowed(7)
			if err != nil {
				t.Fatalf("IsAllowed() error: %v", err)
			}
			if !allowed {
				t.Fatal("IsAllowed() = false after Allow")
			}

			list, err := store.ListAllowed()
			if err != nil {
				t.Fatalf("ListAllowed() error: %v", err)
			}
			if len(list) != 1 || list[0].ID != 7 {
				t.Fatalf("ListAllowed() = %#v, want single user 7", list)
			}

			removed, err := store.Disallow(7)
			if err != nil {
				t.Fatalf("Disallow() error: %v", err)
			}
			if !removed {
				t.Fatal("Disallow() removed = false, want true")
			}
			if removed, _ := store.Disallow(7); removed {
				t.Fatal("second Disallow() removed = true, want false")
			}
			if allowed, _ := store.IsAllowed(7); allowed {
				t.Fatal("IsAllowed() = true after Disallow")
			}
		})
	}
}

// Файловый бэкенд должен переживать повторное открытие.
func TestFileStoreReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users.json")
	allowedPath := filepath.Join(dir, "allowed.json")

	first, err := users.OpenFiles(usersPath, allowedPath)
	if err != nil {
		t.Fatalf("OpenFiles() error: %v", err)
	}
	u := users.User{ID: 1, Username: "carol", JoinedAt: time.Now().UTC().Truncate(time.Second)}
	if err := first.Upsert(u); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := first.Allow(u); err != nil {
		t.Fatalf("Allow() error: %v", err)
	}

	second, err := users.OpenFiles(usersPath, allowedPath)
	if err != nil {
		t.Fatalf("reopen OpenFiles() error: %v", err)
	}
	if _, found, _ := second.Get(1); !found {
		t.Fatal("user lost after reload")
	}
	if allowed, _ := second.IsAllowed(1); !allowed {
		t.Fatal("allow-list lost after reload")
	}
}
