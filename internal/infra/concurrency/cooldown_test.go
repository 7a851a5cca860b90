package concurrency_test

import (
	"testing"
	"time"

	"telegram-quizbot/internal/infra/concurrency"
)

func TestCooldownReserve(t *testing.T) {
	t.Parallel()

	c := concurrency.NewCooldown(60)

	ok, wait := c.Reserve(1)
	if !ok || wait != 0 {
		t.Fatalf("first Reserve() = (%v, %v), want (true, 0)", ok, wait)
	}

	ok, wait = c.Reserve(1)
	if ok {
		t.Fatal("second Reserve() within interval must be rejected")
	}
	if wait <= 0 || wait > 60*time.Second {
		t.Fatalf("remaining wait = %v, want within (0, 60s]", wait)
	}

	// Другой пользователь не задет чужим кулдауном.
	if ok, _ := c.Reserve(2); !ok {
		t.Fatal("Reserve() for another user must pass")
	}
}

func TestCooldownZeroInterval(t *testing.T) {
	t.Parallel()

	c := concurrency.NewCooldown(0)
	for i := 0; i < 3; i++ {
		if ok, _ := c.Reserve(1); !ok {
			t.Fatal("zero interval must never reject")
		}
	}
}
