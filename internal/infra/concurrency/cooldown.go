// Package concurrency — вспомогательная инфраструктура конкурентного исполнения.
// Данный файл содержит Cooldown — потокобезопасный журнал «последних действий»
// пользователей, который навязывает минимальный интервал между однотипными
// операциями (например, загрузками файлов). Используется обработчиком документов,
// чтобы один пользователь не заваливал бота файлами чаще разрешённого.
package concurrency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Cooldown хранит момент истечения паузы для каждого пользователя и решает,
// разрешено ли очередное действие. Структура потокобезопасна; фоновая горутина
// периодически вычищает истёкшие записи, чтобы карта не росла бесконечно.
type Cooldown struct {
	mu       sync.Mutex          // mu защищает доступ к карте until из параллельных горутин.
	until    map[int64]time.Time // userID -> момент, до которого действия запрещены.
	interval time.Duration       // минимальный интервал между действиями одного пользователя.

	runMu  sync.Mutex         // runMu защищает старт/остановку фоновой очистки.
	cancel context.CancelFunc // cancel завершает цикл очистки, если он был запущен.
	wg     sync.WaitGroup     // wg дожидается завершения фоновой горутины при остановке.
}

// NewCooldown создаёт журнал с минимальным интервалом intervalSec секунд.
// Нулевой интервал означает «без ограничений»: Reserve всегда разрешает действие.
func NewCooldown(intervalSec int) *Cooldown {
	return &Cooldown{
		until:    make(map[int64]time.Time),
		interval: time.Duration(intervalSec) * time.Second,
	}
}

// Reserve пытается зарезервировать действие для пользователя userID.
// Если пауза ещё не истекла, возвращает (false, остаток ожидания); иначе
// фиксирует новый дедлайн и возвращает (true, 0).
func (c *Cooldown) Reserve(userID int64) (bool, time.Duration) {
	if c.interval <= 0 {
		return true, 0
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := c.until[userID]; ok && now.Before(deadline) {
		return false, deadline.Sub(now)
	}
	c.until[userID] = now.Add(c.interval)
	return true, 0
}

// Start поднимает фоновую горутину очистки истёкших записей. Повторные вызовы
// безопасны и игнорируются. Если передан nil-контекст, запуск отменяется.
func (c *Cooldown) Start(ctx context.Context) {
	if ctx == nil {
		return
	}

	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Раз в минуту вычищаем просроченные записи.
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.cleanup()
			}
		}
	}()
}

// Stop корректно завершает фоновую очистку и дожидается её окончания.
func (c *Cooldown) Stop() {
	c.runMu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()
}

// cleanup удаляет записи с истёкшим дедлайном.
func (c *Cooldown) cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, deadline := range c.until {
		if now.After(deadline) {
			delete(c.until, id)
		}
	}
}

// String — диагностическое представление для логов.
func (c *Cooldown) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Cooldown{interval: %s, tracked: %d}", c.interval, len(c.until))
}
