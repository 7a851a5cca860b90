// Package collect — накопление пересланных квизов по пользователям.
//
// Пользователь нажимает «извлечь квизы», после чего бот складывает каждый
// пересланный quiz-опрос в его сессию, пока не придёт сигнал завершения.
// Сессия живёт ограниченное время (TTL), недособранные партии вычищаются
// фоновой горутиной и лениво при обращении. Пакет потокобезопасен: параллельные
// пользователи работают с независимыми сессиями под общим мьютексом.
package collect

import (
	"context"
	"sync"
	"time"

	"telegram-quizbot/internal/domain/quiz"
)

// session — партия вопросов одного пользователя с дедлайном жизни.
type session struct {
	questions []quiz.Question
	expiresAt time.Time
}

// Collector управляет сессиями сбора пересланных квизов.
type Collector struct {
	mu       sync.Mutex
	sessions map[int64]*session
	ttl      time.Duration

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector создаёт коллектор с временем жизни сессии ttl.
// Неположительный ttl означает «без истечения».
func NewCollector(ttl time.Duration) *Collector {
	return &Collector{
		sessions: make(map[int64]*session),
		ttl:      ttl,
	}
}

// Begin открывает (или сбрасывает) сессию пользователя.
func (c *Collector) Begin(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[userID] = &session{expiresAt: c.deadline()}
}

// Add добавляет вопрос в открытую сессию и возвращает её новый размер.
// Если сессии нет (или она истекла), возвращает (0, false).
func (c *Collector) Add(userID int64, q quiz.Question) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.liveLocked(userID)
	if s == nil {
		return 0, false
	}
	s.questions = append(s.questions, q)
	s.expiresAt = c.deadline()
	return len(s.questions), true
}

// Active сообщает, открыта ли сессия пользователя.
func (c *Collector) Active(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveLocked(userID) != nil
}

// Take забирает накопленную партию и закрывает сессию.
// false — сессии не было либо она успела истечь.
func (c *Collector) Take(userID int64) ([]quiz.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.liveLocked(userID)
	if s == nil {
		return nil, false
	}
	delete(c.sessions, userID)
	return s.questions, true
}

// Cancel закрывает сессию, отбрасывая накопленное. false — сессии не было.
func (c *Collector) Cancel(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[userID]; !ok {
		return false
	}
	delete(c.sessions, userID)
	return true
}

// Start поднимает фоновую очистку истёкших сессий. Повторные вызовы игнорируются.
func (c *Collector) Start(ctx context.Context) {
	if ctx == nil || c.ttl <= 0 {
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
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// Stop завершает фоновую очистку и дожидается её окончания.
func (c *Collector) Stop() {
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

// liveLocked возвращает живую сессию пользователя либо nil, удаляя истёкшую.
// Вызывающий удерживает mu.
func (c *Collector) liveLocked(userID int64) *session {
	s, ok := c.sessions[userID]
	if !ok {
		return nil
	}
	if c.ttl > 0 && time.Now().After(s.expiresAt) {
		delete(c.sessions, userID)
		return nil
	}
	return s
}

// deadline вычисляет момент истечения новой записи.
func (c *Collector) deadline() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}

// sweep удаляет истёкшие сессии.
func (c *Collector) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, s := range c.sessions {
		if now.After(s.expiresAt) {
			delete(c.sessions, id)
		}
	}
}
