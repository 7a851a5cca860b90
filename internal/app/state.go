package app

// В этом файле (state.go): конечный автомат пользовательских сценариев и
// кэш последних извлечённых вопросов. Всё состояние живёт в памяти под
// одним мьютексом: бот обслуживает небольшое число пользователей, а после
// рестарта сценарий начинается заново.

import (
	"sync"
	"time"

	"telegram-quizbot/internal/domain/quiz"
)

// userState — этап сценария, в котором находится пользователь.
type userState int

const (
	stateIdle userState = iota
	// stateWaitingForFile — нажата «Create Quiz», ждём документ.
	stateWaitingForFile
	// stateCollecting — идёт сбор пересланных квизов.
	stateCollecting
	// stateExtracting — файл обработан, доступны inline-кнопки результата.
	stateExtracting
)

// extraction — результат последней обработки файла пользователем.
type extraction struct {
	questions []quiz.Question
	report    quiz.Report
	at        time.Time
}

// sessions хранит состояния пользователей, кэш извлечений и счётчики
// сквозной нумерации квизов по чатам.
type sessions struct {
	mu        sync.Mutex
	states    map[int64]userState
	extracted map[int64]extraction
	quizNum   map[int64]int
}

func newSessions() *sessions {
	return &sessions{
		states:    make(map[int64]userState),
		extracted: make(map[int64]extraction),
		quizNum:   make(map[int64]int),
	}
}

// state возвращает текущее состояние пользователя, по умолчанию idle.
func (s *sessions) state(userID int64) userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

func (s *sessions) setState(userID int64, st userState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == stateIdle {
		delete(s.states, userID)
		return
	}
	s.states[userID] = st
}

// saveExtraction запоминает результат обработки файла для inline-кнопок.
func (s *sessions) saveExtraction(userID int64, questions []quiz.Question, report quiz.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracted[userID] = extraction{questions: questions, report: report, at: time.Now()}
}

func (s *sessions) lastExtraction(userID int64) (extraction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.extracted[userID]
	return e, ok
}

func (s *sessions) dropExtraction(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.extracted, userID)
}

// quizStart возвращает стартовый номер для следующей партии квизов в чате.
func (s *sessions) quizStart(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.quizNum[chatID]; ok {
		return n
	}
	return 1
}

// setQuizStart фиксирует номер, с которого продолжится следующая партия.
func (s *sessions) setQuizStart(chatID int64, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizNum[chatID] = n
}
