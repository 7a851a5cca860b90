package app

import (
	"encoding/json"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-quizbot/internal/adapters/botapi"
	"telegram-quizbot/internal/domain/quiz"
	"telegram-quizbot/internal/domain/users"
	"telegram-quizbot/internal/infra/config"
)

// fakeStore — хранилище пользователей в памяти для тестов обработчиков.
type fakeStore struct {
	users   map[int64]users.User
	allowed map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]users.User), allowed: make(map[int64]bool)}
}

func (f *fakeStore) Upsert(u users.User) error { f.users[u.ID] = u; return nil }
func (f *fakeStore) Get(id int64) (users.User, bool, error) {
	u, ok := f.users[id]
	return u, ok, nil
}
func (f *fakeStore) List() ([]users.User, error)           { return nil, nil }
func (f *fakeStore) Allow(u users.User) error              { f.allowed[u.ID] = true; return nil }
func (f *fakeStore) Disallow(id int64) (bool, error)       { ok := f.allowed[id]; delete(f.allowed, id); return ok, nil }
func (f *fakeStore) IsAllowed(id int64) (bool, error)      { return f.allowed[id], nil }
func (f *fakeStore) ListAllowed() ([]users.User, error)    { return nil, nil }
func (f *fakeStore) Close() error                          { return nil }

func commandMessage(userID int64, text string) *tgbotapi.Message {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}
}

func TestAllowAccess(t *testing.T) {
	store := newFakeStore()
	store.allowed[200] = true

	a := &App{
		cfg:   config.EnvConfig{AdminIDs: []int64{100}},
		store: store,
	}

	cases := []struct {
		name string
		msg  *tgbotapi.Message
		want bool
	}{
		{name: "admin plain message", msg: &tgbotapi.Message{From: &tgbotapi.User{ID: 100}, Text: "hello"}, want: true},
		{name: "allowed user", msg: &tgbotapi.Message{From: &tgbotapi.User{ID: 200}, Text: "hello"}, want: true},
		{name: "stranger plain message", msg: &tgbotapi.Message{From: &tgbotapi.User{ID: 300}, Text: "hello"}, want: false},
		{name: "stranger /start", msg: commandMessage(300, "/start"), want: true},
		{name: "stranger /help", msg: commandMessage(300, "/help"), want: true},
		{name: "stranger /myaccess", msg: commandMessage(300, "/myaccess"), want: true},
		{name: "stranger /userlist", msg: commandMessage(300, "/userlist"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.allowAccess(tc.msg); got != tc.want {
				t.Fatalf("allowAccess() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPollToQuestion(t *testing.T) {
	t.Parallel()

	poll := &tgbotapi.Poll{
		Question: "Capital of France?",
		Type:     "quiz",
		Options: []tgbotapi.PollOption{
			{Text: "London"},
			{Text: "Paris"},
		},
		CorrectOptionID: 1,
	}

	q := pollToQuestion(poll, true)
	if q.Text != "Capital of France?" {
		t.Fatalf("Text = %q", q.Text)
	}
	if len(q.Options) != 2 || q.Options[1] != "Paris" {
		t.Fatalf("Options = %v", q.Options)
	}
	if q.Correct != 1 {
		t.Fatalf("Correct = %d, want 1", q.Correct)
	}

	poll.CorrectOptionID = 5
	if q := pollToQuestion(poll, true); q.HasAnswer() {
		t.Fatal("out of range correct option must yield no answer")
	}

	poll.Type = "regular"
	poll.CorrectOptionID = 0
	if q := pollToQuestion(poll, true); q.HasAnswer() {
		t.Fatal("regular poll must yield no answer")
	}
}

func TestPollToQuestionHiddenAnswer(t *testing.T) {
	t.Parallel()

	// Пересланный незакрытый квиз: Bot API не присылает correct_option_id,
	// после декодирования поле равно нулю. Ноль не должен превращаться в
	// «правильный вариант a».
	raw := `{
		"id": "42",
		"question": "Capital of the UK?",
		"options": [
			{"text": "London", "voter_count": 0},
			{"text": "Paris", "voter_count": 0}
		],
		"total_voter_count": 0,
		"is_closed": false,
		"is_anonymous": true,
		"type": "quiz",
		"allows_multiple_answers": false
	}`
	var poll tgbotapi.Poll
	if err := json.Unmarshal([]byte(raw), &poll); err != nil {
		t.Fatal(err)
	}
	if poll.CorrectOptionID != 0 {
		t.Fatalf("CorrectOptionID decoded to %d, expected zero value", poll.CorrectOptionID)
	}

	if q := pollToQuestion(&poll, poll.IsClosed); q.HasAnswer() {
		t.Fatalf("hidden correct option must yield no answer, got Correct = %d", q.Correct)
	}

	// Тот же квиз после закрытия раскрывает ответ, ноль становится валидным.
	poll.IsClosed = true
	if q := pollToQuestion(&poll, poll.IsClosed); !q.HasAnswer() || q.Correct != 0 {
		t.Fatalf("closed quiz must keep option 0 as the answer, got Correct = %d", q.Correct)
	}
}

func TestExtractionSummary(t *testing.T) {
	t.Parallel()

	report := quiz.Report{
		Skipped: []quiz.Skip{
			{Block: 1, Reason: "found only 1 option(s), need at least 2"},
			{Block: 3, Reason: "duplicate question"},
		},
		Unresolved: 1,
	}
	sent := botapi.SendReport{Sent: 3, Failed: 1, FailedNumbers: []int{2}}

	got := extractionSummary(4, sent, report)

	for _, want := range []string{
		"✅ Successfully extracted 4 questions",
		"- Sent as quizzes: 3",
		"- Failed to send: 1",
		"Failed question numbers: 2",
		"- Without a known answer: 1",
		"⚠️ Skipped 2 questions",
		"duplicate question",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSessionsStateMachine(t *testing.T) {
	t.Parallel()

	s := newSessions()
	if s.state(1) != stateIdle {
		t.Fatal("new user must be idle")
	}

	s.setState(1, stateWaitingForFile)
	if s.state(1) != stateWaitingForFile {
		t.Fatal("state not stored")
	}

	s.setState(1, stateIdle)
	if s.state(1) != stateIdle {
		t.Fatal("state not reset")
	}
}

func TestSessionsQuizNumbering(t *testing.T) {
	t.Parallel()

	s := newSessions()
	if n := s.quizStart(5); n != 1 {
		t.Fatalf("quizStart() = %d, want 1", n)
	}
	s.setQuizStart(5, 7)
	if n := s.quizStart(5); n != 7 {
		t.Fatalf("quizStart() = %d, want 7", n)
	}
	if n := s.quizStart(6); n != 1 {
		t.Fatalf("other chat quizStart() = %d, want 1", n)
	}
}

func TestParseUserIDArg(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{in: "12345", want: 12345, ok: true},
		{in: "  12345  ", want: 12345, ok: true},
		{in: "", ok: false},
		{in: "abc", ok: false},
		{in: "-42", want: -42, ok: true},
	}

	for _, tc := range cases {
		got, ok := parseUserIDArg(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseUserIDArg(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
