package quiz_test

import (
	"reflect"
	"testing"

	"telegram-quizbot/internal/domain/quiz"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		q    quiz.Question
		want string
	}{
		{
			name: "withAnswer",
			q:    quiz.Question{Text: "What is 2+2?", Options: []string{"3", "4", "5"}, Correct: 1},
			want: "What is 2+2?\na) 3\nb) 4\nc) 5\nAnswer: b",
		},
		{
			name: "withoutAnswerOmitsAnswerLine",
			q:    quiz.Question{Text: "Unknown?", Options: []string{"yes", "no"}, Correct: quiz.NoAnswer},
			want: "Unknown?\na) yes\nb) no",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := quiz.Format(tc.q); got != tc.want {
				t.Fatalf("Format() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatNumberedStripsExistingNumbering(t *testing.T) {
	t.Parallel()

	q := quiz.Question{Text: "7. Old number?", Options: []string{"a", "b"}, Correct: 0}
	got := quiz.FormatNumbered(q, 3)
	want := "3. Old number?\na) a\nb) b\nAnswer: a"
	if got != want {
		t.Fatalf("FormatNumbered() = %q, want %q", got, want)
	}
}

// Закон обратимости: Extract(Format(q)) воспроизводит q для любого вопроса,
// удовлетворяющего инвариантам модели.
func TestFormatExtractRoundTrip(t *testing.T) {
	t.Parallel()

	questions := []quiz.Question{
		{Text: "What is 2+2?", Options: []string{"3", "4", "5"}, Correct: 1},
		{Text: "Capital of France?", Options: []string{"Paris", "London", "Rome", "Berlin"}, Correct: 0},
		{Text: "No answer known", Options: []string{"one", "two"}, Correct: quiz.NoAnswer},
		{Text: "Last letter wins", Options: []string{"p", "q", "r", "s", "t"}, Correct: 4},
	}

	for _, q := range questions {
		got, report := quiz.Extract(quiz.Format(q))
		if report.SkipCount() != 0 {
			t.Fatalf("round trip of %q produced skips: %v", q.Text, report.Skipped)
		}
		if len(got) != 1 {
			t.Fatalf("round trip of %q produced %d questions, want 1", q.Text, len(got))
		}
		if !reflect.DeepEqual(got[0], q) {
			t.Fatalf("round trip of %q = %#v, want %#v", q.Text, got[0], q)
		}
	}
}

// Пакетный вариант: FormatAll с перенумерацией так же обратим.
func TestFormatAllRoundTrip(t *testing.T) {
	t.Parallel()

	questions := []quiz.Question{
		{Text: "First?", Options: []string{"yes", "no"}, Correct: 0},
		{Text: "Second?", Options: []string{"up", "down", "left"}, Correct: 2},
		{Text: "Third, unresolved", Options: []string{"x", "y"}, Correct: quiz.NoAnswer},
	}

	got, report := quiz.Extract(quiz.FormatAll(questions))
	if report.SkipCount() != 0 {
		t.Fatalf("FormatAll round trip produced skips: %v", report.Skipped)
	}
	if !reflect.DeepEqual(got, questions) {
		t.Fatalf("FormatAll round trip = %#v, want %#v", got, questions)
	}
}

func TestOptionLetter(t *testing.T) {
	t.Parallel()

	if got := quiz.OptionLetter(0); got != 'a' {
		t.Fatalf("OptionLetter(0) = %q, want 'a'", got)
	}
	if got := quiz.OptionLetter(25); got != 'z' {
		t.Fatalf("OptionLetter(25) = %q, want 'z'", got)
	}
	if got := quiz.OptionLetter(26); got != '?' {
		t.Fatalf("OptionLetter(26) = %q, want '?'", got)
	}
}
